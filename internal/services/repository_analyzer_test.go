package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlens/devlens/internal/models"
)

func TestAnalyzeRepository(t *testing.T) {
	analyzer := NewRepositoryAnalyzer()

	createdAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	mergedAt := createdAt.Add(24 * time.Hour)
	closedAt := createdAt.Add(6 * time.Hour)

	commits := []*models.Commit{
		{AuthorLogin: "alice", Message: "feat: add export", Additions: 10, Deletions: 10},
		{AuthorLogin: "bob", Message: "Revert \"feat: add export\"", Additions: 8, Deletions: 2},
		{AuthorLogin: models.UnknownLogin, Message: "Merge branch 'main'", Additions: 0, Deletions: 0},
	}
	pullRequests := []*models.PullRequest{
		{Number: 1, State: "closed", CreatedAt: createdAt, MergedAt: &mergedAt},
		{Number: 2, State: "open", CreatedAt: createdAt},
	}
	issues := []*models.Issue{
		{Number: 10, Labels: []string{"bug"}, CreatedAt: createdAt, ClosedAt: &closedAt},
		{Number: 11, Labels: []string{"enhancement"}, CreatedAt: createdAt},
	}

	stats := analyzer.AnalyzeRepository("acme/widgets", commits, pullRequests, issues)

	assert.Equal(t, "acme/widgets", stats.RepositoryID)
	assert.Equal(t, 3, stats.Commits)
	assert.Equal(t, 1, stats.MergeCommits)
	assert.Equal(t, 1, stats.RevertCommits)
	// The unknown author is counted in totals but not as a distinct person
	assert.Equal(t, 2, stats.UniqueAuthors)
	assert.Equal(t, 18, stats.Additions)
	assert.Equal(t, 12, stats.Deletions)
	assert.InDelta(t, 10.0, stats.AvgCommitSize, 0.001)
	assert.Equal(t, 2, stats.PullRequests)
	assert.Equal(t, 1, stats.MergedPRs)
	assert.Equal(t, 1, stats.OpenPRs)
	assert.InDelta(t, 50.0, stats.MergeRate, 0.001)
	assert.InDelta(t, 24.0, stats.AvgTimeToMerge, 0.001)
	assert.Equal(t, 2, stats.Issues)
	assert.Equal(t, 1, stats.ClosedIssues)
	assert.InDelta(t, 50.0, stats.CloseRate, 0.001)
	assert.Equal(t, 1, stats.Bugs)
	assert.Equal(t, 1, stats.Enhancements)
}

func TestAnalyzeRepositoryEmpty(t *testing.T) {
	analyzer := NewRepositoryAnalyzer()

	stats := analyzer.AnalyzeRepository("acme/empty", nil, nil, nil)

	assert.Equal(t, 0, stats.Commits)
	assert.Equal(t, 0.0, stats.AvgCommitSize)
	assert.Equal(t, 0.0, stats.MergeRate)
	assert.Equal(t, 0.0, stats.CloseRate)
}

func TestAnalyzeQuality(t *testing.T) {
	analyzer := NewRepositoryAnalyzer()
	mergedAt := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name          string
		commits       []*models.Commit
		pullRequests  []*models.PullRequest
		expectedScore float64
	}{
		{
			name: "Perfect repository",
			commits: []*models.Commit{
				{Message: "feat: add export", Additions: 50, Deletions: 10},
				{Message: "fix(export): quote cells", Additions: 5, Deletions: 2},
			},
			pullRequests: []*models.PullRequest{
				{Number: 1, MergedAt: &mergedAt, Reviewers: 1, Approvals: 2},
			},
			// (100-0)*0.20 + 100*0.25 + 100*0.20 + (100-0)*0.15 + 100*0.20
			expectedScore: 100.0,
		},
		{
			name:          "No activity still yields the weighted baseline",
			expectedScore: 35.0, // (100-0)*0.20 + (100-0)*0.15
		},
		{
			name: "Reverts and unreviewed pull requests",
			commits: []*models.Commit{
				{Message: "feat: add export", Additions: 10, Deletions: 0},
				{Message: "Revert \"feat: add export\"", Additions: 0, Deletions: 10},
			},
			pullRequests: []*models.PullRequest{
				{Number: 1, MergedAt: &mergedAt},
			},
			// (100-50)*0.20 + 0*0.25 + 0*0.20 + (100-0)*0.15 + 50*0.20
			expectedScore: 35.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := analyzer.AnalyzeQuality("acme/widgets", tc.commits, tc.pullRequests)
			assert.InDelta(t, tc.expectedScore, metrics.QualityScore, 0.001)
			assert.GreaterOrEqual(t, metrics.QualityScore, 0.0)
			assert.LessOrEqual(t, metrics.QualityScore, 100.0)
		})
	}
}

func TestAnalyzeQualitySubMetrics(t *testing.T) {
	analyzer := NewRepositoryAnalyzer()

	commits := []*models.Commit{
		{Message: "feat: small change", Additions: 10, Deletions: 5},
		{Message: "big drop", Additions: 400, Deletions: 200},
	}
	pullRequests := []*models.PullRequest{
		{Number: 1, Draft: true},
		{Number: 2, Reviewers: 1, Approvals: 1},
		{Number: 3, ChangesRequested: 1, ReviewComments: 2},
		{Number: 4},
	}

	metrics := analyzer.AnalyzeQuality("acme/widgets", commits, pullRequests)

	require.NotNil(t, metrics)
	assert.InDelta(t, 50.0, metrics.CommitMessageQuality, 0.001)
	assert.InDelta(t, 50.0, metrics.LargeCommitRatio, 0.001)
	assert.InDelta(t, 50.0, metrics.PRReviewCoverage, 0.001)
	assert.InDelta(t, 25.0, metrics.PRApprovalRate, 0.001)
	assert.InDelta(t, 25.0, metrics.ChangesRequestedRatio, 0.001)
	assert.InDelta(t, 25.0, metrics.DraftPRRatio, 0.001)
}
