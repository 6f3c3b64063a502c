package services

import (
	"github.com/devlens/devlens/internal/models"
)

// largeCommitThreshold is the changed-line count above which a commit is
// considered too large to review comfortably.
const largeCommitThreshold = 500

// Quality composite weights. Sub-metrics over empty inputs default to 0,
// so the composite always produces a value in [0,100].
const (
	weightRevertRatio      = 0.20
	weightReviewCoverage   = 0.25
	weightApprovalRate     = 0.20
	weightChangesRequested = 0.15
	weightCommitMessages   = 0.20
)

// RepositoryAnalyzer folds one repository's entity lists into summary
// and quality rows
type RepositoryAnalyzer struct{}

func NewRepositoryAnalyzer() *RepositoryAnalyzer {
	return &RepositoryAnalyzer{}
}

// AnalyzeRepository computes the per-repository summary row
func (a *RepositoryAnalyzer) AnalyzeRepository(repositoryID string, commits []*models.Commit, pullRequests []*models.PullRequest, issues []*models.Issue) *models.RepositoryStats {
	stats := &models.RepositoryStats{RepositoryID: repositoryID}

	authors := make(map[string]struct{})
	totalSize := 0
	for _, commit := range commits {
		stats.Commits++
		stats.Additions += commit.Additions
		stats.Deletions += commit.Deletions
		totalSize += commit.TotalChanges()
		if commit.IsMergeCommit() {
			stats.MergeCommits++
		}
		if commit.IsRevert() {
			stats.RevertCommits++
		}
		if commit.AuthorLogin != models.UnknownLogin {
			authors[commit.AuthorLogin] = struct{}{}
		}
	}
	stats.UniqueAuthors = len(authors)
	if stats.Commits > 0 {
		stats.AvgCommitSize = float64(totalSize) / float64(stats.Commits)
	}

	mergeHours := 0.0
	for _, pr := range pullRequests {
		stats.PullRequests++
		if pr.IsMerged() {
			stats.MergedPRs++
			if hours, ok := pr.TimeToMergeHours(); ok {
				mergeHours += hours
			}
		} else if pr.State == "open" {
			stats.OpenPRs++
		}
	}
	stats.MergeRate = percentage(stats.MergedPRs, stats.PullRequests)
	if stats.MergedPRs > 0 {
		stats.AvgTimeToMerge = mergeHours / float64(stats.MergedPRs)
	}

	for _, issue := range issues {
		stats.Issues++
		if issue.IsClosed() {
			stats.ClosedIssues++
		}
		if issue.IsBug() {
			stats.Bugs++
		}
		if issue.IsEnhancement() {
			stats.Enhancements++
		}
	}
	stats.CloseRate = percentage(stats.ClosedIssues, stats.Issues)

	return stats
}

// AnalyzeQuality computes the weighted quality composite for one repository
func (a *RepositoryAnalyzer) AnalyzeQuality(repositoryID string, commits []*models.Commit, pullRequests []*models.PullRequest) *models.QualityMetrics {
	metrics := &models.QualityMetrics{RepositoryID: repositoryID}

	if len(commits) > 0 {
		reverts := 0
		conventional := 0
		large := 0
		for _, commit := range commits {
			if commit.IsRevert() {
				reverts++
			}
			if commit.IsConventional() {
				conventional++
			}
			if commit.TotalChanges() > largeCommitThreshold {
				large++
			}
		}
		metrics.RevertRatio = percentage(reverts, len(commits))
		metrics.CommitMessageQuality = percentage(conventional, len(commits))
		metrics.LargeCommitRatio = percentage(large, len(commits))
	}

	if len(pullRequests) > 0 {
		reviewed := 0
		approved := 0
		changesRequested := 0
		drafts := 0
		for _, pr := range pullRequests {
			if pr.HasReview() {
				reviewed++
			}
			if pr.Approvals > 0 {
				approved++
			}
			if pr.ChangesRequested > 0 {
				changesRequested++
			}
			if pr.Draft {
				drafts++
			}
		}
		metrics.PRReviewCoverage = percentage(reviewed, len(pullRequests))
		metrics.PRApprovalRate = percentage(approved, len(pullRequests))
		metrics.ChangesRequestedRatio = percentage(changesRequested, len(pullRequests))
		metrics.DraftPRRatio = percentage(drafts, len(pullRequests))
	}

	metrics.QualityScore = (100-metrics.RevertRatio)*weightRevertRatio +
		metrics.PRReviewCoverage*weightReviewCoverage +
		metrics.PRApprovalRate*weightApprovalRate +
		(100-metrics.ChangesRequestedRatio)*weightChangesRequested +
		metrics.CommitMessageQuality*weightCommitMessages

	return metrics
}

// percentage returns part/total*100, or 0 for an empty total
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
