package services

import (
	"math"
	"sort"

	"github.com/devlens/devlens/internal/models"
)

// Productivity term caps. The formula is a sum of capped terms, so the
// overall score never exceeds 100.
const (
	capCommits      = 30
	capMergedPRs    = 25
	capReviews      = 20
	capConsistency  = 15
	capRepositories = 10
)

// ContributorService builds per-login accumulators from the full entity
// lists of a run and ranks contributors by productivity
type ContributorService struct {
	analysisDays int
}

func NewContributorService(analysisDays int) *ContributorService {
	return &ContributorService{analysisDays: analysisDays}
}

// BuildContributorStats folds commits, pull requests and issues into one
// accumulator per login. Unknown and empty logins are never recorded.
func (s *ContributorService) BuildContributorStats(commits []*models.Commit, pullRequests []*models.PullRequest, issues []*models.Issue) map[string]*models.ContributorStats {
	stats := make(map[string]*models.ContributorStats)

	track := func(login string) *models.ContributorStats {
		if login == "" || login == models.UnknownLogin {
			return nil
		}
		cs, ok := stats[login]
		if !ok {
			cs = models.NewContributorStats(login)
			stats[login] = cs
		}
		return cs
	}

	for _, commit := range commits {
		cs := track(commit.AuthorLogin)
		if cs == nil {
			continue
		}
		cs.Commits++
		cs.Additions += commit.Additions
		cs.Deletions += commit.Deletions
		cs.CommitSizes = append(cs.CommitSizes, commit.TotalChanges())
		cs.Touch(commit.RepositoryID, commit.Date)
	}

	for _, pr := range pullRequests {
		if cs := track(pr.AuthorLogin); cs != nil {
			cs.PRsOpened++
			if pr.IsMerged() {
				cs.PRsMerged++
			}
			cs.Touch(pr.RepositoryID, pr.CreatedAt)
		}
		for _, reviewer := range pr.ReviewerLogins {
			if cs := track(reviewer); cs != nil {
				cs.PRsReviewed++
				cs.Touch(pr.RepositoryID, pr.UpdatedAt)
			}
		}
	}

	for _, issue := range issues {
		cs := track(issue.AuthorLogin)
		if cs == nil {
			continue
		}
		cs.IssuesOpened++
		if issue.IsClosed() {
			cs.IssuesClosed++
		}
		cs.Touch(issue.RepositoryID, issue.CreatedAt)
	}

	return stats
}

// AnalyzeProductivity computes the capped productivity score for every
// contributor and returns rows ranked by score descending. Logins are
// pre-sorted so equal scores keep a reproducible order.
func (s *ContributorService) AnalyzeProductivity(stats map[string]*models.ContributorStats) []*models.ProductivityAnalysis {
	logins := make([]string, 0, len(stats))
	for login := range stats {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	results := make([]*models.ProductivityAnalysis, 0, len(logins))
	for _, login := range logins {
		cs := stats[login]
		consistency := 0.0
		if s.analysisDays > 0 {
			consistency = float64(len(cs.ActiveDays)) / float64(s.analysisDays) * 100
		}

		score := math.Min(float64(cs.Commits)/10, capCommits) +
			math.Min(float64(cs.PRsMerged)*5, capMergedPRs) +
			math.Min(float64(cs.PRsReviewed)*3, capReviews) +
			math.Min(consistency/5, capConsistency) +
			math.Min(float64(len(cs.Repositories))*2, capRepositories)

		results = append(results, &models.ProductivityAnalysis{
			Login:             login,
			Commits:           cs.Commits,
			PRsMerged:         cs.PRsMerged,
			PRsReviewed:       cs.PRsReviewed,
			ActiveDays:        len(cs.ActiveDays),
			ConsistencyPct:    consistency,
			RepositoriesCount: len(cs.Repositories),
			Score:             score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for rank, result := range results {
		result.Rank = rank + 1
	}

	return results
}
