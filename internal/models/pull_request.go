package models

import (
	"time"
)

// PullRequest represents a GitHub pull request
type PullRequest struct {
	RepositoryID     string     `json:"repository_id"`
	Number           int        `json:"number"`
	Title            string     `json:"title"`
	State            string     `json:"state"`
	AuthorLogin      string     `json:"author_login"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ClosedAt         *time.Time `json:"closed_at"`
	MergedAt         *time.Time `json:"merged_at"`
	Draft            bool       `json:"draft"`
	Additions        int        `json:"additions"`
	Deletions        int        `json:"deletions"`
	ChangedFiles     int        `json:"changed_files"`
	Commits          int        `json:"commits"`
	Comments         int        `json:"comments"`
	ReviewComments   int        `json:"review_comments"`
	Labels           []string   `json:"labels"`
	Reviewers        int        `json:"reviewers"`
	ReviewerLogins   []string   `json:"reviewer_logins"` // distinct review authors
	Approvals        int        `json:"approvals"`
	ChangesRequested int        `json:"changes_requested"`
	BaseBranch       string     `json:"base_branch"`
	HeadBranch       string     `json:"head_branch"`
	URL              string     `json:"url"`
}

// IsMerged reports whether the pull request has been merged
func (pr *PullRequest) IsMerged() bool {
	return pr.MergedAt != nil
}

// TimeToMergeHours returns the hours between creation and merge.
// The second return value is false for unmerged pull requests.
func (pr *PullRequest) TimeToMergeHours() (float64, bool) {
	if pr.MergedAt == nil {
		return 0, false
	}
	return pr.MergedAt.Sub(pr.CreatedAt).Hours(), true
}

// HasReview reports whether the pull request received any review attention
func (pr *PullRequest) HasReview() bool {
	return pr.Reviewers > 0 || pr.ReviewComments > 0
}
