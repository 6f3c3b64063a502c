package models

import (
	"strings"
	"time"
)

// JiraIssue represents one Jira issue from the search API. Description
// is already normalized to plain text regardless of the source format.
type JiraIssue struct {
	Key         string     `json:"key"`
	ProjectKey  string     `json:"project_key"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	IssueType   string     `json:"issue_type"`
	Priority    string     `json:"priority"`
	Assignee    string     `json:"assignee"` // empty means unassigned
	Reporter    string     `json:"reporter"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// IsResolved reports whether the issue carries a resolution date
func (i *JiraIssue) IsResolved() bool {
	return i.ResolvedAt != nil
}

// CycleTimeDays returns the days between creation and resolution.
// The second return value is false for unresolved issues.
func (i *JiraIssue) CycleTimeDays() (float64, bool) {
	if i.ResolvedAt == nil {
		return 0, false
	}
	return i.ResolvedAt.Sub(i.CreatedAt).Hours() / 24, true
}

// AgeDays returns how many days the issue has been open as of now
func (i *JiraIssue) AgeDays(now time.Time) float64 {
	return now.Sub(i.CreatedAt).Hours() / 24
}

// IsBug reports whether the issue type is Bug
func (i *JiraIssue) IsBug() bool {
	return strings.EqualFold(i.IssueType, "Bug")
}

// JiraComment represents one comment on a Jira issue
type JiraComment struct {
	ID        string    `json:"id"`
	IssueKey  string    `json:"issue_key"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
}
