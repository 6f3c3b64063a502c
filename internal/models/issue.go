package models

import (
	"strings"
	"time"
)

// Issue represents a GitHub issue. Pull requests returned by the issues
// endpoint are filtered out before this type is constructed.
type Issue struct {
	RepositoryID string     `json:"repository_id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	State        string     `json:"state"`
	AuthorLogin  string     `json:"author_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	Comments     int        `json:"comments"`
	Labels       []string   `json:"labels"`
	Assignees    []string   `json:"assignees"`
	URL          string     `json:"url"`
}

// IsClosed reports whether the issue has been closed
func (i *Issue) IsClosed() bool {
	return i.ClosedAt != nil
}

// TimeToCloseHours returns the hours between creation and close.
// The second return value is false for open issues.
func (i *Issue) TimeToCloseHours() (float64, bool) {
	if i.ClosedAt == nil {
		return 0, false
	}
	return i.ClosedAt.Sub(i.CreatedAt).Hours(), true
}

// IsBug reports whether any label marks the issue as a bug
func (i *Issue) IsBug() bool {
	return i.hasLabelContaining("bug")
}

// IsEnhancement reports whether any label marks the issue as an
// enhancement or feature request
func (i *Issue) IsEnhancement() bool {
	return i.hasLabelContaining("enhancement") || i.hasLabelContaining("feature")
}

func (i *Issue) hasLabelContaining(substring string) bool {
	for _, label := range i.Labels {
		if strings.Contains(strings.ToLower(label), substring) {
			return true
		}
	}
	return false
}
