package models

import (
	"time"
)

// ContributorStats accumulates activity for a single login over one run.
// It is owned exclusively by the contributor aggregation for the duration
// of the run and never shared across goroutines.
type ContributorStats struct {
	Login         string
	Repositories  map[string]struct{}
	Commits       int
	Additions     int
	Deletions     int
	CommitSizes   []int // total changed lines per commit
	PRsOpened     int
	PRsMerged     int
	PRsReviewed   int
	IssuesOpened  int
	IssuesClosed  int
	ActiveDays    map[string]struct{} // "2006-01-02" date strings
	FirstActivity time.Time
	LastActivity  time.Time
}

// NewContributorStats creates an empty accumulator for a login
func NewContributorStats(login string) *ContributorStats {
	return &ContributorStats{
		Login:        login,
		Repositories: make(map[string]struct{}),
		ActiveDays:   make(map[string]struct{}),
	}
}

// Touch records one activity event in a repository at the given time
func (cs *ContributorStats) Touch(repositoryID string, at time.Time) {
	if repositoryID != "" {
		cs.Repositories[repositoryID] = struct{}{}
	}
	if at.IsZero() {
		return
	}
	cs.ActiveDays[at.Format("2006-01-02")] = struct{}{}
	if cs.FirstActivity.IsZero() || at.Before(cs.FirstActivity) {
		cs.FirstActivity = at
	}
	if at.After(cs.LastActivity) {
		cs.LastActivity = at
	}
}

// AvgCommitSize returns the mean changed lines across recorded commits
func (cs *ContributorStats) AvgCommitSize() float64 {
	if len(cs.CommitSizes) == 0 {
		return 0
	}
	total := 0
	for _, size := range cs.CommitSizes {
		total += size
	}
	return float64(total) / float64(len(cs.CommitSizes))
}
