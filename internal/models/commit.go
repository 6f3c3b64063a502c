package models

import (
	"regexp"
	"strings"
	"time"
)

// UnknownLogin is recorded when the API response carries no usable author.
// Entities with this login are counted in repository totals but excluded
// from per-contributor aggregation.
const UnknownLogin = "unknown"

var conventionalCommitPattern = regexp.MustCompile(`^(feat|fix|docs|style|refactor|perf|test|build|ci|chore|revert)(\([^)]*\))?!?:\s`)

// Commit represents a single commit fetched from the GitHub API
type Commit struct {
	RepositoryID   string         `json:"repository_id"`
	SHA            string         `json:"sha"`
	AuthorLogin    string         `json:"author_login"`
	AuthorEmail    string         `json:"author_email"`
	CommitterLogin string         `json:"committer_login"`
	Date           time.Time      `json:"date"`
	Message        string         `json:"message"` // first line only
	FullMessage    string         `json:"full_message"`
	Additions      int            `json:"additions"`
	Deletions      int            `json:"deletions"`
	FilesChanged   int            `json:"files_changed"`
	FileExtensions map[string]int `json:"file_extensions"`
	URL            string         `json:"url"`
}

// ShortSHA returns the first 7 characters of the commit SHA
func (c *Commit) ShortSHA() string {
	if len(c.SHA) < 7 {
		return c.SHA
	}
	return c.SHA[:7]
}

// TotalChanges returns the total number of changed lines
func (c *Commit) TotalChanges() int {
	return c.Additions + c.Deletions
}

// IsMergeCommit reports whether the commit message starts with "merge"
func (c *Commit) IsMergeCommit() bool {
	return strings.HasPrefix(strings.ToLower(c.Message), "merge")
}

// IsRevert reports whether the commit message starts with "revert"
func (c *Commit) IsRevert() bool {
	return strings.HasPrefix(strings.ToLower(c.Message), "revert")
}

// IsConventional reports whether the first message line matches the
// conventional-commit "type(scope): description" pattern
func (c *Commit) IsConventional() bool {
	return conventionalCommitPattern.MatchString(c.Message)
}
