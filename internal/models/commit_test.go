package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitShortSHA(t *testing.T) {
	testCases := []struct {
		name     string
		sha      string
		expected string
	}{
		{name: "Full SHA", sha: "a1b2c3d4e5f6a7b8c9d0", expected: "a1b2c3d"},
		{name: "Exactly seven characters", sha: "a1b2c3d", expected: "a1b2c3d"},
		{name: "Shorter than seven", sha: "a1b2", expected: "a1b2"},
		{name: "Empty", sha: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			commit := &Commit{SHA: tc.sha}
			assert.Equal(t, tc.expected, commit.ShortSHA())
		})
	}
}

func TestCommitTotalChanges(t *testing.T) {
	commit := &Commit{Additions: 10, Deletions: 5}
	assert.Equal(t, 15, commit.TotalChanges())
}

func TestCommitClassification(t *testing.T) {
	testCases := []struct {
		name    string
		message string
		isMerge bool
		revert  bool
	}{
		{
			name:    "Merge commit",
			message: "Merge pull request #12 from feature/login",
			isMerge: true,
		},
		{
			name:    "Lowercase merge",
			message: "merge branch 'main' into develop",
			isMerge: true,
		},
		{
			name:    "Revert commit",
			message: "Revert \"Add login form\"",
			revert:  true,
		},
		{
			name:    "Regular commit",
			message: "Add login form validation",
		},
		{
			name:    "Merge mentioned mid-message",
			message: "Fix merge conflict leftovers",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			commit := &Commit{Message: tc.message}
			assert.Equal(t, tc.isMerge, commit.IsMergeCommit())
			assert.Equal(t, tc.revert, commit.IsRevert())
		})
	}
}

func TestCommitIsConventional(t *testing.T) {
	testCases := []struct {
		name     string
		message  string
		expected bool
	}{
		{name: "Simple feat", message: "feat: add login form", expected: true},
		{name: "Fix with scope", message: "fix(auth): handle expired tokens", expected: true},
		{name: "Breaking change marker", message: "feat(api)!: drop v1 endpoints", expected: true},
		{name: "Chore", message: "chore: bump dependencies", expected: true},
		{name: "Unknown type", message: "added: new stuff", expected: false},
		{name: "Missing colon", message: "feat add login form", expected: false},
		{name: "Missing space after colon", message: "fix:handle tokens", expected: false},
		{name: "Plain message", message: "Update README", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			commit := &Commit{Message: tc.message}
			assert.Equal(t, tc.expected, commit.IsConventional())
		})
	}
}
