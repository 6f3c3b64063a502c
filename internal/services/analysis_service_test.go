package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlens/devlens/internal/clients"
	"github.com/devlens/devlens/internal/export"
)

func TestSplitRepository(t *testing.T) {
	testCases := []struct {
		input string
		owner string
		name  string
		ok    bool
	}{
		{input: "acme/widgets", owner: "acme", name: "widgets", ok: true},
		{input: "acme/widgets/extra", owner: "acme", name: "widgets/extra", ok: true},
		{input: "no-slash", ok: false},
		{input: "/widgets", ok: false},
		{input: "acme/", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			owner, name, ok := splitRepository(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.name, name)
		})
	}
}

func TestRunAbortsOnRateLimitButExportsPartials(t *testing.T) {
	var mu sync.Mutex
	requestedRepos := map[string]bool{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /repos/{owner}/{name}/...
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 4 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		repo := parts[2] + "/" + parts[3]
		mu.Lock()
		requestedRepos[repo] = true
		mu.Unlock()

		if repo == "acme/limited" {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1780000000")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	outputDir := t.TempDir()
	exporter := export.NewExporter(export.NewCSVWriter(outputDir), nil)
	github := clients.NewGitHubClientWithBaseURL("test-token", server.URL)
	service := NewAnalysisService(github, nil, exporter, 30)

	summary, err := service.Run(context.Background(),
		[]string{"acme/healthy", "acme/limited", "acme/untouched"}, nil)

	require.NoError(t, err)
	assert.True(t, summary.RateLimited)
	assert.Equal(t, []string{"acme/limited", "acme/untouched"}, summary.SkippedRepositories)
	// The repo after the rate limit is never requested
	assert.True(t, requestedRepos["acme/healthy"])
	assert.False(t, requestedRepos["acme/untouched"])

	// Partial reports are still written
	for _, name := range []string{"commits", "pull_requests", "issues", "repository_summary",
		"quality_metrics", "productivity_analysis", "contributors_summary"} {
		assert.FileExists(t, filepath.Join(outputDir, name+".csv"))
	}
	// No Jira phase ran, so no Jira reports appear
	_, err = os.Stat(filepath.Join(outputDir, "jira_issues.csv"))
	assert.True(t, os.IsNotExist(err))

	assert.NotEmpty(t, summary.RunID)
}

func TestRunSkipsMalformedRepositoryEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	outputDir := t.TempDir()
	exporter := export.NewExporter(export.NewCSVWriter(outputDir), nil)
	github := clients.NewGitHubClientWithBaseURL("test-token", server.URL)
	service := NewAnalysisService(github, nil, exporter, 30)

	summary, err := service.Run(context.Background(), []string{"not-a-repo", "acme/widgets"}, nil)

	require.NoError(t, err)
	assert.False(t, summary.RateLimited)
	assert.Equal(t, []string{"not-a-repo"}, summary.SkippedRepositories)
}
