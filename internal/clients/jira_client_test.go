package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestJiraClient builds a client against a test server with sleeps
// recorded, forcing the requested API variant
func newTestJiraClient(serverURL string, cloud bool) (*JiraClient, *[]time.Duration) {
	var slept []time.Duration
	client := NewJiraClient(serverURL, "dev@acme.test", "api-token")
	client.isCloud = cloud
	client.sleep = func(d time.Duration) { slept = append(slept, d) }
	return client, &slept
}

func jiraIssueJSON(key, project, created string) map[string]interface{} {
	return map[string]interface{}{
		"key": key,
		"fields": map[string]interface{}{
			"summary":   "Something broke",
			"status":    map[string]interface{}{"name": "To Do"},
			"issuetype": map[string]interface{}{"name": "Bug"},
			"created":   created,
			"updated":   created,
			"project":   map[string]interface{}{"key": project},
		},
	}
}

func TestSearchIssuesCloudCursorPagination(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/3/search/jql", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)

		token := r.URL.Query().Get("nextPageToken")
		tokens = append(tokens, token)

		var page map[string]interface{}
		if token == "" {
			page = map[string]interface{}{
				"issues":        []interface{}{jiraIssueJSON("ENG-1", "ENG", "2026-03-05T10:00:00.000+0000")},
				"nextPageToken": "cursor-2",
				"isLast":        false,
			}
		} else {
			page = map[string]interface{}{
				"issues": []interface{}{jiraIssueJSON("ENG-2", "ENG", "2026-03-06T10:00:00.000+0000")},
				"isLast": true,
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}))
	defer server.Close()

	client, _ := newTestJiraClient(server.URL, true)
	issues, err := client.SearchIssues(context.Background(), []string{"ENG"}, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, []string{"", "cursor-2"}, tokens)
	assert.Equal(t, "ENG-1", issues[0].Key)
	assert.Equal(t, "ENG", issues[0].ProjectKey)
	assert.Equal(t, "Bug", issues[0].IssueType)
}

func TestSearchIssuesServerOffsetPagination(t *testing.T) {
	var offsets []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/search", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body struct {
			JQL        string `json:"jql"`
			StartAt    int    `json:"startAt"`
			MaxResults int    `json:"maxResults"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		offsets = append(offsets, body.StartAt)
		assert.Contains(t, body.JQL, `project in ("OPS")`)

		var issues []interface{}
		if body.StartAt == 0 {
			issues = []interface{}{
				jiraIssueJSON("OPS-1", "OPS", "2026-03-05T10:00:00.000+0000"),
				jiraIssueJSON("OPS-2", "OPS", "2026-03-05T11:00:00.000+0000"),
			}
		} else {
			issues = []interface{}{jiraIssueJSON("OPS-3", "OPS", "2026-03-05T12:00:00.000+0000")}
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt": body.StartAt,
			"total":   3,
			"issues":  issues,
		}))
	}))
	defer server.Close()

	client, _ := newTestJiraClient(server.URL, false)
	issues, err := client.SearchIssues(context.Background(), []string{"OPS"}, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Len(t, issues, 3)
	// Offset advances by items received and stops at the reported total
	assert.Equal(t, []int{0, 2}, offsets)
}

func TestFetchCommentsPaginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/3/issue/ENG-7/comment", r.URL.Path)

		startAt := r.URL.Query().Get("startAt")
		var comments []interface{}
		if startAt == "0" {
			comments = []interface{}{
				map[string]interface{}{
					"id":      "100",
					"author":  map[string]interface{}{"displayName": "Alice"},
					"created": "2026-03-05T10:00:00.000+0000",
					"body":    map[string]interface{}{"type": "doc", "content": []interface{}{map[string]interface{}{"type": "paragraph", "content": []interface{}{map[string]interface{}{"type": "text", "text": "Looking into it"}}}}},
				},
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"total":    1,
			"comments": comments,
		}))
	}))
	defer server.Close()

	client, _ := newTestJiraClient(server.URL, true)
	comments, err := client.FetchComments(context.Background(), "ENG-7")

	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "ENG-7", comments[0].IssueKey)
	assert.Equal(t, "Alice", comments[0].Author)
	assert.Equal(t, "Looking into it", comments[0].Body)
}

func TestJiraRetriesServerErrorsWithCappedBackoff(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, slept := newTestJiraClient(server.URL, true)
	_, err := client.FetchComments(context.Background(), "ENG-1")

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, jiraMaxAttempts, requests)
	// 1s, 2s, 4s, 8s between the five attempts
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, *slept)
}

func TestJiraNotFoundIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := newTestJiraClient(server.URL, false)
	_, err := client.FetchComments(context.Background(), "GONE-1")

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestJiraCloudDetection(t *testing.T) {
	assert.True(t, NewJiraClient("https://acme.atlassian.net", "a", "b").isCloud)
	assert.False(t, NewJiraClient("https://jira.acme.internal", "a", "b").isCloud)
}

func TestBuildJQL(t *testing.T) {
	since := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)
	jql := buildJQL([]string{"ENG", "OPS"}, since)
	assert.Equal(t, `project in ("ENG", "OPS") AND updated >= '2026-03-01' ORDER BY updated DESC`, jql)
}

func TestParseJiraTime(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		zero  bool
	}{
		{name: "Jira format", value: "2026-03-05T10:00:00.000+0000"},
		{name: "RFC3339 fallback", value: "2026-03-05T10:00:00Z"},
		{name: "Empty", value: "", zero: true},
		{name: "Garbage", value: "last tuesday", zero: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := parseJiraTime(tc.value)
			assert.Equal(t, tc.zero, parsed.IsZero())
		})
	}
}
