package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devlens/devlens/internal/models"
	"github.com/devlens/devlens/pkg/logger"
)

const (
	jiraPageSize    = 100
	jiraMaxAttempts = 5
	jiraBaseDelay   = time.Second
	jiraMaxDelay    = 60 * time.Second
)

// JiraClient talks to a Jira Cloud or Server instance. The API variant is
// detected once from the base URL: *.atlassian.net hosts speak v3 (Cloud,
// cursor pagination, ADF rich text), everything else v2 (Server, offset
// pagination, plain-text fields).
type JiraClient struct {
	baseURL    string
	email      string
	apiToken   string
	isCloud    bool
	httpClient *http.Client
	sleep      func(time.Duration)
}

// NewJiraClient creates a client authenticated with email + API token
func NewJiraClient(baseURL, email, apiToken string) *JiraClient {
	base := strings.TrimRight(baseURL, "/")
	return &JiraClient{
		baseURL:    base,
		email:      email,
		apiToken:   apiToken,
		isCloud:    strings.Contains(base, ".atlassian.net"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sleep:      time.Sleep,
	}
}

// SearchIssues fetches all issues in the given projects updated on or after
// windowStart, across however many pages the server needs
func (c *JiraClient) SearchIssues(ctx context.Context, projects []string, windowStart time.Time) ([]*models.JiraIssue, error) {
	jql := buildJQL(projects, windowStart)
	logger.Debugf("jira search: %s", jql)
	if c.isCloud {
		return c.searchCloud(ctx, jql)
	}
	return c.searchServer(ctx, jql)
}

// searchCloud pages with the server-issued nextPageToken cursor
func (c *JiraClient) searchCloud(ctx context.Context, jql string) ([]*models.JiraIssue, error) {
	var issues []*models.JiraIssue
	token := ""

	for {
		params := url.Values{}
		params.Set("jql", jql)
		params.Set("maxResults", strconv.Itoa(jiraPageSize))
		params.Set("fields", "*all,-comment")
		if token != "" {
			params.Set("nextPageToken", token)
		}

		var page jiraSearchResponse
		if err := c.doJSON(ctx, http.MethodGet, "/rest/api/3/search/jql", params, nil, &page); err != nil {
			return nil, fmt.Errorf("jira cloud search: %w", err)
		}
		if len(page.Issues) == 0 {
			break
		}
		for _, payload := range page.Issues {
			issues = append(issues, decodeJiraIssue(payload))
		}
		if page.IsLast || page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	return issues, nil
}

// searchServer pages by advancing startAt past the items already received
func (c *JiraClient) searchServer(ctx context.Context, jql string) ([]*models.JiraIssue, error) {
	var issues []*models.JiraIssue
	startAt := 0

	for {
		body := map[string]interface{}{
			"jql":        jql,
			"startAt":    startAt,
			"maxResults": jiraPageSize,
			"fields":     []string{"*all", "-comment"},
		}

		var page jiraSearchResponse
		if err := c.doJSON(ctx, http.MethodPost, "/rest/api/2/search", nil, body, &page); err != nil {
			return nil, fmt.Errorf("jira server search: %w", err)
		}
		if len(page.Issues) == 0 {
			break
		}
		for _, payload := range page.Issues {
			issues = append(issues, decodeJiraIssue(payload))
		}
		startAt += len(page.Issues)
		if startAt >= page.Total {
			break
		}
	}

	return issues, nil
}

// FetchComments returns all comments on one issue, offset-paginated
func (c *JiraClient) FetchComments(ctx context.Context, issueKey string) ([]*models.JiraComment, error) {
	apiVersion := "2"
	if c.isCloud {
		apiVersion = "3"
	}
	path := fmt.Sprintf("/rest/api/%s/issue/%s/comment", apiVersion, url.PathEscape(issueKey))

	var comments []*models.JiraComment
	startAt := 0

	for {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(jiraPageSize))

		var page jiraCommentResponse
		if err := c.doJSON(ctx, http.MethodGet, path, params, nil, &page); err != nil {
			return nil, fmt.Errorf("jira comments for %s: %w", issueKey, err)
		}
		if len(page.Comments) == 0 {
			break
		}
		for _, payload := range page.Comments {
			comments = append(comments, decodeJiraComment(issueKey, payload))
		}
		startAt += len(page.Comments)
		if startAt >= page.Total {
			break
		}
	}

	return comments, nil
}

// doJSON performs one request with the rich retry policy: up to 5 attempts,
// 1s base delay doubling per attempt capped at 60s, a 429's Retry-After
// seeding the next delay. Network failures are not retried on this path.
func (c *JiraClient) doJSON(ctx context.Context, method, path string, params url.Values, body interface{}, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding jira request body: %w", err)
		}
	}

	var lastErr error
	delay := jiraBaseDelay
	for attempt := 0; attempt < jiraMaxAttempts; attempt++ {
		if attempt > 0 {
			logger.Debugf("retrying jira %s after %s (attempt %d)", path, delay, attempt+1)
			c.sleep(delay)
			delay *= 2
			if delay > jiraMaxDelay {
				delay = jiraMaxDelay
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.email, c.apiToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("jira request failed: %w", err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("jira response read failed: %w", readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return &MalformedResponseError{Err: err}
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("jira credentials rejected: %w", ErrAuthentication)
		case resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("jira access denied: %w", ErrPermission)
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("jira resource %s: %w", path, ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := retryAfterDuration(resp)
			lastErr = &RateLimitError{RetryAfter: retryAfter}
			if retryAfter > 0 {
				delay = retryAfter
			}
		case resp.StatusCode >= 500:
			lastErr = &ServerError{StatusCode: resp.StatusCode, Body: truncateBody(respBody)}
		default:
			return &ClientError{StatusCode: resp.StatusCode, Body: truncateBody(respBody)}
		}
	}

	return lastErr
}

// buildJQL builds the issue search query. Project keys are always quoted
// to tolerate JQL reserved words.
func buildJQL(projects []string, since time.Time) string {
	quoted := make([]string, 0, len(projects))
	for _, project := range projects {
		quoted = append(quoted, fmt.Sprintf("%q", project))
	}
	return fmt.Sprintf("project in (%s) AND updated >= '%s' ORDER BY updated DESC",
		strings.Join(quoted, ", "), since.Format("2006-01-02"))
}

// Vendor payload shapes, decoded once at the boundary.

type jiraSearchResponse struct {
	StartAt       int                `json:"startAt"`
	MaxResults    int                `json:"maxResults"`
	Total         int                `json:"total"`
	IsLast        bool               `json:"isLast"`
	NextPageToken string             `json:"nextPageToken"`
	Issues        []jiraIssuePayload `json:"issues"`
}

type jiraIssuePayload struct {
	Key    string          `json:"key"`
	Fields jiraIssueFields `json:"fields"`
}

type jiraIssueFields struct {
	Summary        string            `json:"summary"`
	Description    json.RawMessage   `json:"description"` // string on Server, ADF document on Cloud
	Status         *jiraNamedField   `json:"status"`
	IssueType      *jiraNamedField   `json:"issuetype"`
	Priority       *jiraNamedField   `json:"priority"`
	Assignee       *jiraUser         `json:"assignee"`
	Reporter       *jiraUser         `json:"reporter"`
	Created        string            `json:"created"`
	Updated        string            `json:"updated"`
	ResolutionDate string            `json:"resolutiondate"`
	Project        *jiraProjectField `json:"project"`
}

type jiraNamedField struct {
	Name string `json:"name"`
}

type jiraUser struct {
	DisplayName string `json:"displayName"`
}

type jiraProjectField struct {
	Key string `json:"key"`
}

type jiraCommentResponse struct {
	StartAt    int                  `json:"startAt"`
	MaxResults int                  `json:"maxResults"`
	Total      int                  `json:"total"`
	Comments   []jiraCommentPayload `json:"comments"`
}

type jiraCommentPayload struct {
	ID      string          `json:"id"`
	Author  *jiraUser       `json:"author"`
	Created string          `json:"created"`
	Body    json.RawMessage `json:"body"` // string on Server, ADF document on Cloud
}

// decodeJiraIssue maps one search payload item into a domain record
func decodeJiraIssue(payload jiraIssuePayload) *models.JiraIssue {
	fields := payload.Fields
	issue := &models.JiraIssue{
		Key:         payload.Key,
		Summary:     fields.Summary,
		Description: NormalizeText(fields.Description),
		CreatedAt:   parseJiraTime(fields.Created),
		UpdatedAt:   parseJiraTime(fields.Updated),
	}

	if fields.Status != nil {
		issue.Status = fields.Status.Name
	}
	if fields.IssueType != nil {
		issue.IssueType = fields.IssueType.Name
	}
	if fields.Priority != nil {
		issue.Priority = fields.Priority.Name
	}
	if fields.Assignee != nil {
		issue.Assignee = fields.Assignee.DisplayName
	}
	if fields.Reporter != nil {
		issue.Reporter = fields.Reporter.DisplayName
	}
	if fields.Project != nil {
		issue.ProjectKey = fields.Project.Key
	}
	if fields.ResolutionDate != "" {
		resolvedAt := parseJiraTime(fields.ResolutionDate)
		if !resolvedAt.IsZero() {
			issue.ResolvedAt = &resolvedAt
		}
	}

	return issue
}

// decodeJiraComment maps one comment payload into a domain record
func decodeJiraComment(issueKey string, payload jiraCommentPayload) *models.JiraComment {
	comment := &models.JiraComment{
		ID:        payload.ID,
		IssueKey:  issueKey,
		CreatedAt: parseJiraTime(payload.Created),
		Body:      NormalizeText(payload.Body),
	}
	if payload.Author != nil {
		comment.Author = payload.Author.DisplayName
	}
	return comment
}

// parseJiraTime parses Jira's timestamp format, falling back to RFC3339
func parseJiraTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000-0700", value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
