package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/devlens/devlens/pkg/logger"
)

const githubBaseURL = "https://api.github.com"

const (
	githubMaxAttempts = 3
	githubBaseDelay   = 500 * time.Millisecond
)

// GitHubTransport performs single authenticated GitHub API round trips with
// retry on transient failures. It tracks the most recently observed
// rate-limit headers so callers can stop before a doomed request.
type GitHubTransport struct {
	baseURL    string
	token      string
	httpClient *http.Client
	sleep      func(time.Duration)

	rateLimitRemaining int
	rateLimitReset     time.Time
}

// NewGitHubTransport creates a transport authenticated with the given token
func NewGitHubTransport(token string) *GitHubTransport {
	return &GitHubTransport{
		baseURL:            githubBaseURL,
		token:              token,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		sleep:              time.Sleep,
		rateLimitRemaining: -1,
	}
}

// RateLimitRemaining returns the remaining quota observed on the most
// recent response, or -1 before any response has been seen
func (t *GitHubTransport) RateLimitRemaining() int {
	return t.rateLimitRemaining
}

// RateLimitReset returns the reset time observed on the most recent response
func (t *GitHubTransport) RateLimitReset() time.Time {
	return t.rateLimitReset
}

// Get performs one GET request and decodes the JSON body into out.
// A 404 returns (false, nil) without touching out. Server errors, 429s
// and transport-level failures are retried with exponential backoff;
// on exhaustion the last classified error is returned.
func (t *GitHubTransport) Get(ctx context.Context, path string, params url.Values, out interface{}) (bool, error) {
	u := t.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	delay := githubBaseDelay
	for attempt := 0; attempt < githubMaxAttempts; attempt++ {
		if attempt > 0 {
			logger.Debugf("retrying %s after %s (attempt %d)", path, delay, attempt+1)
			t.sleep(delay)
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("Authorization", "token "+t.token)
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			// Connection errors and timeouts are retried on the GET path
			lastErr = fmt.Errorf("github request failed: %w", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("github response read failed: %w", readErr)
			continue
		}

		t.trackRateLimit(resp)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if err := json.Unmarshal(body, out); err != nil {
				return false, &MalformedResponseError{Err: err}
			}
			return true, nil
		case resp.StatusCode == http.StatusUnauthorized:
			return false, fmt.Errorf("github token rejected: %w", ErrAuthentication)
		case resp.StatusCode == http.StatusForbidden && t.rateLimitRemaining == 0:
			// Quota exhausted. Not retried here: the caller aborts the run.
			return false, &RateLimitError{ResetAt: t.rateLimitReset}
		case resp.StatusCode == http.StatusForbidden:
			return false, fmt.Errorf("github access denied: %w", ErrPermission)
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := retryAfterDuration(resp)
			lastErr = &RateLimitError{RetryAfter: retryAfter, ResetAt: t.rateLimitReset}
			if retryAfter > 0 {
				delay = retryAfter
			}
		case resp.StatusCode >= 500:
			lastErr = &ServerError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
		default:
			return false, &ClientError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
		}
	}

	return false, lastErr
}

// trackRateLimit records the rate-limit headers from a response
func (t *GitHubTransport) trackRateLimit(resp *http.Response) {
	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.rateLimitRemaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			t.rateLimitReset = time.Unix(ts, 0)
		}
	}
}

// retryAfterDuration parses a Retry-After header given in seconds
func retryAfterDuration(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
