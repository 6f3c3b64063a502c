package clients

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/devlens/devlens/internal/models"
	"github.com/devlens/devlens/pkg/logger"
)

const (
	githubPageSize = 100
	// Hard ceiling per listing so a misbehaving server can't make us
	// fetch forever.
	githubMaxPages = 10
)

// GitHubClient fetches commits, pull requests and issues for a repository,
// paginating with page numbers and decoding vendor payloads into domain
// models at the boundary.
type GitHubClient struct {
	transport *GitHubTransport
}

// NewGitHubClient creates a client using the default API base URL
func NewGitHubClient(token string) *GitHubClient {
	return &GitHubClient{transport: NewGitHubTransport(token)}
}

// NewGitHubClientWithBaseURL creates a client against a custom base URL,
// intended for tests with an httptest server
func NewGitHubClientWithBaseURL(token, baseURL string) *GitHubClient {
	transport := NewGitHubTransport(token)
	transport.baseURL = strings.TrimRight(baseURL, "/")
	return &GitHubClient{transport: transport}
}

// RateLimitRemaining exposes the transport's last observed quota
func (c *GitHubClient) RateLimitRemaining() int {
	return c.transport.RateLimitRemaining()
}

// RateLimitReset exposes the transport's last observed reset time
func (c *GitHubClient) RateLimitReset() time.Time {
	return c.transport.RateLimitReset()
}

// FetchCommits returns all commits for owner/repo since the given time,
// enriched with per-commit stats from the commit detail endpoint
func (c *GitHubClient) FetchCommits(ctx context.Context, owner, repo string, since time.Time) ([]*models.Commit, error) {
	repositoryID := owner + "/" + repo
	var commits []*models.Commit

	for page := 1; page <= githubMaxPages; page++ {
		params := url.Values{}
		params.Set("since", since.Format(time.RFC3339))
		params.Set("per_page", strconv.Itoa(githubPageSize))
		params.Set("page", strconv.Itoa(page))

		var raw []*github.RepositoryCommit
		found, err := c.transport.Get(ctx, fmt.Sprintf("/repos/%s/%s/commits", owner, repo), params, &raw)
		if err != nil {
			return nil, fmt.Errorf("listing commits for %s (page %d): %w", repositoryID, page, err)
		}
		if !found || len(raw) == 0 {
			break
		}

		for _, rc := range raw {
			commit := decodeCommit(repositoryID, rc)

			// The listing payload has no stats; fetch the commit detail
			var detail github.RepositoryCommit
			ok, err := c.transport.Get(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, commit.SHA), nil, &detail)
			if err != nil {
				return nil, fmt.Errorf("fetching commit %s detail: %w", commit.ShortSHA(), err)
			}
			if ok {
				applyCommitStats(commit, &detail)
			}
			commits = append(commits, commit)
		}

		if len(raw) < githubPageSize {
			break
		}
	}

	logger.Debugf("fetched %d commits for %s", len(commits), repositoryID)
	return commits, nil
}

// FetchPullRequests returns pull requests for owner/repo updated within the
// analysis window. Listing is sorted by last update descending, so fetching
// stops as soon as one item falls before the window start.
func (c *GitHubClient) FetchPullRequests(ctx context.Context, owner, repo string, since time.Time) ([]*models.PullRequest, error) {
	repositoryID := owner + "/" + repo
	var pullRequests []*models.PullRequest

	for page := 1; page <= githubMaxPages; page++ {
		params := url.Values{}
		params.Set("state", "all")
		params.Set("sort", "updated")
		params.Set("direction", "desc")
		params.Set("per_page", strconv.Itoa(githubPageSize))
		params.Set("page", strconv.Itoa(page))

		var raw []*github.PullRequest
		found, err := c.transport.Get(ctx, fmt.Sprintf("/repos/%s/%s/pulls", owner, repo), params, &raw)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s (page %d): %w", repositoryID, page, err)
		}
		if !found || len(raw) == 0 {
			break
		}

		reachedWindowStart := false
		for _, rp := range raw {
			if rp.GetUpdatedAt().Time.Before(since) {
				// Everything after this item is older still
				reachedWindowStart = true
				break
			}
			pr := decodePullRequest(repositoryID, rp)
			if err := c.enrichPullRequest(ctx, owner, repo, pr); err != nil {
				return nil, err
			}
			pullRequests = append(pullRequests, pr)
		}

		if reachedWindowStart || len(raw) < githubPageSize {
			break
		}
	}

	logger.Debugf("fetched %d pull requests for %s", len(pullRequests), repositoryID)
	return pullRequests, nil
}

// enrichPullRequest fills in the counts the listing payload omits and the
// review outcomes from the reviews endpoint
func (c *GitHubClient) enrichPullRequest(ctx context.Context, owner, repo string, pr *models.PullRequest) error {
	var detail github.PullRequest
	found, err := c.transport.Get(ctx, fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, pr.Number), nil, &detail)
	if err != nil {
		return fmt.Errorf("fetching pull request #%d detail: %w", pr.Number, err)
	}
	if found {
		pr.Additions = detail.GetAdditions()
		pr.Deletions = detail.GetDeletions()
		pr.ChangedFiles = detail.GetChangedFiles()
		pr.Commits = detail.GetCommits()
		pr.Comments = detail.GetComments()
		pr.ReviewComments = detail.GetReviewComments()
	}

	reviews, err := c.fetchReviews(ctx, owner, repo, pr.Number)
	if err != nil {
		return err
	}
	applyReviews(pr, reviews)
	return nil
}

// fetchReviews returns all reviews for one pull request
func (c *GitHubClient) fetchReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	var reviews []*github.PullRequestReview

	for page := 1; page <= githubMaxPages; page++ {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(githubPageSize))
		params.Set("page", strconv.Itoa(page))

		var raw []*github.PullRequestReview
		found, err := c.transport.Get(ctx, fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, number), params, &raw)
		if err != nil {
			return nil, fmt.Errorf("listing reviews for #%d (page %d): %w", number, page, err)
		}
		if !found || len(raw) == 0 {
			break
		}
		reviews = append(reviews, raw...)
		if len(raw) < githubPageSize {
			break
		}
	}

	return reviews, nil
}

// FetchIssues returns issues for owner/repo updated since the given time.
// Items carrying a pull_request key are pull requests in disguise and are
// filtered out.
func (c *GitHubClient) FetchIssues(ctx context.Context, owner, repo string, since time.Time) ([]*models.Issue, error) {
	repositoryID := owner + "/" + repo
	var issues []*models.Issue

	for page := 1; page <= githubMaxPages; page++ {
		params := url.Values{}
		params.Set("state", "all")
		params.Set("since", since.Format(time.RFC3339))
		params.Set("sort", "updated")
		params.Set("direction", "desc")
		params.Set("per_page", strconv.Itoa(githubPageSize))
		params.Set("page", strconv.Itoa(page))

		var raw []*github.Issue
		found, err := c.transport.Get(ctx, fmt.Sprintf("/repos/%s/%s/issues", owner, repo), params, &raw)
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s (page %d): %w", repositoryID, page, err)
		}
		if !found || len(raw) == 0 {
			break
		}

		for _, ri := range raw {
			if ri.PullRequestLinks != nil {
				continue
			}
			issues = append(issues, decodeIssue(repositoryID, ri))
		}

		if len(raw) < githubPageSize {
			break
		}
	}

	logger.Debugf("fetched %d issues for %s", len(issues), repositoryID)
	return issues, nil
}

// decodeCommit maps one vendor commit payload into a domain record.
// Missing optional fields get named defaults, never a panic.
func decodeCommit(repositoryID string, rc *github.RepositoryCommit) *models.Commit {
	commit := &models.Commit{
		RepositoryID:   repositoryID,
		SHA:            rc.GetSHA(),
		AuthorLogin:    models.UnknownLogin,
		URL:            rc.GetHTMLURL(),
		FileExtensions: make(map[string]int),
	}

	if login := rc.GetAuthor().GetLogin(); login != "" {
		commit.AuthorLogin = login
	}
	commit.CommitterLogin = rc.GetCommitter().GetLogin()

	if gc := rc.GetCommit(); gc != nil {
		commit.FullMessage = gc.GetMessage()
		commit.Message = firstLine(commit.FullMessage)
		if author := gc.GetAuthor(); author != nil {
			commit.AuthorEmail = author.GetEmail()
			commit.Date = author.GetDate().Time
		}
	}

	return commit
}

// applyCommitStats copies stats from the commit detail payload
func applyCommitStats(commit *models.Commit, detail *github.RepositoryCommit) {
	if stats := detail.GetStats(); stats != nil {
		commit.Additions = stats.GetAdditions()
		commit.Deletions = stats.GetDeletions()
	}
	commit.FilesChanged = len(detail.Files)
	for _, file := range detail.Files {
		if ext := fileExtension(file.GetFilename()); ext != "" {
			commit.FileExtensions[ext]++
		}
	}
}

// decodePullRequest maps one vendor pull request payload into a domain record
func decodePullRequest(repositoryID string, rp *github.PullRequest) *models.PullRequest {
	pr := &models.PullRequest{
		RepositoryID: repositoryID,
		Number:       rp.GetNumber(),
		Title:        rp.GetTitle(),
		State:        rp.GetState(),
		AuthorLogin:  models.UnknownLogin,
		CreatedAt:    rp.GetCreatedAt().Time,
		UpdatedAt:    rp.GetUpdatedAt().Time,
		Draft:        rp.GetDraft(),
		BaseBranch:   rp.GetBase().GetRef(),
		HeadBranch:   rp.GetHead().GetRef(),
		URL:          rp.GetHTMLURL(),
	}

	if login := rp.GetUser().GetLogin(); login != "" {
		pr.AuthorLogin = login
	}
	if rp.ClosedAt != nil {
		closedAt := rp.ClosedAt.Time
		pr.ClosedAt = &closedAt
	}
	if rp.MergedAt != nil {
		mergedAt := rp.MergedAt.Time
		pr.MergedAt = &mergedAt
	}
	for _, label := range rp.Labels {
		pr.Labels = append(pr.Labels, label.GetName())
	}
	pr.Reviewers = len(rp.RequestedReviewers)

	return pr
}

// applyReviews folds review outcomes into the pull request record
func applyReviews(pr *models.PullRequest, reviews []*github.PullRequestReview) {
	authors := make(map[string]struct{})

	for _, review := range reviews {
		switch review.GetState() {
		case "APPROVED":
			pr.Approvals++
		case "CHANGES_REQUESTED":
			pr.ChangesRequested++
		}
		if login := review.GetUser().GetLogin(); login != "" {
			if _, seen := authors[login]; !seen {
				authors[login] = struct{}{}
				pr.ReviewerLogins = append(pr.ReviewerLogins, login)
			}
		}
	}

	// Review authors beyond the requested set still count toward the tally
	if len(authors) > pr.Reviewers {
		pr.Reviewers = len(authors)
	}
}

// decodeIssue maps one vendor issue payload into a domain record
func decodeIssue(repositoryID string, ri *github.Issue) *models.Issue {
	issue := &models.Issue{
		RepositoryID: repositoryID,
		Number:       ri.GetNumber(),
		Title:        ri.GetTitle(),
		State:        ri.GetState(),
		AuthorLogin:  models.UnknownLogin,
		CreatedAt:    ri.GetCreatedAt().Time,
		UpdatedAt:    ri.GetUpdatedAt().Time,
		Comments:     ri.GetComments(),
		URL:          ri.GetHTMLURL(),
	}

	if login := ri.GetUser().GetLogin(); login != "" {
		issue.AuthorLogin = login
	}
	if ri.ClosedAt != nil {
		closedAt := ri.ClosedAt.Time
		issue.ClosedAt = &closedAt
	}
	for _, label := range ri.Labels {
		issue.Labels = append(issue.Labels, label.GetName())
	}
	for _, assignee := range ri.Assignees {
		if login := assignee.GetLogin(); login != "" {
			issue.Assignees = append(issue.Assignees, login)
		}
	}

	return issue
}

// firstLine returns the first line of a commit message
func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return strings.TrimRight(message[:idx], "\r")
	}
	return message
}

// fileExtension returns the extension without the leading dot, lowercased
func fileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
