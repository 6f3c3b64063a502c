package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devlens/devlens/internal/clients"
	"github.com/devlens/devlens/internal/export"
	"github.com/devlens/devlens/internal/models"
	"github.com/devlens/devlens/pkg/logger"
)

// RunSummary describes one completed analysis run
type RunSummary struct {
	RunID               string
	WindowStart         time.Time
	Repositories        int
	SkippedRepositories []string
	Commits             int
	PullRequests        int
	Issues              int
	JiraProjects        int
	SkippedProjects     []string
	JiraIssues          int
	JiraComments        int
	RateLimited         bool
	Duration            time.Duration
}

// AnalysisService orchestrates one full run: extraction from both
// sources, metric computation, and report export
type AnalysisService struct {
	github       *clients.GitHubClient
	jira         *clients.JiraClient // nil when Jira is not configured
	repoAnalyzer *RepositoryAnalyzer
	contributors *ContributorService
	jiraAnalyzer *JiraAnalyzer
	exporter     *export.Exporter
	analysisDays int
	now          func() time.Time
}

func NewAnalysisService(github *clients.GitHubClient, jira *clients.JiraClient, exporter *export.Exporter, analysisDays int) *AnalysisService {
	return &AnalysisService{
		github:       github,
		jira:         jira,
		repoAnalyzer: NewRepositoryAnalyzer(),
		contributors: NewContributorService(analysisDays),
		jiraAnalyzer: NewJiraAnalyzer(),
		exporter:     exporter,
		analysisDays: analysisDays,
		now:          time.Now,
	}
}

// Run extracts, analyzes and exports everything for the configured
// targets. A rate-limit error aborts extraction of the remaining targets
// but everything already fetched is still analyzed and exported.
func (s *AnalysisService) Run(ctx context.Context, repositories, projects []string) (*RunSummary, error) {
	started := s.now()
	summary := &RunSummary{
		RunID:        uuid.New().String(),
		WindowStart:  started.AddDate(0, 0, -s.analysisDays),
		Repositories: len(repositories),
	}

	logger.WithFields(map[string]interface{}{
		"run_id":       summary.RunID,
		"window_start": summary.WindowStart.Format(time.RFC3339),
		"repositories": len(repositories),
	}).Info("Starting analysis run")

	var (
		allCommits      []*models.Commit
		allPullRequests []*models.PullRequest
		allIssues       []*models.Issue
		repoStats       []*models.RepositoryStats
		qualityMetrics  []*models.QualityMetrics
	)

	for _, repository := range repositories {
		if summary.RateLimited {
			summary.SkippedRepositories = append(summary.SkippedRepositories, repository)
			continue
		}

		owner, name, ok := splitRepository(repository)
		if !ok {
			logger.Warnf("Skipping repository %s: expected owner/name format", repository)
			summary.SkippedRepositories = append(summary.SkippedRepositories, repository)
			continue
		}

		commits, pullRequests, issues, err := s.extractRepository(ctx, owner, name, summary.WindowStart)
		if err != nil {
			var rateLimitErr *clients.RateLimitError
			if errors.As(err, &rateLimitErr) {
				logger.WithField("reset_at", rateLimitErr.ResetAt.Format(time.RFC3339)).
					Errorf("Rate limit exhausted on %s, aborting remaining extraction", repository)
				summary.RateLimited = true
				summary.SkippedRepositories = append(summary.SkippedRepositories, repository)
				continue
			}
			logger.WithError(err).Warnf("Skipping repository %s", repository)
			summary.SkippedRepositories = append(summary.SkippedRepositories, repository)
			continue
		}

		allCommits = append(allCommits, commits...)
		allPullRequests = append(allPullRequests, pullRequests...)
		allIssues = append(allIssues, issues...)

		repoStats = append(repoStats, s.repoAnalyzer.AnalyzeRepository(repository, commits, pullRequests, issues))
		qualityMetrics = append(qualityMetrics, s.repoAnalyzer.AnalyzeQuality(repository, commits, pullRequests))

		logger.WithFields(map[string]interface{}{
			"repository":    repository,
			"commits":       len(commits),
			"pull_requests": len(pullRequests),
			"issues":        len(issues),
		}).Info("Repository extracted")
	}

	summary.Commits = len(allCommits)
	summary.PullRequests = len(allPullRequests)
	summary.Issues = len(allIssues)

	contributorStats := s.contributors.BuildContributorStats(allCommits, allPullRequests, allIssues)
	productivity := s.contributors.AnalyzeProductivity(contributorStats)

	jiraIssues, jiraComments := s.extractJira(ctx, projects, summary)

	metricsByKey := make(map[string]*models.IssueMetrics, len(jiraIssues))
	commentsByIssue := make(map[string][]*models.JiraComment)
	for _, comment := range jiraComments {
		commentsByIssue[comment.IssueKey] = append(commentsByIssue[comment.IssueKey], comment)
	}
	for _, issue := range jiraIssues {
		metricsByKey[issue.Key] = s.jiraAnalyzer.AnalyzeIssue(issue, commentsByIssue[issue.Key])
	}

	if err := s.exportAll(allCommits, allPullRequests, allIssues, repoStats, qualityMetrics,
		productivity, contributorStats, jiraIssues, jiraComments, metricsByKey); err != nil {
		return summary, err
	}

	summary.Duration = s.now().Sub(started)
	return summary, nil
}

// extractRepository fetches commits, pull requests and issues for one
// repository within the analysis window
func (s *AnalysisService) extractRepository(ctx context.Context, owner, name string, since time.Time) ([]*models.Commit, []*models.PullRequest, []*models.Issue, error) {
	commits, err := s.github.FetchCommits(ctx, owner, name, since)
	if err != nil {
		return nil, nil, nil, err
	}
	pullRequests, err := s.github.FetchPullRequests(ctx, owner, name, since)
	if err != nil {
		return nil, nil, nil, err
	}
	issues, err := s.github.FetchIssues(ctx, owner, name, since)
	if err != nil {
		return nil, nil, nil, err
	}
	return commits, pullRequests, issues, nil
}

// extractJira fetches issues and comments per configured project. Each
// project fails independently; a rate limit aborts the remaining ones.
func (s *AnalysisService) extractJira(ctx context.Context, projects []string, summary *RunSummary) ([]*models.JiraIssue, []*models.JiraComment) {
	if s.jira == nil || len(projects) == 0 {
		return nil, nil
	}
	summary.JiraProjects = len(projects)

	var (
		allIssues   []*models.JiraIssue
		allComments []*models.JiraComment
	)

	for _, project := range projects {
		if summary.RateLimited {
			summary.SkippedProjects = append(summary.SkippedProjects, project)
			continue
		}

		issues, err := s.jira.SearchIssues(ctx, []string{project}, summary.WindowStart)
		if err != nil {
			var rateLimitErr *clients.RateLimitError
			if errors.As(err, &rateLimitErr) {
				logger.Errorf("Rate limit exhausted on Jira project %s, aborting remaining extraction", project)
				summary.RateLimited = true
				summary.SkippedProjects = append(summary.SkippedProjects, project)
				continue
			}
			logger.WithError(err).Warnf("Skipping Jira project %s", project)
			summary.SkippedProjects = append(summary.SkippedProjects, project)
			continue
		}

		commentCount := 0
		for _, issue := range issues {
			comments, err := s.jira.FetchComments(ctx, issue.Key)
			if err != nil {
				var rateLimitErr *clients.RateLimitError
				if errors.As(err, &rateLimitErr) {
					logger.Errorf("Rate limit exhausted fetching comments for %s, aborting remaining extraction", issue.Key)
					summary.RateLimited = true
					break
				}
				logger.WithError(err).Warnf("Skipping comments for %s", issue.Key)
				continue
			}
			allComments = append(allComments, comments...)
			commentCount += len(comments)
		}

		allIssues = append(allIssues, issues...)
		logger.WithFields(map[string]interface{}{
			"project":  project,
			"issues":   len(issues),
			"comments": commentCount,
		}).Info("Jira project extracted")
	}

	summary.JiraIssues = len(allIssues)
	summary.JiraComments = len(allComments)
	return allIssues, allComments
}

// exportAll writes every report. GitHub reports are always written;
// Jira reports only when the Jira phase produced issues.
func (s *AnalysisService) exportAll(
	commits []*models.Commit,
	pullRequests []*models.PullRequest,
	issues []*models.Issue,
	repoStats []*models.RepositoryStats,
	qualityMetrics []*models.QualityMetrics,
	productivity []*models.ProductivityAnalysis,
	contributorStats map[string]*models.ContributorStats,
	jiraIssues []*models.JiraIssue,
	jiraComments []*models.JiraComment,
	metricsByKey map[string]*models.IssueMetrics,
) error {
	if err := s.exporter.ExportCommits(commits); err != nil {
		return err
	}
	if err := s.exporter.ExportPullRequests(pullRequests); err != nil {
		return err
	}
	if err := s.exporter.ExportIssues(issues); err != nil {
		return err
	}
	if err := s.exporter.ExportRepositorySummary(repoStats); err != nil {
		return err
	}
	if err := s.exporter.ExportQualityMetrics(qualityMetrics); err != nil {
		return err
	}
	if err := s.exporter.ExportProductivity(productivity); err != nil {
		return err
	}
	if err := s.exporter.ExportContributorsSummary(contributorStats); err != nil {
		return err
	}

	if len(jiraIssues) == 0 {
		return nil
	}

	if err := s.exporter.ExportJiraIssues(jiraIssues, metricsByKey); err != nil {
		return err
	}
	if err := s.exporter.ExportJiraComments(jiraComments); err != nil {
		return err
	}
	if err := s.exporter.ExportJiraProjectMetrics(s.jiraAnalyzer.AnalyzeProjects(jiraIssues, metricsByKey)); err != nil {
		return err
	}
	if err := s.exporter.ExportJiraPersonMetrics(s.jiraAnalyzer.AnalyzePersons(jiraIssues)); err != nil {
		return err
	}
	return s.exporter.ExportJiraTypeMetrics(s.jiraAnalyzer.AnalyzeTypes(jiraIssues))
}

// splitRepository splits an "owner/name" identifier
func splitRepository(repository string) (string, string, bool) {
	parts := strings.SplitN(repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
