package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/devlens/devlens/internal/models"
	"github.com/devlens/devlens/pkg/logger"
)

// Exporter writes every report kind as CSV and optionally mirrors the
// same tables into an Excel workbook. Column names and ordering are part
// of the contract with downstream consumers.
type Exporter struct {
	csv   *CSVWriter
	excel *ExcelWriter // nil when the workbook export is disabled
}

func NewExporter(csv *CSVWriter, excel *ExcelWriter) *Exporter {
	return &Exporter{csv: csv, excel: excel}
}

// Close finalizes the Excel workbook when one was requested
func (e *Exporter) Close() error {
	if e.excel == nil {
		return nil
	}
	return e.excel.Save()
}

func (e *Exporter) write(name string, header []string, rows [][]string) error {
	path, err := e.csv.WriteFile(name, header, rows)
	if err != nil {
		return err
	}
	logger.Infof("wrote %s (%d rows)", path, len(rows))
	if e.excel != nil {
		return e.excel.AddSheet(name, header, rows)
	}
	return nil
}

// ExportCommits writes the commits report
func (e *Exporter) ExportCommits(commits []*models.Commit) error {
	header := []string{
		"repository", "sha", "short_sha", "author_login", "author_email",
		"committer_login", "date", "message", "additions", "deletions",
		"total_changes", "files_changed", "is_merge", "is_revert",
		"top_extensions", "url",
	}
	rows := make([][]string, 0, len(commits))
	for _, c := range commits {
		rows = append(rows, []string{
			c.RepositoryID, c.SHA, c.ShortSHA(), c.AuthorLogin, c.AuthorEmail,
			c.CommitterLogin, formatTime(c.Date), c.Message,
			strconv.Itoa(c.Additions), strconv.Itoa(c.Deletions),
			strconv.Itoa(c.TotalChanges()), strconv.Itoa(c.FilesChanged),
			formatBool(c.IsMergeCommit()), formatBool(c.IsRevert()),
			formatExtensions(c.FileExtensions), c.URL,
		})
	}
	return e.write("commits", header, rows)
}

// ExportPullRequests writes the pull_requests report
func (e *Exporter) ExportPullRequests(pullRequests []*models.PullRequest) error {
	header := []string{
		"repository", "number", "title", "state", "author_login",
		"created_at", "updated_at", "closed_at", "merged_at", "is_merged",
		"is_draft", "time_to_merge_hours", "additions", "deletions",
		"changed_files", "commits", "comments", "review_comments",
		"reviewers", "approvals", "changes_requested", "labels",
		"base_branch", "head_branch", "url",
	}
	rows := make([][]string, 0, len(pullRequests))
	for _, pr := range pullRequests {
		timeToMerge := ""
		if hours, ok := pr.TimeToMergeHours(); ok {
			timeToMerge = formatFloat(hours)
		}
		rows = append(rows, []string{
			pr.RepositoryID, strconv.Itoa(pr.Number), pr.Title, pr.State, pr.AuthorLogin,
			formatTime(pr.CreatedAt), formatTime(pr.UpdatedAt),
			formatOptionalTime(pr.ClosedAt), formatOptionalTime(pr.MergedAt),
			formatBool(pr.IsMerged()), formatBool(pr.Draft), timeToMerge,
			strconv.Itoa(pr.Additions), strconv.Itoa(pr.Deletions),
			strconv.Itoa(pr.ChangedFiles), strconv.Itoa(pr.Commits),
			strconv.Itoa(pr.Comments), strconv.Itoa(pr.ReviewComments),
			strconv.Itoa(pr.Reviewers), strconv.Itoa(pr.Approvals),
			strconv.Itoa(pr.ChangesRequested), strings.Join(pr.Labels, ";"),
			pr.BaseBranch, pr.HeadBranch, pr.URL,
		})
	}
	return e.write("pull_requests", header, rows)
}

// ExportIssues writes the issues report
func (e *Exporter) ExportIssues(issues []*models.Issue) error {
	header := []string{
		"repository", "number", "title", "state", "author_login",
		"created_at", "updated_at", "closed_at", "time_to_close_hours",
		"comments", "labels", "assignees", "is_bug", "is_enhancement", "url",
	}
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		timeToClose := ""
		if hours, ok := issue.TimeToCloseHours(); ok {
			timeToClose = formatFloat(hours)
		}
		rows = append(rows, []string{
			issue.RepositoryID, strconv.Itoa(issue.Number), issue.Title, issue.State,
			issue.AuthorLogin, formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt),
			formatOptionalTime(issue.ClosedAt), timeToClose,
			strconv.Itoa(issue.Comments), strings.Join(issue.Labels, ";"),
			strings.Join(issue.Assignees, ";"), formatBool(issue.IsBug()),
			formatBool(issue.IsEnhancement()), issue.URL,
		})
	}
	return e.write("issues", header, rows)
}

// ExportRepositorySummary writes the repository_summary report
func (e *Exporter) ExportRepositorySummary(stats []*models.RepositoryStats) error {
	header := []string{
		"repository", "commits", "merge_commits", "revert_commits",
		"unique_authors", "additions", "deletions", "avg_commit_size",
		"pull_requests", "merged_prs", "open_prs", "merge_rate",
		"avg_time_to_merge_hours", "issues", "closed_issues", "close_rate",
		"bugs", "enhancements",
	}
	rows := make([][]string, 0, len(stats))
	for _, rs := range stats {
		rows = append(rows, []string{
			rs.RepositoryID, strconv.Itoa(rs.Commits), strconv.Itoa(rs.MergeCommits),
			strconv.Itoa(rs.RevertCommits), strconv.Itoa(rs.UniqueAuthors),
			strconv.Itoa(rs.Additions), strconv.Itoa(rs.Deletions),
			formatFloat(rs.AvgCommitSize), strconv.Itoa(rs.PullRequests),
			strconv.Itoa(rs.MergedPRs), strconv.Itoa(rs.OpenPRs),
			formatFloat(rs.MergeRate), formatFloat(rs.AvgTimeToMerge),
			strconv.Itoa(rs.Issues), strconv.Itoa(rs.ClosedIssues),
			formatFloat(rs.CloseRate), strconv.Itoa(rs.Bugs), strconv.Itoa(rs.Enhancements),
		})
	}
	return e.write("repository_summary", header, rows)
}

// ExportQualityMetrics writes the quality_metrics report
func (e *Exporter) ExportQualityMetrics(metrics []*models.QualityMetrics) error {
	header := []string{
		"repository", "revert_ratio", "commit_message_quality",
		"large_commit_ratio", "pr_review_coverage", "pr_approval_rate",
		"changes_requested_ratio", "draft_pr_ratio", "quality_score",
	}
	rows := make([][]string, 0, len(metrics))
	for _, qm := range metrics {
		rows = append(rows, []string{
			qm.RepositoryID, formatFloat(qm.RevertRatio), formatFloat(qm.CommitMessageQuality),
			formatFloat(qm.LargeCommitRatio), formatFloat(qm.PRReviewCoverage),
			formatFloat(qm.PRApprovalRate), formatFloat(qm.ChangesRequestedRatio),
			formatFloat(qm.DraftPRRatio), formatFloat(qm.QualityScore),
		})
	}
	return e.write("quality_metrics", header, rows)
}

// ExportProductivity writes the productivity_analysis report, ranked
func (e *Exporter) ExportProductivity(analysis []*models.ProductivityAnalysis) error {
	header := []string{
		"rank", "login", "score", "commits", "prs_merged", "prs_reviewed",
		"active_days", "consistency_pct", "repositories",
	}
	rows := make([][]string, 0, len(analysis))
	for _, pa := range analysis {
		rows = append(rows, []string{
			strconv.Itoa(pa.Rank), pa.Login, formatFloat(pa.Score),
			strconv.Itoa(pa.Commits), strconv.Itoa(pa.PRsMerged),
			strconv.Itoa(pa.PRsReviewed), strconv.Itoa(pa.ActiveDays),
			formatFloat(pa.ConsistencyPct), strconv.Itoa(pa.RepositoriesCount),
		})
	}
	return e.write("productivity_analysis", header, rows)
}

// ExportContributorsSummary writes the contributors_summary report,
// sorted by login for reproducible output
func (e *Exporter) ExportContributorsSummary(stats map[string]*models.ContributorStats) error {
	header := []string{
		"login", "repositories", "commits", "additions", "deletions",
		"avg_commit_size", "prs_opened", "prs_merged", "prs_reviewed",
		"issues_opened", "issues_closed", "active_days",
		"first_activity", "last_activity",
	}

	logins := make([]string, 0, len(stats))
	for login := range stats {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	rows := make([][]string, 0, len(logins))
	for _, login := range logins {
		cs := stats[login]
		rows = append(rows, []string{
			cs.Login, strconv.Itoa(len(cs.Repositories)), strconv.Itoa(cs.Commits),
			strconv.Itoa(cs.Additions), strconv.Itoa(cs.Deletions),
			formatFloat(cs.AvgCommitSize()), strconv.Itoa(cs.PRsOpened),
			strconv.Itoa(cs.PRsMerged), strconv.Itoa(cs.PRsReviewed),
			strconv.Itoa(cs.IssuesOpened), strconv.Itoa(cs.IssuesClosed),
			strconv.Itoa(len(cs.ActiveDays)),
			formatTime(cs.FirstActivity), formatTime(cs.LastActivity),
		})
	}
	return e.write("contributors_summary", header, rows)
}

// ExportJiraIssues writes the jira_issues report, with the per-issue
// metrics columns when metrics are available
func (e *Exporter) ExportJiraIssues(issues []*models.JiraIssue, metricsByKey map[string]*models.IssueMetrics) error {
	header := []string{
		"key", "project", "summary", "status", "issue_type", "priority",
		"assignee", "reporter", "created_at", "updated_at", "resolved_at",
		"cycle_time_days", "age_days", "same_day_resolution",
		"description_quality", "cross_team_score", "silent",
		"comment_count", "first_comment_hours", "reopen_count",
	}
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		row := []string{
			issue.Key, issue.ProjectKey, issue.Summary, issue.Status,
			issue.IssueType, issue.Priority, issue.Assignee, issue.Reporter,
			formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt),
			formatOptionalTime(issue.ResolvedAt),
			"", "", "", "", "", "", "", "", "",
		}
		if im := metricsByKey[issue.Key]; im != nil {
			row[11] = formatOptionalFloat(im.CycleTimeDays)
			row[12] = formatOptionalFloat(im.AgeDays)
			row[13] = formatBool(im.SameDayResolution)
			row[14] = formatFloat(im.DescriptionQuality)
			row[15] = formatFloat(im.CrossTeamScore)
			row[16] = formatBool(im.Silent)
			row[17] = strconv.Itoa(im.CommentCount)
			row[18] = formatOptionalFloat(im.FirstCommentHours)
			row[19] = strconv.Itoa(im.ReopenCount)
		}
		rows = append(rows, row)
	}
	return e.write("jira_issues", header, rows)
}

// ExportJiraComments writes the jira_comments report
func (e *Exporter) ExportJiraComments(comments []*models.JiraComment) error {
	header := []string{"id", "issue_key", "author", "created_at", "body"}
	rows := make([][]string, 0, len(comments))
	for _, comment := range comments {
		rows = append(rows, []string{
			comment.ID, comment.IssueKey, comment.Author,
			formatTime(comment.CreatedAt), comment.Body,
		})
	}
	return e.write("jira_comments", header, rows)
}

// ExportJiraProjectMetrics writes the jira_project_metrics report
func (e *Exporter) ExportJiraProjectMetrics(metrics []*models.ProjectMetrics) error {
	header := []string{
		"project", "issues", "resolved", "unresolved", "bugs", "bug_ratio",
		"same_day_resolution_rate", "avg_cycle_time_days",
		"avg_description_quality", "silent_issue_ratio",
		"avg_comments_per_issue", "avg_comment_velocity_hours", "reopen_rate",
	}
	rows := make([][]string, 0, len(metrics))
	for _, pm := range metrics {
		rows = append(rows, []string{
			pm.ProjectKey, strconv.Itoa(pm.Issues), strconv.Itoa(pm.Resolved),
			strconv.Itoa(pm.Unresolved), strconv.Itoa(pm.Bugs),
			formatFloat(pm.BugRatio), formatFloat(pm.SameDayResolutionRate),
			formatFloat(pm.AvgCycleTimeDays), formatFloat(pm.AvgDescriptionQuality),
			formatFloat(pm.SilentIssueRatio), formatFloat(pm.AvgCommentsPerIssue),
			formatFloat(pm.AvgCommentVelocityHrs), formatFloat(pm.ReopenRate),
		})
	}
	return e.write("jira_project_metrics", header, rows)
}

// ExportJiraPersonMetrics writes the jira_person_metrics report
func (e *Exporter) ExportJiraPersonMetrics(metrics []*models.PersonMetrics) error {
	header := []string{
		"assignee", "in_progress", "resolved", "total_assigned",
		"avg_cycle_time_days", "bugs",
	}
	rows := make([][]string, 0, len(metrics))
	for _, pm := range metrics {
		rows = append(rows, []string{
			pm.Assignee, strconv.Itoa(pm.InProgress), strconv.Itoa(pm.Resolved),
			strconv.Itoa(pm.TotalAssigned), formatFloat(pm.AvgCycleTimeDays),
			strconv.Itoa(pm.Bugs),
		})
	}
	return e.write("jira_person_metrics", header, rows)
}

// ExportJiraTypeMetrics writes the jira_type_metrics report
func (e *Exporter) ExportJiraTypeMetrics(metrics []*models.TypeMetrics) error {
	header := []string{
		"issue_type", "count", "resolved", "avg_cycle_time_days",
		"avg_bug_resolution_days",
	}
	rows := make([][]string, 0, len(metrics))
	for _, tm := range metrics {
		rows = append(rows, []string{
			tm.IssueType, strconv.Itoa(tm.Count), strconv.Itoa(tm.Resolved),
			formatFloat(tm.AvgCycleTimeDays), formatOptionalFloat(tm.AvgBugResolutionDays),
		})
	}
	return e.write("jira_type_metrics", header, rows)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func formatOptionalFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return formatFloat(*value)
}

func formatBool(value bool) string {
	return strconv.FormatBool(value)
}

// formatExtensions renders the file-extension histogram as "ext:count"
// pairs, most frequent first
func formatExtensions(extensions map[string]int) string {
	if len(extensions) == 0 {
		return ""
	}
	type extCount struct {
		ext   string
		count int
	}
	pairs := make([]extCount, 0, len(extensions))
	for ext, count := range extensions {
		pairs = append(pairs, extCount{ext, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].ext < pairs[j].ext
	})
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, fmt.Sprintf("%s:%d", pair.ext, pair.count))
	}
	return strings.Join(parts, ";")
}
