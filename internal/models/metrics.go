package models

// RepositoryStats is the per-repository summary computed once per run
type RepositoryStats struct {
	RepositoryID   string  `json:"repository_id"`
	Commits        int     `json:"commits"`
	MergeCommits   int     `json:"merge_commits"`
	RevertCommits  int     `json:"revert_commits"`
	UniqueAuthors  int     `json:"unique_authors"`
	Additions      int     `json:"additions"`
	Deletions      int     `json:"deletions"`
	AvgCommitSize  float64 `json:"avg_commit_size"`
	PullRequests   int     `json:"pull_requests"`
	MergedPRs      int     `json:"merged_prs"`
	OpenPRs        int     `json:"open_prs"`
	MergeRate      float64 `json:"merge_rate"`
	AvgTimeToMerge float64 `json:"avg_time_to_merge_hours"`
	Issues         int     `json:"issues"`
	ClosedIssues   int     `json:"closed_issues"`
	CloseRate      float64 `json:"close_rate"`
	Bugs           int     `json:"bugs"`
	Enhancements   int     `json:"enhancements"`
}

// QualityMetrics is the per-repository quality composite. All sub-metrics
// are percentages in [0,100]; empty inputs default them to 0.
type QualityMetrics struct {
	RepositoryID          string  `json:"repository_id"`
	RevertRatio           float64 `json:"revert_ratio"`
	CommitMessageQuality  float64 `json:"commit_message_quality"`
	LargeCommitRatio      float64 `json:"large_commit_ratio"`
	PRReviewCoverage      float64 `json:"pr_review_coverage"`
	PRApprovalRate        float64 `json:"pr_approval_rate"`
	ChangesRequestedRatio float64 `json:"changes_requested_ratio"`
	DraftPRRatio          float64 `json:"draft_pr_ratio"`
	QualityScore          float64 `json:"quality_score"`
}

// ProductivityAnalysis is one ranked per-contributor output row
type ProductivityAnalysis struct {
	Login             string  `json:"login"`
	Commits           int     `json:"commits"`
	PRsMerged         int     `json:"prs_merged"`
	PRsReviewed       int     `json:"prs_reviewed"`
	ActiveDays        int     `json:"active_days"`
	ConsistencyPct    float64 `json:"consistency_pct"`
	RepositoriesCount int     `json:"repositories_count"`
	Score             float64 `json:"score"`
	Rank              int     `json:"rank"`
}

// IssueMetrics holds the per-issue Jira metrics computed from an issue
// and its comment stream
type IssueMetrics struct {
	Key                string   `json:"key"`
	CycleTimeDays      *float64 `json:"cycle_time_days"` // nil while unresolved
	AgeDays            *float64 `json:"age_days"`        // nil once resolved
	SameDayResolution  bool     `json:"same_day_resolution"`
	DescriptionQuality float64  `json:"description_quality"`
	CrossTeamScore     float64  `json:"cross_team_score"`
	Silent             bool     `json:"silent"`
	CommentCount       int      `json:"comment_count"`
	FirstCommentHours  *float64 `json:"first_comment_hours"` // nil when no comments
	ReopenCount        int      `json:"reopen_count"`
}

// ProjectMetrics is the per-Jira-project rollup
type ProjectMetrics struct {
	ProjectKey            string  `json:"project_key"`
	Issues                int     `json:"issues"`
	Resolved              int     `json:"resolved"`
	Unresolved            int     `json:"unresolved"`
	Bugs                  int     `json:"bugs"`
	BugRatio              float64 `json:"bug_ratio"`
	SameDayResolutionRate float64 `json:"same_day_resolution_rate"`
	AvgCycleTimeDays      float64 `json:"avg_cycle_time_days"`
	AvgDescriptionQuality float64 `json:"avg_description_quality"`
	SilentIssueRatio      float64 `json:"silent_issue_ratio"`
	AvgCommentsPerIssue   float64 `json:"avg_comments_per_issue"`
	AvgCommentVelocityHrs float64 `json:"avg_comment_velocity_hours"`
	ReopenRate            float64 `json:"reopen_rate"`
}

// PersonMetrics is the per-assignee rollup. Unassigned issues are
// excluded from this output entirely.
type PersonMetrics struct {
	Assignee         string  `json:"assignee"`
	InProgress       int     `json:"in_progress"`
	Resolved         int     `json:"resolved"`
	TotalAssigned    int     `json:"total_assigned"`
	AvgCycleTimeDays float64 `json:"avg_cycle_time_days"`
	Bugs             int     `json:"bugs"`
}

// TypeMetrics is the per-issue-type rollup. AvgBugResolutionDays is
// populated only for the "Bug" type.
type TypeMetrics struct {
	IssueType            string   `json:"issue_type"`
	Count                int      `json:"count"`
	Resolved             int      `json:"resolved"`
	AvgCycleTimeDays     float64  `json:"avg_cycle_time_days"`
	AvgBugResolutionDays *float64 `json:"avg_bug_resolution_days"`
}
