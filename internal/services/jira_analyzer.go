package services

import (
	"sort"
	"strings"
	"time"

	"github.com/devlens/devlens/internal/models"
)

// Description quality weights: 40 for adequate length, 40 for an
// acceptance-criteria section, up to 20 for structural formatting.
const (
	descLengthFull    = 40.0
	descLengthPartial = 25.0
	descLengthMinimal = 10.0
	descAcceptance    = 40.0
	descFormatting    = 10.0
)

// JiraAnalyzer computes per-issue metrics and the project, person and
// type rollups
type JiraAnalyzer struct {
	now func() time.Time
}

func NewJiraAnalyzer() *JiraAnalyzer {
	return &JiraAnalyzer{now: time.Now}
}

// AnalyzeIssue computes the metrics for one issue from the issue record
// and its comment stream
func (a *JiraAnalyzer) AnalyzeIssue(issue *models.JiraIssue, comments []*models.JiraComment) *models.IssueMetrics {
	metrics := &models.IssueMetrics{
		Key:          issue.Key,
		CommentCount: len(comments),
		Silent:       len(comments) == 0,
	}

	if cycleTime, ok := issue.CycleTimeDays(); ok {
		metrics.CycleTimeDays = &cycleTime
		metrics.SameDayResolution = cycleTime < 1
	} else {
		age := issue.AgeDays(a.now())
		metrics.AgeDays = &age
	}

	metrics.DescriptionQuality = scoreDescription(issue.Description)
	metrics.CrossTeamScore = crossTeamScore(distinctCommentAuthors(comments))

	if first := earliestComment(comments); first != nil {
		hours := first.CreatedAt.Sub(issue.CreatedAt).Hours()
		metrics.FirstCommentHours = &hours
	}

	// Reopen transitions are not visible in the search payload; the
	// count stays 0 until changelog expansion is wired in.
	metrics.ReopenCount = 0

	return metrics
}

// AnalyzeProjects rolls issue metrics up into one row per project key
func (a *JiraAnalyzer) AnalyzeProjects(issues []*models.JiraIssue, metricsByKey map[string]*models.IssueMetrics) []*models.ProjectMetrics {
	grouped := make(map[string][]*models.JiraIssue)
	for _, issue := range issues {
		grouped[issue.ProjectKey] = append(grouped[issue.ProjectKey], issue)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	results := make([]*models.ProjectMetrics, 0, len(keys))
	for _, key := range keys {
		projectIssues := grouped[key]
		pm := &models.ProjectMetrics{ProjectKey: key, Issues: len(projectIssues)}

		cycleTotal := 0.0
		descTotal := 0.0
		commentTotal := 0
		velocityTotal := 0.0
		velocityCount := 0
		sameDay := 0
		silent := 0
		reopened := 0

		for _, issue := range projectIssues {
			if issue.IsResolved() {
				pm.Resolved++
			} else {
				pm.Unresolved++
			}
			if issue.IsBug() {
				pm.Bugs++
			}

			im := metricsByKey[issue.Key]
			if im == nil {
				continue
			}
			if im.CycleTimeDays != nil {
				cycleTotal += *im.CycleTimeDays
			}
			if im.SameDayResolution {
				sameDay++
			}
			if im.Silent {
				silent++
			}
			if im.ReopenCount > 0 {
				reopened++
			}
			if im.FirstCommentHours != nil {
				velocityTotal += *im.FirstCommentHours
				velocityCount++
			}
			descTotal += im.DescriptionQuality
			commentTotal += im.CommentCount
		}

		pm.BugRatio = percentage(pm.Bugs, pm.Issues)
		pm.SameDayResolutionRate = percentage(sameDay, pm.Resolved)
		pm.SilentIssueRatio = percentage(silent, pm.Issues)
		pm.ReopenRate = percentage(reopened, pm.Issues)
		if pm.Resolved > 0 {
			pm.AvgCycleTimeDays = cycleTotal / float64(pm.Resolved)
		}
		if pm.Issues > 0 {
			pm.AvgDescriptionQuality = descTotal / float64(pm.Issues)
			pm.AvgCommentsPerIssue = float64(commentTotal) / float64(pm.Issues)
		}
		if velocityCount > 0 {
			pm.AvgCommentVelocityHrs = velocityTotal / float64(velocityCount)
		}

		results = append(results, pm)
	}

	return results
}

// AnalyzePersons rolls issues up per assignee. Unassigned issues are
// excluded from this output entirely.
func (a *JiraAnalyzer) AnalyzePersons(issues []*models.JiraIssue) []*models.PersonMetrics {
	grouped := make(map[string][]*models.JiraIssue)
	for _, issue := range issues {
		if issue.Assignee == "" {
			continue
		}
		grouped[issue.Assignee] = append(grouped[issue.Assignee], issue)
	}

	assignees := make([]string, 0, len(grouped))
	for assignee := range grouped {
		assignees = append(assignees, assignee)
	}
	sort.Strings(assignees)

	results := make([]*models.PersonMetrics, 0, len(assignees))
	for _, assignee := range assignees {
		personIssues := grouped[assignee]
		pm := &models.PersonMetrics{Assignee: assignee, TotalAssigned: len(personIssues)}

		cycleTotal := 0.0
		for _, issue := range personIssues {
			if cycleTime, ok := issue.CycleTimeDays(); ok {
				pm.Resolved++
				cycleTotal += cycleTime
			} else {
				pm.InProgress++
			}
			if issue.IsBug() {
				pm.Bugs++
			}
		}
		if pm.Resolved > 0 {
			pm.AvgCycleTimeDays = cycleTotal / float64(pm.Resolved)
		}

		results = append(results, pm)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalAssigned > results[j].TotalAssigned
	})

	return results
}

// AnalyzeTypes rolls issues up per issue type. The bug-specific average
// resolution time is populated only for the "Bug" type.
func (a *JiraAnalyzer) AnalyzeTypes(issues []*models.JiraIssue) []*models.TypeMetrics {
	grouped := make(map[string][]*models.JiraIssue)
	for _, issue := range issues {
		issueType := issue.IssueType
		if issueType == "" {
			issueType = "Unknown"
		}
		grouped[issueType] = append(grouped[issueType], issue)
	}

	types := make([]string, 0, len(grouped))
	for issueType := range grouped {
		types = append(types, issueType)
	}
	sort.Strings(types)

	results := make([]*models.TypeMetrics, 0, len(types))
	for _, issueType := range types {
		typeIssues := grouped[issueType]
		tm := &models.TypeMetrics{IssueType: issueType, Count: len(typeIssues)}

		cycleTotal := 0.0
		for _, issue := range typeIssues {
			if cycleTime, ok := issue.CycleTimeDays(); ok {
				tm.Resolved++
				cycleTotal += cycleTime
			}
		}
		if tm.Resolved > 0 {
			tm.AvgCycleTimeDays = cycleTotal / float64(tm.Resolved)
		}
		if strings.EqualFold(issueType, "Bug") && tm.Resolved > 0 {
			avg := tm.AvgCycleTimeDays
			tm.AvgBugResolutionDays = &avg
		}

		results = append(results, tm)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Count > results[j].Count
	})

	return results
}

// scoreDescription scores a description's usefulness on a 0-100 scale
func scoreDescription(description string) float64 {
	text := strings.TrimSpace(description)
	if text == "" {
		return 0
	}

	score := 0.0
	switch {
	case len(text) >= 200:
		score += descLengthFull
	case len(text) >= 80:
		score += descLengthPartial
	case len(text) >= 20:
		score += descLengthMinimal
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "acceptance criteria") ||
		(strings.Contains(lower, "given") && strings.Contains(lower, "when") && strings.Contains(lower, "then")) {
		score += descAcceptance
	}

	if strings.Contains(text, "\n- ") || strings.Contains(text, "\n* ") || strings.HasPrefix(text, "- ") {
		score += descFormatting
	}
	if strings.Contains(text, "\n\n") || strings.Contains(text, "\nh1.") || strings.Contains(text, "# ") {
		score += descFormatting
	}

	if score > 100 {
		score = 100
	}
	return score
}

// crossTeamScore maps the count of distinct comment authors onto a
// stepped 0-100 scale
func crossTeamScore(distinctAuthors int) float64 {
	switch {
	case distinctAuthors <= 0:
		return 0
	case distinctAuthors == 1:
		return 25
	case distinctAuthors == 2:
		return 50
	case distinctAuthors == 3:
		return 75
	default:
		return 100
	}
}

// distinctCommentAuthors counts unique non-empty comment author names
func distinctCommentAuthors(comments []*models.JiraComment) int {
	authors := make(map[string]struct{})
	for _, comment := range comments {
		if comment.Author != "" {
			authors[comment.Author] = struct{}{}
		}
	}
	return len(authors)
}

// earliestComment returns the oldest comment, or nil for an empty stream
func earliestComment(comments []*models.JiraComment) *models.JiraComment {
	var earliest *models.JiraComment
	for _, comment := range comments {
		if comment.CreatedAt.IsZero() {
			continue
		}
		if earliest == nil || comment.CreatedAt.Before(earliest.CreatedAt) {
			earliest = comment
		}
	}
	return earliest
}
