package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/devlens/devlens/internal/clients"
	"github.com/devlens/devlens/internal/export"
	"github.com/devlens/devlens/internal/services"
	"github.com/devlens/devlens/pkg/config"
	"github.com/devlens/devlens/pkg/logger"
)

func main() {
	logger.Init()

	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	githubClient := clients.NewGitHubClient(cfg.GitHub.Token)

	var jiraClient *clients.JiraClient
	if cfg.JiraEnabled() {
		jiraClient = clients.NewJiraClient(cfg.Jira.URL, cfg.Jira.Email, cfg.Jira.APIToken)
	} else {
		logger.Infof("Jira is not configured, skipping Jira extraction")
	}

	csvWriter := export.NewCSVWriter(cfg.Export.OutputDir)
	var excelWriter *export.ExcelWriter
	if cfg.Export.ExcelReport {
		excelWriter = export.NewExcelWriter(filepath.Join(cfg.Export.OutputDir, "devlens_report.xlsx"))
	}
	exporter := export.NewExporter(csvWriter, excelWriter)

	service := services.NewAnalysisService(githubClient, jiraClient, exporter, cfg.Analysis.Days)

	summary, err := service.Run(ctx, cfg.GitHub.Repositories, cfg.Jira.Projects)
	if err != nil {
		logger.Fatalf("Analysis run failed: %v", err)
	}
	if err := exporter.Close(); err != nil {
		logger.Fatalf("Failed to finalize report workbook: %v", err)
	}

	logger.WithFields(map[string]interface{}{
		"run_id":        summary.RunID,
		"commits":       summary.Commits,
		"pull_requests": summary.PullRequests,
		"issues":        summary.Issues,
		"jira_issues":   summary.JiraIssues,
		"jira_comments": summary.JiraComments,
		"duration":      summary.Duration.String(),
	}).Info("Analysis run complete")

	if len(summary.SkippedRepositories) > 0 {
		logger.Warnf("Skipped repositories: %v", summary.SkippedRepositories)
	}
	if len(summary.SkippedProjects) > 0 {
		logger.Warnf("Skipped Jira projects: %v", summary.SkippedProjects)
	}
	if summary.RateLimited {
		logger.Warnf("Run was cut short by a rate limit, reports contain partial data")
	}
}
