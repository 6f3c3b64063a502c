package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	GitHub   GitHubConfig
	Jira     JiraConfig
	Analysis AnalysisConfig
	Export   ExportConfig
}

type GitHubConfig struct {
	Token        string
	Repositories []string // "owner/name" entries
}

type JiraConfig struct {
	URL      string
	Email    string
	APIToken string
	Projects []string
}

type AnalysisConfig struct {
	Days int
}

type ExportConfig struct {
	OutputDir   string
	ExcelReport bool
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		GitHub: GitHubConfig{
			Token:        getEnv("GITHUB_TOKEN", ""),
			Repositories: getEnvAsList("GITHUB_REPOSITORIES"),
		},
		Jira: JiraConfig{
			URL:      getEnv("JIRA_URL", ""),
			Email:    getEnv("JIRA_EMAIL", ""),
			APIToken: getEnv("JIRA_API_TOKEN", ""),
			Projects: getEnvAsList("JIRA_PROJECTS"),
		},
		Analysis: AnalysisConfig{
			Days: getEnvAsInt("ANALYSIS_DAYS", 30),
		},
		Export: ExportConfig{
			OutputDir:   getEnv("OUTPUT_DIR", "./reports"),
			ExcelReport: getEnvAsBool("EXPORT_EXCEL", false),
		},
	}

	return AppConfig.Validate()
}

// Validate checks that the configuration is usable before any network activity
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return errors.New("GITHUB_TOKEN is required")
	}
	if len(c.GitHub.Repositories) == 0 {
		return errors.New("GITHUB_REPOSITORIES is required (comma-separated owner/name list)")
	}
	for _, repo := range c.GitHub.Repositories {
		if !strings.Contains(repo, "/") {
			return fmt.Errorf("invalid repository %q: expected owner/name format", repo)
		}
	}
	if c.Analysis.Days <= 0 {
		return errors.New("ANALYSIS_DAYS must be positive")
	}
	return nil
}

// JiraEnabled reports whether the Jira extraction phase should run.
// Missing Jira credentials are not an error, the phase is simply skipped.
func (c *Config) JiraEnabled() bool {
	return c.Jira.URL != "" && c.Jira.Email != "" && c.Jira.APIToken != "" && len(c.Jira.Projects) > 0
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable into trimmed entries
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
