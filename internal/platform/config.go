package platform

import (
	"fmt"
	"strings"
	"time"

	appConfig "github.com/EOEPCA/open-science-catalog-backend/internal/config"
	"github.com/EOEPCA/open-science-catalog-backend/pkg/retry"
)

// Config holds the connection configuration for the GitHub-backed platform.
type Config struct {
	// Token is the access token used to authenticate API calls.
	Token string
	// Repo is the target repository in "owner/name" form.
	Repo string
	// MainBranch is the branch submissions merge into.
	MainBranch string
	// BaseURL overrides the API endpoint (GitHub Enterprise or tests).
	// Empty means the public GitHub API.
	BaseURL string
	// RequestTimeout bounds every single API call.
	RequestTimeout time.Duration
	// Retry controls the startup verification backoff.
	Retry retry.Config
}

// LoadConfigFromEnv loads platform configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Token:          appConfig.GetEnv("GITHUB_TOKEN", ""),
		Repo:           appConfig.GetEnv("GITHUB_REPO", ""),
		MainBranch:     appConfig.GetEnv("GITHUB_MAIN_BRANCH", "main"),
		BaseURL:        appConfig.GetEnv("GITHUB_BASE_URL", ""),
		RequestTimeout: appConfig.GetEnvDuration("GITHUB_REQUEST_TIMEOUT", 30*time.Second),
		Retry:          loadRetryConfigFromEnv(),
	}
}

// loadRetryConfigFromEnv loads the startup retry configuration, with
// transient-failure patterns as the baseline.
func loadRetryConfigFromEnv() retry.Config {
	cfg := retry.TransientConfig()
	cfg.MaxAttempts = appConfig.GetEnvInt("GITHUB_RETRY_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.InitialDelay = appConfig.GetEnvDuration("GITHUB_RETRY_INITIAL_DELAY", cfg.InitialDelay)
	cfg.MaxDelay = appConfig.GetEnvDuration("GITHUB_RETRY_MAX_DELAY", cfg.MaxDelay)
	cfg.Multiplier = appConfig.GetEnvFloat("GITHUB_RETRY_MULTIPLIER", cfg.Multiplier)
	return cfg
}

// SplitRepo splits Repo into its owner and name halves.
func (c Config) SplitRepo() (owner, name string, err error) {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("GITHUB_REPO must be in owner/name form, got %q", c.Repo)
	}
	return owner, name, nil
}

// Validate validates platform configuration.
func (c Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN must be set")
	}
	if _, _, err := c.SplitRepo(); err != nil {
		return err
	}
	if c.MainBranch == "" {
		return fmt.Errorf("GITHUB_MAIN_BRANCH must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("GITHUB_REQUEST_TIMEOUT must be greater than 0")
	}
	return nil
}
