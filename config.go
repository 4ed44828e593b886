package tubetap

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
)

// Config holds every tunable of the agent. The zero value is not usable; use
// DefaultConfig or FromEnv.
type Config struct {
	// HelperURL is the base URL of the local helper process.
	HelperURL string `env:"TUBETAP_HELPER_URL" envDefault:"http://127.0.0.1:8777"`
	// RefreshInterval is the period of the full pipeline re-evaluation.
	RefreshInterval time.Duration `env:"TUBETAP_REFRESH_INTERVAL" envDefault:"2s"`
	// PollInterval is the period of job status polling.
	PollInterval time.Duration `env:"TUBETAP_POLL_INTERVAL" envDefault:"1s"`
	// DebounceWindow coalesces page-change signals before re-evaluating.
	DebounceWindow time.Duration `env:"TUBETAP_DEBOUNCE_WINDOW" envDefault:"200ms"`
	// FailedRevertDelay is how long a control stays failed before reverting
	// to ready.
	FailedRevertDelay time.Duration `env:"TUBETAP_FAILED_REVERT_DELAY" envDefault:"3s"`
	// StorePath is the artifact store location; empty disables persistence.
	StorePath string `env:"TUBETAP_STORE_PATH" envDefault:""`
	// LogLevel is the zap level name.
	LogLevel string `env:"TUBETAP_LOG_LEVEL" envDefault:"info"`
}

var DefaultConfig = Config{
	HelperURL:         "http://127.0.0.1:8777",
	RefreshInterval:   2 * time.Second,
	PollInterval:      1 * time.Second,
	DebounceWindow:    200 * time.Millisecond,
	FailedRevertDelay: 3 * time.Second,
	LogLevel:          "info",
}

// FromEnv builds a Config from TUBETAP_* environment variables, falling back
// to the documented defaults.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid field, not just the first.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.HelperURL == "" {
		result = multierror.Append(result, fmt.Errorf("helper url must not be empty"))
	}
	if c.RefreshInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("refresh interval must be positive, got %v", c.RefreshInterval))
	}
	if c.PollInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("poll interval must be positive, got %v", c.PollInterval))
	}
	if c.DebounceWindow <= 0 {
		result = multierror.Append(result, fmt.Errorf("debounce window must be positive, got %v", c.DebounceWindow))
	}
	if c.FailedRevertDelay <= 0 {
		result = multierror.Append(result, fmt.Errorf("failed revert delay must be positive, got %v", c.FailedRevertDelay))
	}
	return result.ErrorOrNil()
}
