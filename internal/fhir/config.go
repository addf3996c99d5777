package fhir

import (
	"fmt"
	"os"
	"time"
)

// Config holds FHIR server connection parameters.
type Config struct {
	BaseURL           string `toml:"base_url"`
	Timeout           string `toml:"timeout"`
	SubmitConcurrency int    `toml:"submit_concurrency"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL           string
	Timeout           string
	SubmitConcurrency string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.SubmitConcurrency != 0 {
		c.SubmitConcurrency = overlay.SubmitConcurrency
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://hapi.fhir.org/baseR4"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.SubmitConcurrency == 0 {
		c.SubmitConcurrency = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.SubmitConcurrency != "" {
		if v := os.Getenv(env.SubmitConcurrency); v != "" {
			var n int
			if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
				c.SubmitConcurrency = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.SubmitConcurrency < 1 {
		return fmt.Errorf("submit_concurrency must be positive")
	}
	return nil
}
