// Package config defines service configuration and its loading.
//
// Values are layered defaults -> optional YAML file -> environment; see Load.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/pumpcurve/internal/domain/pump"
)

// Supported presentation languages.
const (
	LangEnglish    = "en"
	LangPortuguese = "pt"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CatalogPath points at a YAML pump catalog. Empty uses the built-in catalog.
	CatalogPath string `koanf:"catalog_path"`

	// DefaultSamples is the curve sample count for pumps that leave it unset.
	DefaultSamples int `koanf:"default_samples"`

	// Validation thresholds applied where a pump does not set its own.
	FarAboveMargin        float64 `koanf:"far_above_margin"`
	LowFlowFraction       float64 `koanf:"low_flow_fraction"`
	HeadToleranceFraction float64 `koanf:"head_tolerance_fraction"`
	HeadMinTolerance      float64 `koanf:"head_min_tolerance"`
	LowEfficiencyFraction float64 `koanf:"low_efficiency_fraction"`
	LowHeadFraction       float64 `koanf:"low_head_fraction"`

	// RateLimitRPS and RateLimitBurst bound requests per client IP. Zero RPS disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// DefaultLang is the message language when a request does not ask for one.
	DefaultLang string `koanf:"default_lang"`

	// BatchWorkers bounds concurrent resolutions of a batch upload. Zero uses one per CPU.
	BatchWorkers int `koanf:"batch_workers"`
}

// New returns a Config holding the defaults.
func New() *Config {
	p := pump.DefaultPolicy()
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DefaultSamples:        pump.DefaultSamples,
		FarAboveMargin:        p.FarAboveMargin,
		LowFlowFraction:       p.LowFlowFraction,
		HeadToleranceFraction: p.HeadToleranceFraction,
		HeadMinTolerance:      p.HeadMinTolerance,
		LowEfficiencyFraction: p.LowEfficiencyFraction,
		LowHeadFraction:       p.LowHeadFraction,
		RateLimitRPS:          50,
		RateLimitBurst:        100,
		DefaultLang:           LangEnglish,
	}
}

// Policy returns the configured default validation thresholds.
func (c *Config) Policy() pump.Policy {
	return pump.Policy{
		FarAboveMargin:        c.FarAboveMargin,
		LowFlowFraction:       c.LowFlowFraction,
		HeadToleranceFraction: c.HeadToleranceFraction,
		HeadMinTolerance:      c.HeadMinTolerance,
		LowEfficiencyFraction: c.LowEfficiencyFraction,
		LowHeadFraction:       c.LowHeadFraction,
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DefaultSamples < pump.MinSamples || c.DefaultSamples > pump.MaxSamples {
		return fmt.Errorf("%w: default_samples must be in [%d, %d], got %d",
			ErrInvalidConfig, pump.MinSamples, pump.MaxSamples, c.DefaultSamples)
	}
	fractions := []struct {
		key string
		val float64
	}{
		{"low_flow_fraction", c.LowFlowFraction},
		{"head_tolerance_fraction", c.HeadToleranceFraction},
		{"low_efficiency_fraction", c.LowEfficiencyFraction},
		{"low_head_fraction", c.LowHeadFraction},
	}
	for _, f := range fractions {
		if !(f.val > 0 && f.val <= 1) {
			return fmt.Errorf("%w: %s must be in (0, 1], got %g", ErrInvalidConfig, f.key, f.val)
		}
	}
	if !(c.FarAboveMargin > 0) {
		return fmt.Errorf("%w: far_above_margin must be positive", ErrInvalidConfig)
	}
	if !(c.HeadMinTolerance >= 0) {
		return fmt.Errorf("%w: head_min_tolerance must not be negative", ErrInvalidConfig)
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst < 1) {
		return fmt.Errorf("%w: rate limit needs rps >= 0 and burst >= 1", ErrInvalidConfig)
	}
	if c.BatchWorkers < 0 {
		return fmt.Errorf("%w: batch_workers must not be negative", ErrInvalidConfig)
	}
	switch c.DefaultLang {
	case LangEnglish, LangPortuguese:
	default:
		return fmt.Errorf("%w: default_lang must be %q or %q", ErrInvalidConfig, LangEnglish, LangPortuguese)
	}
	return nil
}
