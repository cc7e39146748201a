package core

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultMaxRecursionDepth bounds nested same-goroutine Invoke chains.
	DefaultMaxRecursionDepth = 64
)

// DrainPolicy controls what happens to items still queued when a graceful
// Stop is requested. Abort always discards, regardless of policy.
type DrainPolicy int

const (
	// DrainRemaining: execute every residual item, in order, before Run
	// returns. Default for Stop.
	DrainRemaining DrainPolicy = iota

	// DiscardRemaining: drop residual items; pending synchronous callers are
	// released with ErrAborted.
	DiscardRemaining
)

func (p DrainPolicy) String() string {
	switch p {
	case DrainRemaining:
		return "drain"
	case DiscardRemaining:
		return "discard"
	default:
		return "unknown"
	}
}

// Config carries construction-time settings for an Invoker. The zero value is
// usable: zero/invalid fields are replaced by defaults in New.
type Config struct {
	// Name identifies the invoker in logs, metrics and history records.
	Name string `env:"INVOKER_NAME" envDefault:"invoker"`

	// MaxRecursionDepth is the maximum nesting of same-goroutine reentrant
	// Invoke calls. Must be positive; defaults to 64.
	MaxRecursionDepth int `env:"INVOKER_MAX_RECURSION_DEPTH" envDefault:"64"`

	// StopPolicy selects drain-vs-discard behavior for Stop().
	StopPolicy DrainPolicy `env:"INVOKER_STOP_POLICY"`

	// HistoryCapacity sizes the recent-invocation ring buffer.
	HistoryCapacity int `env:"INVOKER_HISTORY_CAPACITY" envDefault:"100"`
}

// DefaultConfig returns the defaults used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		Name:              "invoker",
		MaxRecursionDepth: DefaultMaxRecursionDepth,
		StopPolicy:        DrainRemaining,
		HistoryCapacity:   defaultHistoryCapacity,
	}
}

// ConfigFromEnv loads configuration from INVOKER_* environment variables,
// falling back to defaults for unset variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "invoker"
	}
	if c.MaxRecursionDepth <= 0 {
		c.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = defaultHistoryCapacity
	}
	return c
}
