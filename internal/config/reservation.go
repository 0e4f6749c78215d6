package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type ReservationConfig struct {
	CancellationWindow  time.Duration `envconfig:"CANCELLATION_WINDOW" default:"24h"`
	MaxMembers          int           `envconfig:"MAX_MEMBERS" default:"10"`
	HistoryDefaultLimit int           `envconfig:"HISTORY_DEFAULT_LIMIT" default:"20"`
	HistoryMaxLimit     int           `envconfig:"HISTORY_MAX_LIMIT" default:"100"`
	JoinRateLimit       int           `envconfig:"JOIN_RATE_LIMIT" default:"20"`
	JoinRateWindow      time.Duration `envconfig:"JOIN_RATE_WINDOW" default:"1h"`
	SideEffectTimeout   time.Duration `envconfig:"SIDE_EFFECT_TIMEOUT" default:"5s"`
}

// LoadReservationConfig reads OLOS_* environment variables.
func LoadReservationConfig() (*ReservationConfig, error) {
	var cfg ReservationConfig
	if err := envconfig.Process("olos", &cfg); err != nil {
		return nil, fmt.Errorf("load reservation config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultReservationConfig returns the values used when no environment is set.
func DefaultReservationConfig() *ReservationConfig {
	return &ReservationConfig{
		CancellationWindow:  24 * time.Hour,
		MaxMembers:          10,
		HistoryDefaultLimit: 20,
		HistoryMaxLimit:     100,
		JoinRateLimit:       20,
		JoinRateWindow:      time.Hour,
		SideEffectTimeout:   5 * time.Second,
	}
}

func (c *ReservationConfig) Validate() error {
	if c.CancellationWindow < 0 {
		return fmt.Errorf("cancellation window must not be negative, got %s", c.CancellationWindow)
	}
	if c.MaxMembers < 1 {
		return fmt.Errorf("max members must be at least 1, got %d", c.MaxMembers)
	}
	if c.HistoryDefaultLimit < 1 || c.HistoryDefaultLimit > c.HistoryMaxLimit {
		return fmt.Errorf("history default limit %d must be within 1..%d", c.HistoryDefaultLimit, c.HistoryMaxLimit)
	}
	return nil
}

// ClampHistoryLimit maps a requested page size onto the configured bounds.
func (c *ReservationConfig) ClampHistoryLimit(limit int) int {
	if limit <= 0 {
		return c.HistoryDefaultLimit
	}
	if limit > c.HistoryMaxLimit {
		return c.HistoryMaxLimit
	}
	return limit
}
