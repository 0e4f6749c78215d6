package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReservationConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadReservationConfig()
		require.NoError(t, err)
		assert.Equal(t, DefaultReservationConfig(), cfg)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("OLOS_CANCELLATION_WINDOW", "48h")
		t.Setenv("OLOS_MAX_MEMBERS", "4")
		t.Setenv("OLOS_SIDE_EFFECT_TIMEOUT", "2s")

		cfg, err := LoadReservationConfig()
		require.NoError(t, err)
		assert.Equal(t, 48*time.Hour, cfg.CancellationWindow)
		assert.Equal(t, 4, cfg.MaxMembers)
		assert.Equal(t, 2*time.Second, cfg.SideEffectTimeout)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("OLOS_CANCELLATION_WINDOW", "tomorrow")

		_, err := LoadReservationConfig()
		assert.Error(t, err)
	})

	t.Run("invalid member bound", func(t *testing.T) {
		t.Setenv("OLOS_MAX_MEMBERS", "0")

		_, err := LoadReservationConfig()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "max members")
	})
}

func TestReservationConfig_ClampHistoryLimit(t *testing.T) {
	cfg := DefaultReservationConfig()

	assert.Equal(t, 20, cfg.ClampHistoryLimit(0))
	assert.Equal(t, 20, cfg.ClampHistoryLimit(-5))
	assert.Equal(t, 7, cfg.ClampHistoryLimit(7))
	assert.Equal(t, 100, cfg.ClampHistoryLimit(1000))
}
