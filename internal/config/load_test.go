package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Env vars are process-wide, so these tests cannot run in parallel.
func TestLoad(t *testing.T) {
	t.Run("defaults with required values from env", func(t *testing.T) {
		t.Setenv("CASELIGHT_DATABASE_URL", "postgres://localhost:5432/caselight")
		t.Setenv("CASELIGHT_LLM_GEMINI_API_KEY", "test-key")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Server.LogLevel)
		assert.Equal(t, 5, cfg.Orchestrator.Concurrency)
		assert.Equal(t, 2, cfg.Orchestrator.PollIntervalSeconds)
		assert.Equal(t, 10, cfg.Orchestrator.StallWindowSeconds)
		assert.Equal(t, 60, cfg.Orchestrator.MaxPolls)
		assert.Equal(t, "gemini-2.0-flash", cfg.LLM.ModelName)
	})

	t.Run("env overrides defaults", func(t *testing.T) {
		t.Setenv("CASELIGHT_DATABASE_URL", "postgres://localhost:5432/caselight")
		t.Setenv("CASELIGHT_LLM_GEMINI_API_KEY", "test-key")
		t.Setenv("CASELIGHT_SERVER_PORT", "9090")
		t.Setenv("CASELIGHT_ORCHESTRATOR_CONCURRENCY", "3")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 3, cfg.Orchestrator.Concurrency)
	})

	t.Run("missing database URL fails validation", func(t *testing.T) {
		t.Setenv("CASELIGHT_LLM_GEMINI_API_KEY", "test-key")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation")
	})

	t.Run("invalid log level fails validation", func(t *testing.T) {
		t.Setenv("CASELIGHT_DATABASE_URL", "postgres://localhost:5432/caselight")
		t.Setenv("CASELIGHT_LLM_GEMINI_API_KEY", "test-key")
		t.Setenv("CASELIGHT_SERVER_LOG_LEVEL", "verbose")

		_, err := Load()
		assert.Error(t, err)
	})
}
