package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCORE_SWEEP_INTERVAL", "")
	t.Setenv("AUDIT_SENSITIVE_PATHS", "")

	cfg := Load()

	assert.Equal(t, 6*time.Hour, cfg.ScoreSweepInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.DBSlowQuery)
	assert.Equal(t, []string{"/api/v1/auth/change-password", "/api/v1/users", "/api/v1/employees"}, cfg.AuditSensitivePaths)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCORE_SWEEP_INTERVAL", "15m")
	t.Setenv("VOTE_RATE_LIMIT", "5")
	t.Setenv("SCORE_SWEEP_ON_START", "false")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("GIN_MODE", "release")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.ScoreSweepInterval)
	assert.Equal(t, 5, cfg.VoteRateLimit)
	assert.False(t, cfg.ScoreSweepOnStart)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SCORE_SWEEP_INTERVAL", "soon")
	assert.Equal(t, 6*time.Hour, Load().ScoreSweepInterval)
}

func TestSlowQueryThresholdCanBeDisabled(t *testing.T) {
	t.Setenv("DB_SLOW_QUERY", "0")
	assert.Zero(t, Load().DBSlowQuery)

	t.Setenv("DB_SLOW_QUERY", "1s")
	assert.Equal(t, time.Second, Load().DBSlowQuery)
}
