package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 8, cfg.Transfers.Concurrency)
	assert.Equal(t, 24*time.Hour, cfg.FollowUps.MissedGracePeriod)
	assert.False(t, cfg.Notifications.EmailEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRANSFER_CONCURRENCY", "3")
	t.Setenv("MISSED_GRACE_PERIOD", "90m")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("SENDGRID_API_KEY", "key")
	t.Setenv("NOTIFY_FROM_EMAIL", "crm@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Transfers.Concurrency)
	assert.Equal(t, 90*time.Minute, cfg.FollowUps.MissedGracePeriod)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Notifications.EmailEnabled())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nonsense", time.Minute))
	assert.Equal(t, time.Second, parseDuration("", time.Second))
}
