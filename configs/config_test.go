package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("POSTGRES_URI", "postgres://localhost/postflow")
	t.Setenv("INSTAGRAM_ACCOUNT_ID", "1784")
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "ig-token")
	t.Setenv("FACEBOOK_PAGE_ID", "page-1")
	t.Setenv("INSTAGRAM_POLL_MAX_ATTEMPTS", "4")
	t.Setenv("INSTAGRAM_POLL_INTERVAL", "500ms")
	t.Setenv("INSTAGRAM_PUBLISH_ON_POLL_TIMEOUT", "false")
	t.Setenv("GRAPH_REQUESTS_PER_SECOND", "2.5")

	cfg := LoadConfig()

	assert.Equal(t, "postgres://localhost/postflow", cfg.PostgresURI)
	assert.Equal(t, "1784", cfg.Instagram.AccountID)
	assert.Equal(t, "ig-token", cfg.Instagram.AccessToken)
	assert.Equal(t, "page-1", cfg.Facebook.PageID)
	assert.Equal(t, 4, cfg.Poll.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval)
	assert.False(t, cfg.Poll.PublishOnTimeout)
	assert.Equal(t, 2.5, cfg.GraphRequestsPerSecond)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("INSTAGRAM_POLL_MAX_ATTEMPTS", "")
	t.Setenv("INSTAGRAM_POLL_INTERVAL", "not-a-duration")
	t.Setenv("INSTAGRAM_PUBLISH_ON_POLL_TIMEOUT", "")
	t.Setenv("SWEEP_SCHEDULE", "")
	t.Setenv("PORT", "")

	cfg := LoadConfig()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "@every 1m", cfg.SweepSchedule)
	assert.Equal(t, 10, cfg.Poll.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval)
	assert.True(t, cfg.Poll.PublishOnTimeout)
	assert.Equal(t, "https://graph.instagram.com/v21.0", cfg.Instagram.GraphURL)
	assert.Equal(t, "https://graph.facebook.com/v21.0", cfg.Facebook.GraphURL)
}
