package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionStartupPolicy(t *testing.T) {
	for _, in := range []string{"keep", "PURGE_EXPIRED", " purge_all "} {
		_, err := ParseSessionStartupPolicy(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseSessionStartupPolicy("clear")
	assert.Error(t, err)
}

func TestLoadSessionConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "")
	t.Setenv("SESSION_STARTUP_POLICY", "")
	cfg, err := LoadSessionConfig()
	require.NoError(t, err)
	assert.Equal(t, 600*time.Second, cfg.TTL)
	assert.Equal(t, SessionsPurgeExpired, cfg.StartupPolicy)
}

func TestLoadSessionConfigRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("SESSION_STARTUP_POLICY", "wipe")
	_, err := LoadSessionConfig()
	assert.Error(t, err)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "chatty", "json")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	l.Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
