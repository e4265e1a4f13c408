package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionStartupPolicy says what happens to persisted sessions when the
// server process starts.
type SessionStartupPolicy string

const (
	// SessionsKeep leaves every stored session untouched.
	SessionsKeep SessionStartupPolicy = "keep"
	// SessionsPurgeExpired deletes expired or revoked sessions only.
	SessionsPurgeExpired SessionStartupPolicy = "purge_expired"
	// SessionsPurgeAll deletes every session; all users must log in again.
	SessionsPurgeAll SessionStartupPolicy = "purge_all"
)

// ParseSessionStartupPolicy validates a policy name.
func ParseSessionStartupPolicy(s string) (SessionStartupPolicy, error) {
	switch p := SessionStartupPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SessionsKeep, SessionsPurgeExpired, SessionsPurgeAll:
		return p, nil
	}
	return "", fmt.Errorf("unknown session startup policy %q", s)
}

// SessionConfig controls server-side login sessions.  TTL is a sliding
// window: every authenticated request pushes the expiry TTL into the future.
type SessionConfig struct {
	TTL           time.Duration
	StartupPolicy SessionStartupPolicy
}

// LoadSessionConfig reads SESSION_TTL (default 600s) and
// SESSION_STARTUP_POLICY (default purge_expired).
func LoadSessionConfig() (SessionConfig, error) {
	policy, err := ParseSessionStartupPolicy(envStr("SESSION_STARTUP_POLICY", string(SessionsPurgeExpired)))
	if err != nil {
		return SessionConfig{}, err
	}
	ttl := envDur("SESSION_TTL", 600*time.Second)
	if ttl <= 0 {
		return SessionConfig{}, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
	}
	return SessionConfig{TTL: ttl, StartupPolicy: policy}, nil
}
