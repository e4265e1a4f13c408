package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDSNConfig(t *testing.T) {
	cfg := dsnConfig("app", "pw", "db.local", "3306", "housing")
	assert.Equal(t, "db.local:3306", cfg.Addr)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.True(t, cfg.ClientFoundRows)
	assert.Contains(t, cfg.FormatDSN(), "clientFoundRows=true")
}
