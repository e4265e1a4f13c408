package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/config"
)

type sessionPurger interface {
	PurgeAll(ctx context.Context) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// applySessionPolicy trims the session table according to policy and
// returns the number of removed rows.
func applySessionPolicy(ctx context.Context, store sessionPurger, policy config.SessionStartupPolicy, now time.Time, log *logrus.Logger) (int64, error) {
	var (
		n   int64
		err error
	)
	switch policy {
	case config.SessionsKeep:
		return 0, nil
	case config.SessionsPurgeExpired:
		n, err = store.PurgeExpired(ctx, now)
	case config.SessionsPurgeAll:
		n, err = store.PurgeAll(ctx)
	default:
		return 0, fmt.Errorf("unknown session policy %q", policy)
	}
	if err != nil {
		return 0, fmt.Errorf("apply session policy %s: %w", policy, err)
	}
	log.WithFields(logrus.Fields{"policy": policy, "removed": n}).Info("session store trimmed")
	return n, nil
}
