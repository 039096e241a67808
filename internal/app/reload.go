package app

import (
	"context"
	"log/slog"
	"time"
)

// RateReloader subscribes to rate table reload notices.
type RateReloader interface {
	ListenForReload(ctx context.Context) error
}

const reloadRetryInterval = 5 * time.Second

// WatchRateReloads keeps a reload subscription open until ctx ends, retrying
// when Redis refuses the subscription.
func WatchRateReloads(ctx context.Context, reloader RateReloader, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		err := reloader.ListenForReload(ctx)
		if err == nil {
			logger.Info("subscribed to rate reloads")
			return
		}
		logger.Warn("rate reload subscription failed", slog.Any("error", err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(reloadRetryInterval):
		}
	}
}
