// Package trigger starts refreshes without an HTTP request: on a cron
// schedule or when the source file changes.
package trigger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/transit-ranking-etl/internal/pipeline"
)

// Refresher runs one refresh.
type Refresher interface {
	Refresh(ctx context.Context) (pipeline.Run, error)
}

// fire runs a refresh and logs the outcome. A refresh that is already
// running is skipped.
func fire(ctx context.Context, r Refresher, logger *slog.Logger) {
	run, err := r.Refresh(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRefreshInProgress):
		logger.Info("refresh skipped, another refresh is running")
	case err != nil:
		logger.Error("triggered refresh failed", "run_id", run.ID, "error", err)
	default:
		logger.Debug("triggered refresh finished", "run_id", run.ID, "status", run.Status)
	}
}
