package app

import (
	"context"
	"errors"
	"time"

	"repo2text/internal/data/history"
)

// recordRun stores a finished command in the run history. Failures to record
// are logged and never change the command's outcome.
func (a *App) recordRun(ctx context.Context, run history.Run, started time.Time, runErr error) {
	if a.history == nil {
		return
	}
	run.ProjectKey = a.Config.History.ProjectKey
	run.StartedAt = started
	run.Duration = time.Since(started)
	switch {
	case runErr == nil:
		run.Status = history.StatusOK
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		run.Status = history.StatusCancelled
		run.Error = runErr.Error()
	default:
		run.Status = history.StatusError
		run.Error = runErr.Error()
	}

	if _, err := a.history.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		a.logger.Warn("failed to record run", "command", run.Command, "error", err)
	}
}
