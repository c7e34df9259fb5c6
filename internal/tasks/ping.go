package tasks

import (
	"context"

	"github.com/trogers1052/ticker-watch/internal/models"
	"github.com/trogers1052/ticker-watch/internal/scheduler"
)

// Ping is a heartbeat job used to smoke-test worker liveness.
func Ping(_ context.Context, _ *models.Job) (scheduler.Result, error) {
	return scheduler.Result{"status": "ok", "reply": "pong"}, nil
}
