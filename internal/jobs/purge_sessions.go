package jobs

import (
	"context"
	"log/slog"

	"github.com/rongsox/dashboard/internal/worker"
)

// SessionPurger removes expired sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeSessionsHandler deletes expired dashboard sessions.
type PurgeSessionsHandler struct {
	sessions SessionPurger
	logger   *slog.Logger
}

func NewPurgeSessionsHandler(sessions SessionPurger, logger *slog.Logger) *PurgeSessionsHandler {
	return &PurgeSessionsHandler{sessions: sessions, logger: logger}
}

func (h *PurgeSessionsHandler) Type() string {
	return worker.JobTypePurgeExpiredSessions
}

func (h *PurgeSessionsHandler) Handle(ctx context.Context, _ []byte) error {
	count, err := h.sessions.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	h.logger.Debug("Purged expired sessions", "count", count)
	return nil
}
