package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Archiver exports old bets to blob storage.
type Archiver interface {
	ArchiveBets(ctx context.Context, before time.Time) (int64, error)
}

// AdminHandler serves operator-only endpoints. All routes are registered
// behind the auth middleware.
type AdminHandler struct {
	archiver      Archiver
	retentionDays int
	logger        *slog.Logger
}

// NewAdminHandler creates an AdminHandler. archiver may be nil when archival
// is disabled.
func NewAdminHandler(archiver Archiver, retentionDays int, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		archiver:      archiver,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// TriggerArchive runs a bet archival pass immediately instead of waiting for
// the next scheduled run.
// POST /api/admin/archive
func (h *AdminHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "archival is not enabled")
		return
	}

	before := time.Now().UTC().AddDate(0, 0, -h.retentionDays)

	count, err := h.archiver.ArchiveBets(r.Context(), before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: archive trigger failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "archive run failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archived": count,
		"before":   before.Format(time.RFC3339),
	})
}
