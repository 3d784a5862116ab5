package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/challengemarket/internal/service"
)

// LedgerStatus reports the last observed state of the ledger RPC endpoint.
type LedgerStatus interface {
	Status() (service.RPCStatus, time.Time)
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	ledger LedgerStatus
}

// NewHealthHandler creates a HealthHandler. ledger may be nil when no
// background prober is running.
func NewHealthHandler(ledger LedgerStatus) *HealthHandler {
	return &HealthHandler{ledger: ledger}
}

// HealthCheck responds with the service status and the last ledger RPC probe
// result.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.ledger != nil {
		status, checked := h.ledger.Status()
		ledger := map[string]any{"status": string(status)}
		if !checked.IsZero() {
			ledger["checked_at"] = checked.UTC().Format(time.RFC3339)
		}
		resp["ledger_rpc"] = ledger
	}

	writeJSON(w, http.StatusOK, resp)
}
