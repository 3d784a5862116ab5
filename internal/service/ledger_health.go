package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RPCStatus is the advisory health of the external ledger RPC endpoint. It
// never gates the submission pipeline.
type RPCStatus string

const (
	RPCStatusUnknown     RPCStatus = "unknown"
	RPCStatusOK          RPCStatus = "ok"
	RPCStatusDegraded    RPCStatus = "degraded"
	RPCStatusUnreachable RPCStatus = "unreachable"
)

// LedgerProber is the probe surface of the ledger RPC client.
type LedgerProber interface {
	GetVersion(ctx context.Context) (string, error)
}

// LedgerHealth periodically probes the ledger RPC endpoint and records the
// outcome of the most recent probe for the health endpoint to surface.
type LedgerHealth struct {
	prober   LedgerProber
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	status    RPCStatus
	version   string
	checkedAt time.Time
}

// NewLedgerHealth creates a LedgerHealth prober. A non-positive interval
// selects 30 seconds.
func NewLedgerHealth(prober LedgerProber, interval time.Duration, logger *slog.Logger) *LedgerHealth {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &LedgerHealth{
		prober:   prober,
		interval: interval,
		logger:   logger,
		status:   RPCStatusUnknown,
	}
}

// Run probes immediately and then on every interval tick until the context
// is cancelled.
func (h *LedgerHealth) Run(ctx context.Context) error {
	h.Probe(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Probe performs a single version query against the ledger RPC endpoint and
// records the result.
func (h *LedgerHealth) Probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	status := RPCStatusOK
	version, err := h.prober.GetVersion(probeCtx)
	switch {
	case err != nil:
		status = RPCStatusUnreachable
		h.logger.WarnContext(ctx, "ledger health: probe failed",
			slog.String("error", err.Error()),
		)
	case version == "":
		status = RPCStatusDegraded
	}

	h.mu.Lock()
	h.status = status
	h.version = version
	h.checkedAt = time.Now().UTC()
	h.mu.Unlock()
}

// Status returns the outcome of the most recent probe.
func (h *LedgerHealth) Status() (RPCStatus, time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status, h.checkedAt
}
