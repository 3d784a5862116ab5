// Package metrics defines the Prometheus instrumentation for the bet
// submission pipeline and the ledger verification client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsAccepted counts durably accepted bets.
	BetsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "challengemarket",
		Name:      "bets_accepted_total",
		Help:      "Number of bet submissions accepted and appended to the ledger.",
	})

	// BetsRejected counts rejected bet submissions by taxonomy reason.
	BetsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "challengemarket",
		Name:      "bets_rejected_total",
		Help:      "Number of bet submissions rejected, by rejection reason.",
	}, []string{"reason"})

	// LedgerVerifications counts verification attempts by outcome. The
	// outcome label is "verified", "unverified", or "error" (transport or
	// RPC failure, still treated as unverified by the pipeline).
	LedgerVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "challengemarket",
		Name:      "ledger_verifications_total",
		Help:      "Number of ledger transfer verifications, by outcome.",
	}, []string{"outcome"})

	// LedgerVerifyDuration observes the latency of ledger verification
	// calls, the only blocking external I/O in the submission pipeline.
	LedgerVerifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "challengemarket",
		Name:      "ledger_verify_duration_seconds",
		Help:      "Latency of external ledger transfer verification calls.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)
