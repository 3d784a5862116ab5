package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

// BetArchiveStore provides read access to bets for archival purposes. The
// Postgres BetStore satisfies it through its ListBefore method.
type BetArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Bet, error)
}

// Archiver exports old bets to blob storage as JSONL. Deletion of archived
// rows from the primary store is intentionally NOT performed here; the bet
// ledger is append-only and pruning, if ever introduced, is a separate
// explicit step.
type Archiver struct {
	writer domain.BlobWriter
	bets   BetArchiveStore
	audit  domain.AuditStore
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer domain.BlobWriter, bets BetArchiveStore, audit domain.AuditStore) *Archiver {
	return &Archiver{
		writer: writer,
		bets:   bets,
		audit:  audit,
	}
}

// ArchiveBets queries all bets recorded before the cutoff, serializes them
// to JSONL, and uploads the file to archive/bets/YYYY-MM.jsonl. The archive
// run is recorded in the audit log and the count of archived records is
// returned.
func (a *Archiver) ArchiveBets(ctx context.Context, before time.Time) (int64, error) {
	bets, err := a.bets.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive bets query: %w", err)
	}
	if len(bets) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(bets)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive bets marshal: %w", err)
	}

	path := fmt.Sprintf("archive/bets/%s.jsonl", before.UTC().Format("2006-01"))
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive bets upload: %w", err)
	}

	count := int64(len(bets))

	if err := a.audit.Log(ctx, "archive.bets", map[string]any{
		"path":   path,
		"count":  count,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive bets audit log: %w", err)
	}

	return count, nil
}

// marshalJSONL encodes a slice of bets as newline-delimited JSON.
func marshalJSONL(bets []domain.Bet) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range bets {
		if err := enc.Encode(bets[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
