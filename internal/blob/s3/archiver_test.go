package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/challengemarket/internal/domain"
)

type capturingWriter struct {
	path        string
	contentType string
	data        []byte
}

func (w *capturingWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	w.path = path
	w.contentType = contentType
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.data = b
	return nil
}

type staticBetStore struct {
	bets []domain.Bet
}

func (s *staticBetStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Bet, error) {
	var out []domain.Bet
	for _, b := range s.bets {
		if b.RecordedAt.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

type recordingAudit struct {
	events []string
}

func (a *recordingAudit) Log(ctx context.Context, event string, detail map[string]any) error {
	a.events = append(a.events, event)
	return nil
}

func (a *recordingAudit) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func TestArchiveBets(t *testing.T) {
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &staticBetStore{bets: []domain.Bet{
		{ID: uuid.New(), Signature: "old-1", Amount: 1, RecordedAt: cutoff.AddDate(0, -2, 0)},
		{ID: uuid.New(), Signature: "old-2", Amount: 2, RecordedAt: cutoff.AddDate(0, -1, 0)},
		{ID: uuid.New(), Signature: "recent", Amount: 3, RecordedAt: cutoff.AddDate(0, 1, 0)},
	}}
	writer := &capturingWriter{}
	audit := &recordingAudit{}

	archiver := NewArchiver(writer, store, audit)

	count, err := archiver.ArchiveBets(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assert.Equal(t, "archive/bets/2026-06.jsonl", writer.path)
	assert.Equal(t, "application/x-ndjson", writer.contentType)

	lines := bytes.Split(bytes.TrimSpace(writer.data), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var bet domain.Bet
		require.NoError(t, json.Unmarshal(line, &bet))
		assert.True(t, bet.RecordedAt.Before(cutoff))
	}

	assert.Contains(t, audit.events, "archive.bets")
}

func TestArchiveBetsNothingToDo(t *testing.T) {
	writer := &capturingWriter{}
	archiver := NewArchiver(writer, &staticBetStore{}, &recordingAudit{})

	count, err := archiver.ArchiveBets(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, writer.path, "no upload should happen for an empty batch")
}
