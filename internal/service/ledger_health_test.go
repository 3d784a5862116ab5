package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type scriptedProber struct {
	version string
	err     error
}

func (p *scriptedProber) GetVersion(ctx context.Context) (string, error) {
	return p.version, p.err
}

func TestLedgerHealthProbe(t *testing.T) {
	cases := []struct {
		name   string
		prober *scriptedProber
		want   RPCStatus
	}{
		{"reachable", &scriptedProber{version: "1.18.22"}, RPCStatusOK},
		{"empty version", &scriptedProber{version: ""}, RPCStatusDegraded},
		{"unreachable", &scriptedProber{err: errors.New("connection refused")}, RPCStatusUnreachable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewLedgerHealth(tc.prober, 0, testLogger())

			status, checked := h.Status()
			assert.Equal(t, RPCStatusUnknown, status, "status starts unknown before any probe")
			assert.True(t, checked.IsZero())

			h.Probe(context.Background())

			status, checked = h.Status()
			assert.Equal(t, tc.want, status)
			assert.False(t, checked.IsZero())
		})
	}
}
