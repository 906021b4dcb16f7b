package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	svc := newService(t, newStore(t), nil)

	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "default", spec: ""},
		{name: "descriptor", spec: "@every 30m"},
		{name: "six field", spec: "0 0 * * * *"},
		{name: "garbage", spec: "every hour", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(svc, tt.spec, testLogger(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			s.Start()
			s.Stop()
		})
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	store := newStore(t)
	seed(t, store, "alice", 30*time.Hour)
	svc := newService(t, store, nil)

	s, err := NewScheduler(svc, "@every 1h", testLogger(t))
	require.NoError(t, err)
	s.runOnce()

	report, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned, "the scheduled run already cancelled the stale session")
}
