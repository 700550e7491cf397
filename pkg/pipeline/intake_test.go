package pipeline

import (
	"context"
	"testing"

	"ml-segregation-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeGateReady(t *testing.T) {
	tests := []struct {
		name      string
		pending   int
		deferred  int
		threshold int
		want      bool
	}{
		{"one short", 49, 0, 50, false},
		{"exactly at threshold", 50, 0, 50, true},
		{"above threshold", 80, 0, 50, true},
		{"deferred rows do not count", 40, 30, 50, false},
		{"zero threshold is always ready", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.seed("p", entity.RiskLabelNormal, tt.pending, false)
			store.seed("d", entity.RiskLabelHigh, tt.deferred, true)

			gate := NewIntakeGate(newFakeFactory(store), testLogger(t))

			ready, err := gate.Ready(context.Background(), tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ready)
		})
	}
}
