package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/pkg/pipeline/decision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.ILogger {
	t.Helper()
	return logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
}

func TestBalancingGateSnapshot(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 12, false)
	store.seed("m", entity.RiskLabelModerate, 7, false)
	store.seed("h", entity.RiskLabelHigh, 3, false)
	// Rows outside the active cycle never count.
	store.seed("d", entity.RiskLabelNormal, 5, true)

	gate := NewBalancingGate(newFakeFactory(store), t.TempDir(), 0.20, testLogger(t))

	snapshot, err := gate.ComputeSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.GateBalancing, snapshot.Gate)
	assert.Equal(t, int64(22), snapshot.Total)
	assert.Equal(t, int64(12), snapshot.Labels[entity.RiskLabelNormal])
	assert.Equal(t, int64(7), snapshot.Labels[entity.RiskLabelModerate])
	assert.Equal(t, int64(3), snapshot.Labels[entity.RiskLabelHigh])
}

func TestBalancingGateEmptyStore(t *testing.T) {
	gate := NewBalancingGate(newFakeFactory(newFakeStore()), t.TempDir(), 0.20, testLogger(t))

	_, err := gate.ComputeSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBalancingGateRender(t *testing.T) {
	plotDir := t.TempDir()
	gate := NewBalancingGate(newFakeFactory(newFakeStore()), plotDir, 0.20, testLogger(t))

	path, err := gate.Render(&Snapshot{
		Gate:  entity.GateBalancing,
		Total: 22,
		Labels: map[string]int64{
			entity.RiskLabelNormal:   12,
			entity.RiskLabelModerate: 7,
			entity.RiskLabelHigh:     3,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(plotDir, "balancing_report.html"), path)
	assert.FileExists(t, path)
}

func TestCoverageGateSnapshot(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 5, false)

	gate := NewCoverageGate(newFakeFactory(store), t.TempDir(), testLogger(t))

	snapshot, err := gate.ComputeSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.GateCoverage, snapshot.Gate)
	assert.Equal(t, int64(5), snapshot.Total)
	require.Len(t, snapshot.Features, len(entity.NumericFeatureNames))

	// Seeded longitudes are 0..4.
	lon := snapshot.Features["median_longitude"]
	assert.Equal(t, 0.0, lon.Min)
	assert.Equal(t, 1.0, lon.Q1)
	assert.Equal(t, 2.0, lon.Median)
	assert.Equal(t, 3.0, lon.Q3)
	assert.Equal(t, 4.0, lon.Max)
}

func TestCoverageGateRender(t *testing.T) {
	plotDir := t.TempDir()
	gate := NewCoverageGate(newFakeFactory(newFakeStore()), plotDir, testLogger(t))

	features := make(map[string]FiveNumberSummary)
	for _, name := range entity.NumericFeatureNames {
		features[name] = FiveNumberSummary{Min: 0, Q1: 1, Median: 2, Q3: 3, Max: 4}
	}

	path, err := gate.Render(&Snapshot{Gate: entity.GateCoverage, Total: 5, Features: features})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(plotDir, "coverage_report.html"), path)
	assert.FileExists(t, path)
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.75, quantile(sorted, 0.25))
	assert.Equal(t, 2.5, quantile(sorted, 0.50))
	assert.Equal(t, 3.25, quantile(sorted, 0.75))
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.5))
}

func TestApplyDecision(t *testing.T) {
	store := newFakeStore()
	balancing := NewBalancingGate(newFakeFactory(store), t.TempDir(), 0.20, testLogger(t))
	coverage := NewCoverageGate(newFakeFactory(store), t.TempDir(), testLogger(t))

	tests := []struct {
		name     string
		gate     QualityGate
		approved bool
		want     entity.PipelinePhase
	}{
		{"balancing approved", balancing, true, entity.PhaseCheckCoverage},
		{"balancing rejected", balancing, false, entity.PhaseCollecting},
		{"coverage approved", coverage, true, entity.PhaseEmitSets},
		{"coverage rejected", coverage, false, entity.PhaseCollecting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDecision(tt.gate, &decision.Decision{Gate: tt.gate.Kind(), Approved: tt.approved})
			assert.Equal(t, tt.want, got)
		})
	}
}
