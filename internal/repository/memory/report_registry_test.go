package memory

import (
	"testing"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/pkg/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRegistryKeepsLatestPerGate(t *testing.T) {
	registry := NewReportRegistry()

	_, ok := registry.Latest(entity.GateBalancing)
	assert.False(t, ok)
	assert.Empty(t, registry.All())

	first := &pipeline.Report{Gate: entity.GateBalancing, ArtifactPath: "plots/one.html", RenderedAt: time.Now()}
	second := &pipeline.Report{Gate: entity.GateBalancing, ArtifactPath: "plots/two.html", RenderedAt: time.Now()}
	coverage := &pipeline.Report{Gate: entity.GateCoverage, ArtifactPath: "plots/coverage.html", RenderedAt: time.Now()}

	registry.Put(first)
	registry.Put(second)
	registry.Put(coverage)

	got, ok := registry.Latest(entity.GateBalancing)
	require.True(t, ok)
	assert.Equal(t, "plots/two.html", got.ArtifactPath)

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, entity.GateBalancing, all[0].Gate)
	assert.Equal(t, entity.GateCoverage, all[1].Gate)
}
