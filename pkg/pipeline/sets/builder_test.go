package sets

import (
	"fmt"
	"testing"

	"ml-segregation-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSessions(label string, n int) []*entity.PreparedSession {
	out := make([]*entity.PreparedSession, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &entity.PreparedSession{
			Uuid:            fmt.Sprintf("%s-%03d", label, i),
			Label:           label,
			MedianLongitude: float64(i),
			MedianTargetIP:  "10.0.0.1",
			MedianDestIP:    "192.168.0.1",
		})
	}
	return out
}

func TestRatiosValidate(t *testing.T) {
	assert.NoError(t, DefaultRatios().Validate())
	assert.NoError(t, Ratios{Train: 0.8, Validation: 0.1, Test: 0.1}.Validate())
	assert.Error(t, Ratios{Train: 0.7, Validation: 0.2, Test: 0.2}.Validate())
	assert.Error(t, Ratios{Train: 1.2, Validation: -0.1, Test: -0.1}.Validate())
}

func TestNewBuilderRejectsInvalidRatios(t *testing.T) {
	_, err := NewBuilder(Ratios{Train: 0.5, Validation: 0.5, Test: 0.5})
	assert.Error(t, err)
}

func TestBuildEmptyInput(t *testing.T) {
	builder, err := NewBuilder(DefaultRatios())
	require.NoError(t, err)

	_, err = builder.Build(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestBuildSplitsPerLabel(t *testing.T) {
	builder, err := NewBuilder(DefaultRatios())
	require.NoError(t, err)

	sessions := append(makeSessions(entity.RiskLabelNormal, 20), makeSessions(entity.RiskLabelHigh, 20)...)

	bundle, err := builder.Build(sessions)
	require.NoError(t, err)

	// 20 per label at 0.70/0.15/0.15 floors to 14/3/3.
	assert.Len(t, bundle.Train, 28)
	assert.Len(t, bundle.Validation, 6)
	assert.Len(t, bundle.Test, 6)
	assert.Equal(t, 40, bundle.Size())
	assert.Equal(t, map[string]int{entity.RiskLabelNormal: 20, entity.RiskLabelHigh: 20}, bundle.LabelCounts)
	assert.False(t, bundle.GeneratedAt.IsZero())
}

func TestBuildRemainderGoesToTest(t *testing.T) {
	builder, err := NewBuilder(DefaultRatios())
	require.NoError(t, err)

	// 10 sessions floor to 7 train, 1 validation; the 2 left over land in test.
	bundle, err := builder.Build(makeSessions(entity.RiskLabelModerate, 10))
	require.NoError(t, err)

	assert.Len(t, bundle.Train, 7)
	assert.Len(t, bundle.Validation, 1)
	assert.Len(t, bundle.Test, 2)
}

func TestBuildCoversEverySessionExactlyOnce(t *testing.T) {
	builder, err := NewBuilder(DefaultRatios())
	require.NoError(t, err)

	sessions := append(makeSessions(entity.RiskLabelNormal, 13), makeSessions(entity.RiskLabelModerate, 7)...)
	sessions = append(sessions, makeSessions(entity.RiskLabelHigh, 3)...)

	bundle, err := builder.Build(sessions)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, u := range bundle.SessionUuids() {
		assert.False(t, seen[u], "uuid %s assigned twice", u)
		seen[u] = true
	}
	assert.Len(t, seen, len(sessions))
}

func TestBuildIsDeterministic(t *testing.T) {
	builder, err := NewBuilder(DefaultRatios())
	require.NoError(t, err)

	forward := append(makeSessions(entity.RiskLabelNormal, 9), makeSessions(entity.RiskLabelHigh, 6)...)
	reversed := make([]*entity.PreparedSession, len(forward))
	for i, s := range forward {
		reversed[len(forward)-1-i] = s
	}

	a, err := builder.Build(forward)
	require.NoError(t, err)
	b, err := builder.Build(reversed)
	require.NoError(t, err)

	assert.Equal(t, a.Train, b.Train)
	assert.Equal(t, a.Validation, b.Validation)
	assert.Equal(t, a.Test, b.Test)
}

func TestRecordFieldMapping(t *testing.T) {
	builder, err := NewBuilder(Ratios{Train: 1, Validation: 0, Test: 0})
	require.NoError(t, err)

	bundle, err := builder.Build([]*entity.PreparedSession{{
		Uuid:            "abc",
		Label:           entity.RiskLabelHigh,
		MedianLongitude: 1.5,
		MedianLatitude:  -2.5,
		MeanDiffTime:    30,
		MeanDiffAmount:  12.25,
		MedianTargetIP:  "10.1.2.3",
		MedianDestIP:    "192.168.9.9",
	}})
	require.NoError(t, err)

	require.Len(t, bundle.Train, 1)
	assert.Equal(t, Record{
		Uuid:            "abc",
		Label:           entity.RiskLabelHigh,
		MedianLongitude: 1.5,
		MedianLatitude:  -2.5,
		MeanDiffTime:    30,
		MeanDiffAmount:  12.25,
		MedianTargetIP:  "10.1.2.3",
		MedianDestIP:    "192.168.9.9",
	}, bundle.Train[0])
}
