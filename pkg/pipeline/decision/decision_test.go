package decision

import (
	"testing"

	"ml-segregation-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBalancingArtifact(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    bool
		wantErr bool
	}{
		{"approved", `{"approved": true}`, true, false},
		{"rejected with feedback", `{"approved": false, "unbalanced_classes": {"moderate": 12, "high": 30}}`, false, false},
		{"missing approved", `{"unbalanced_classes": {"high": 5}}`, false, true},
		{"invalid json", `{"approved": tru`, false, true},
		{"wrong type", `{"approved": "yes"}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(entity.GateBalancing, []byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entity.GateBalancing, d.Gate)
			assert.Equal(t, tt.want, d.Approved)
			assert.JSONEq(t, tt.data, string(d.Raw))
		})
	}
}

func TestParseBalancingFeedback(t *testing.T) {
	d, err := Parse(entity.GateBalancing, []byte(`{"approved": false, "unbalanced_classes": {"moderate": 12, "high": 30}}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"moderate": 12, "high": 30}, d.UnbalancedClasses)
	assert.Nil(t, d.UncoveredFeaturesSuggestions)
}

func TestParseCoverageArtifact(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    bool
		wantErr bool
	}{
		{"approved", `{"approved": true}`, true, false},
		{"rejected with suggestions", `{"approved": false, "uncovered_features_suggestions": {"mean_diff_time": "sample longer sessions"}}`, false, false},
		{"missing approved", `{}`, false, true},
		{"invalid json", `not json at all`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(entity.GateCoverage, []byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entity.GateCoverage, d.Gate)
			assert.Equal(t, tt.want, d.Approved)
		})
	}
}

func TestParseCoverageSuggestions(t *testing.T) {
	d, err := Parse(entity.GateCoverage, []byte(`{"approved": false, "uncovered_features_suggestions": {"mean_diff_time": "sample longer sessions"}}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"mean_diff_time": "sample longer sessions"}, d.UncoveredFeaturesSuggestions)
	assert.Nil(t, d.UnbalancedClasses)
}

func TestParseUnknownGate(t *testing.T) {
	_, err := Parse(entity.GateKind("calibration"), []byte(`{"approved": true}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "balancing_outcome.json", ArtifactName(entity.GateBalancing))
	assert.Equal(t, "coverage_outcome.json", ArtifactName(entity.GateCoverage))
}
