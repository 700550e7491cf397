package decision

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileSource(t *testing.T) (*FileSource, string) {
	t.Helper()
	dir := t.TempDir()
	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
	source, err := NewFileSource(dir, 100*time.Millisecond, log)
	require.NoError(t, err)
	return source, dir
}

func TestFileSourceConsumesExistingArtifact(t *testing.T) {
	source, dir := newTestFileSource(t)

	path := filepath.Join(dir, ArtifactName(entity.GateBalancing))
	require.NoError(t, os.WriteFile(path, []byte(`{"approved": true}`), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, err := source.Await(ctx, entity.GateBalancing)
	require.NoError(t, err)
	assert.True(t, d.Approved)

	// Consumed exactly once: the artifact is gone.
	assert.NoFileExists(t, path)
}

func TestFileSourceWaitsForArtifact(t *testing.T) {
	source, dir := newTestFileSource(t)

	path := filepath.Join(dir, ArtifactName(entity.GateCoverage))
	go func() {
		time.Sleep(150 * time.Millisecond)
		tmp := path + ".tmp"
		os.WriteFile(tmp, []byte(`{"approved": false, "uncovered_features_suggestions": {"median_latitude": "add southern hemisphere traffic"}}`), 0o644)
		os.Rename(tmp, path)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, err := source.Await(ctx, entity.GateCoverage)
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Contains(t, d.UncoveredFeaturesSuggestions, "median_latitude")
	assert.NoFileExists(t, path)
}

func TestFileSourceIgnoresOtherGateArtifact(t *testing.T) {
	source, dir := newTestFileSource(t)

	// A coverage verdict must not resolve a balancing round.
	coveragePath := filepath.Join(dir, ArtifactName(entity.GateCoverage))
	require.NoError(t, os.WriteFile(coveragePath, []byte(`{"approved": true}`), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := source.Await(ctx, entity.GateBalancing)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.FileExists(t, coveragePath)
}

func TestFileSourceRemovesMalformedArtifactAndKeepsWaiting(t *testing.T) {
	source, dir := newTestFileSource(t)

	path := filepath.Join(dir, ArtifactName(entity.GateBalancing))
	require.NoError(t, os.WriteFile(path, []byte(`{"unbalanced_classes": {}}`), 0o644))

	go func() {
		// Give the source time to reject and remove the malformed verdict,
		// then drop a corrected one.
		time.Sleep(300 * time.Millisecond)
		os.WriteFile(path, []byte(`{"approved": true}`), 0o644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, err := source.Await(ctx, entity.GateBalancing)
	require.NoError(t, err)
	assert.True(t, d.Approved)
}

func TestFileSourceAwaitHonorsContext(t *testing.T) {
	source, _ := newTestFileSource(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := source.Await(ctx, entity.GateBalancing)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFileSourceClear(t *testing.T) {
	source, dir := newTestFileSource(t)

	path := filepath.Join(dir, ArtifactName(entity.GateBalancing))
	require.NoError(t, os.WriteFile(path, []byte(`{"approved": true}`), 0o644))

	require.NoError(t, source.Clear(entity.GateBalancing))
	assert.NoFileExists(t, path)

	// Clearing an absent artifact is not an error.
	assert.NoError(t, source.Clear(entity.GateBalancing))
}

func TestAutoSourceDeterministicWithSeed(t *testing.T) {
	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
	ctx := context.Background()

	run := func() []bool {
		source := NewAutoSource(42, 0.73, 0.53, log)
		out := make([]bool, 0, 10)
		for i := 0; i < 5; i++ {
			d, err := source.Await(ctx, entity.GateBalancing)
			require.NoError(t, err)
			out = append(out, d.Approved)
			d, err = source.Await(ctx, entity.GateCoverage)
			require.NoError(t, err)
			out = append(out, d.Approved)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestAutoSourceRejectionCarriesFeedback(t *testing.T) {
	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
	source := NewAutoSource(7, 0, 0, log)
	ctx := context.Background()

	d, err := source.Await(ctx, entity.GateBalancing)
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Len(t, d.UnbalancedClasses, 3)
	assert.NotEmpty(t, d.Raw)

	d, err = source.Await(ctx, entity.GateCoverage)
	require.NoError(t, err)
	assert.False(t, d.Approved)

	assert.NoError(t, source.Clear(entity.GateCoverage))
}

func TestAutoSourceHonorsCancelledContext(t *testing.T) {
	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
	source := NewAutoSource(1, 1, 1, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Await(ctx, entity.GateBalancing)
	assert.ErrorIs(t, err, context.Canceled)
}
