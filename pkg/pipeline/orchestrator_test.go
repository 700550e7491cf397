package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/pkg/pipeline/decision"
	"ml-segregation-be/pkg/pipeline/sets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed sequence of decisions per gate and
// records every Await and Clear call.
type scriptedSource struct {
	mu        sync.Mutex
	decisions map[entity.GateKind][]*decision.Decision
	awaited   []entity.GateKind
	cleared   []entity.GateKind
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{decisions: make(map[entity.GateKind][]*decision.Decision)}
}

func (s *scriptedSource) script(kind entity.GateKind, approved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[kind] = append(s.decisions[kind], &decision.Decision{Gate: kind, Approved: approved})
}

func (s *scriptedSource) Await(ctx context.Context, kind entity.GateKind) (*decision.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaited = append(s.awaited, kind)
	queue := s.decisions[kind]
	if len(queue) == 0 {
		return nil, errors.New("no scripted decision left for gate " + string(kind))
	}
	d := queue[0]
	s.decisions[kind] = queue[1:]
	return d, nil
}

func (s *scriptedSource) Clear(kind entity.GateKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, kind)
	return nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	bundles  []*sets.Bundle
	failures int
}

func (d *recordingDispatcher) Send(ctx context.Context, bundle *sets.Bundle, endpoint string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return errors.New("endpoint unavailable")
	}
	d.bundles = append(d.bundles, bundle)
	return nil
}

type staticDocument struct {
	mu        sync.Mutex
	threshold int
	endpoint  string
	mode      entity.PipelinePhase
	recorded  []entity.PipelinePhase
}

func (d *staticDocument) Threshold() int { return d.threshold }
func (d *staticDocument) Endpoint() string {
	return d.endpoint
}
func (d *staticDocument) Mode() entity.PipelinePhase { return d.mode }
func (d *staticDocument) RecordMode(phase entity.PipelinePhase) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = phase
	d.recorded = append(d.recorded, phase)
	return nil
}

type memorySink struct {
	mu      sync.Mutex
	reports []*Report
}

func (s *memorySink) Put(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
}

func testOrchestrator(t *testing.T, store *fakeStore, source decision.Source, dispatcher *recordingDispatcher, doc *staticDocument) (*Orchestrator, *memorySink) {
	t.Helper()

	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
	factory := newFakeFactory(store)
	plotDir := t.TempDir()

	builder, err := sets.NewBuilder(sets.DefaultRatios())
	require.NoError(t, err)

	sink := &memorySink{}
	o := NewOrchestrator(
		factory,
		NewIntakeGate(factory, log),
		NewBalancingGate(factory, plotDir, 0.20, log),
		NewCoverageGate(factory, plotDir, log),
		source,
		builder,
		dispatcher,
		doc,
		sink,
		nil,
		log,
		Options{
			PollInterval: 10 * time.Millisecond,
			RetryBackoff: 10 * time.Millisecond,
			SingleShot:   true,
		},
	)
	return o, sink
}

func TestOrchestratorFullCycle(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 20, false)
	store.seed("m", entity.RiskLabelModerate, 20, false)
	store.seed("h", entity.RiskLabelHigh, 20, false)

	source := newScriptedSource()
	source.script(entity.GateBalancing, true)
	source.script(entity.GateCoverage, true)

	dispatcher := &recordingDispatcher{}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, sink := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx))

	require.Len(t, dispatcher.bundles, 1)
	assert.Equal(t, 60, dispatcher.bundles[0].Size())

	processed := store.countWhere(func(s *entity.PreparedSession) bool { return s.Processed })
	assert.Equal(t, 60, processed)
	assert.Equal(t, entity.PhaseCollecting, store.phase())

	// Both gates rendered a report and were consulted in order.
	assert.Equal(t, []entity.GateKind{entity.GateBalancing, entity.GateCoverage}, source.awaited)
	assert.Equal(t, []entity.GateKind{entity.GateBalancing, entity.GateCoverage}, source.cleared)
	require.Len(t, sink.reports, 2)
	assert.FileExists(t, sink.reports[0].ArtifactPath)
	assert.FileExists(t, sink.reports[1].ArtifactPath)

	// Audit trail holds both approvals.
	require.Len(t, store.decisions, 2)
	assert.True(t, store.decisions[0].Approved)
	assert.True(t, store.decisions[1].Approved)

	require.Len(t, store.records, 1)
	assert.Equal(t, 60, store.records[0].SessionCount)
	assert.Equal(t, "http://dev.local/sets", store.records[0].Endpoint)
}

func TestOrchestratorRejectionRequeuesDeferred(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 20, false)
	store.seed("m", entity.RiskLabelModerate, 20, false)
	store.seed("h", entity.RiskLabelHigh, 20, false)
	// Sessions that arrived mid-review sit out the current batch.
	store.seed("d", entity.RiskLabelNormal, 18, true)

	source := newScriptedSource()
	source.script(entity.GateBalancing, false) // first round rejected
	source.script(entity.GateBalancing, true)  // second round approved
	source.script(entity.GateCoverage, true)

	dispatcher := &recordingDispatcher{}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, _ := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx))

	// Rejection discarded nothing: the deferred rows joined the retry
	// round, so the eventual dispatch covers all 78 sessions.
	require.Len(t, dispatcher.bundles, 1)
	assert.Equal(t, 78, dispatcher.bundles[0].Size())
	assert.Equal(t, 78, store.countWhere(func(s *entity.PreparedSession) bool { return s.Processed }))
	assert.Equal(t, 0, store.countWhere(func(s *entity.PreparedSession) bool { return s.Deferred && !s.Processed }))

	// Audit trail: rejected balancing, approved balancing, approved coverage.
	require.Len(t, store.decisions, 3)
	assert.False(t, store.decisions[0].Approved)
	assert.Equal(t, entity.GateBalancing, store.decisions[0].Gate)
	assert.True(t, store.decisions[1].Approved)
	assert.True(t, store.decisions[2].Approved)
}

func TestOrchestratorBelowThresholdWaits(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 49, false)

	source := newScriptedSource()
	dispatcher := &recordingDispatcher{}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, _ := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := o.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// 49 of 50: the pipeline never left collecting.
	assert.Equal(t, entity.PhaseCollecting, store.phase())
	assert.Empty(t, source.awaited)
	assert.Empty(t, dispatcher.bundles)
}

func TestOrchestratorResumesFromPersistedPhase(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 30, false)
	store.seed("m", entity.RiskLabelModerate, 30, false)
	// A restart mid-review: the process died while waiting on coverage.
	store.setPhase(entity.PhaseCoverageResult)

	source := newScriptedSource()
	source.script(entity.GateCoverage, true)

	dispatcher := &recordingDispatcher{}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, _ := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx))

	// Resumed directly at the coverage verdict; balancing was not redone.
	assert.Equal(t, []entity.GateKind{entity.GateCoverage}, source.awaited)
	require.Len(t, dispatcher.bundles, 1)
	assert.Equal(t, 60, dispatcher.bundles[0].Size())
}

func TestOrchestratorRetriesFailedDispatch(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 60, false)
	store.setPhase(entity.PhaseEmitSets)

	source := newScriptedSource()
	dispatcher := &recordingDispatcher{failures: 2}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, _ := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx))

	// Two failed attempts marked nothing processed; the third delivered
	// exactly once.
	require.Len(t, dispatcher.bundles, 1)
	assert.Equal(t, 60, store.countWhere(func(s *entity.PreparedSession) bool { return s.Processed }))
	require.Len(t, store.records, 1)
}

func TestOrchestratorEmptyEmitReturnsToCollecting(t *testing.T) {
	store := newFakeStore()
	store.setPhase(entity.PhaseEmitSets)

	source := newScriptedSource()
	dispatcher := &recordingDispatcher{}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, _ := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	// With nothing to dispatch the loop falls back to collecting and
	// keeps running even in single-shot mode, waiting for sessions until
	// the deadline. Only a delivered bundle ends a single-shot run.
	err := o.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, entity.PhaseCollecting, store.phase())
	assert.Empty(t, dispatcher.bundles)
	assert.Equal(t, []entity.PipelinePhase{entity.PhaseCollecting}, doc.recorded)
}

func TestOrchestratorInsufficientDataKeepsWaiting(t *testing.T) {
	store := newFakeStore()
	store.setPhase(entity.PhaseCheckBalance)

	source := newScriptedSource()
	dispatcher := &recordingDispatcher{}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, _ := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := o.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The gate never produced a report, so no decision was requested and
	// the phase did not move.
	assert.Equal(t, entity.PhaseCheckBalance, store.phase())
	assert.Empty(t, source.awaited)
	assert.Empty(t, source.cleared)
}

func TestOrchestratorRecordsModeOnTransitions(t *testing.T) {
	store := newFakeStore()
	store.seed("n", entity.RiskLabelNormal, 60, false)

	source := newScriptedSource()
	source.script(entity.GateBalancing, true)
	source.script(entity.GateCoverage, true)

	dispatcher := &recordingDispatcher{}
	doc := &staticDocument{threshold: 50, endpoint: "http://dev.local/sets", mode: entity.PhaseCollecting}

	o, _ := testOrchestrator(t, store, source, dispatcher, doc)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx))

	assert.Equal(t, []entity.PipelinePhase{
		entity.PhaseCheckBalance,
		entity.PhaseBalanceResult,
		entity.PhaseCheckCoverage,
		entity.PhaseCoverageResult,
		entity.PhaseEmitSets,
		entity.PhaseCollecting,
	}, doc.recorded)
}
