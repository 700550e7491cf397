package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"
	"ml-segregation-be/pkg/events"
	"ml-segregation-be/pkg/pipeline/decision"
	"ml-segregation-be/pkg/pipeline/dispatch"
	"ml-segregation-be/pkg/pipeline/sets"
)

// Document is the operator-facing pipeline configuration: the intake
// threshold, the downstream endpoint, and the persisted operation mode
// that is rewritten on every phase transition.
type Document interface {
	Threshold() int
	Endpoint() string
	Mode() entity.PipelinePhase
	RecordMode(phase entity.PipelinePhase) error
}

// EventPublisher pushes pipeline events onto the event bus. Publishing is
// best effort; a bus outage never blocks the control loop.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Options struct {
	// PollInterval bounds how long collecting waits between authoritative
	// count checks when no ingestion nudge arrives.
	PollInterval time.Duration
	// RetryBackoff is the pause before re-entering a phase after a
	// recoverable error.
	RetryBackoff time.Duration
	// SingleShot stops the loop after one successful dispatch.
	SingleShot bool
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Second
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 5 * time.Second
	}
	return o
}

// Orchestrator drives the segregation pipeline through its phases:
//
//	collecting -> check_balance -> balance_result -> check_coverage ->
//	coverage_result -> emit_sets -> collecting
//
// Both gate rejections converge back to collecting. The current phase is
// persisted in the store and is the sole resume state; every transition
// coupled to a data mutation is committed in one transaction with it.
type Orchestrator struct {
	uowFactory unitofwork.RepositoryFactory
	intake     *IntakeGate
	balancing  QualityGate
	coverage   QualityGate
	source     decision.Source
	builder    *sets.Builder
	dispatcher dispatch.Client
	document   Document
	reports    ReportSink
	events     EventPublisher
	logger     logger.ILogger
	opts       Options
	nudge      chan struct{}
}

func NewOrchestrator(
	uowFactory unitofwork.RepositoryFactory,
	intake *IntakeGate,
	balancing QualityGate,
	coverage QualityGate,
	source decision.Source,
	builder *sets.Builder,
	dispatcher dispatch.Client,
	document Document,
	reports ReportSink,
	eventPublisher EventPublisher,
	log logger.ILogger,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		uowFactory: uowFactory,
		intake:     intake,
		balancing:  balancing,
		coverage:   coverage,
		source:     source,
		builder:    builder,
		dispatcher: dispatcher,
		document:   document,
		reports:    reports,
		events:     eventPublisher,
		logger:     log,
		opts:       opts.withDefaults(),
		nudge:      make(chan struct{}, 1),
	}
}

// Nudge wakes a collecting orchestrator so it re-checks the intake
// threshold without waiting for the poll interval. Safe to call from any
// goroutine; redundant nudges coalesce.
func (o *Orchestrator) Nudge() {
	select {
	case o.nudge <- struct{}{}:
	default:
	}
}

// Run executes the control loop until the context is cancelled or, in
// single-shot mode, until one dispatch completes. All step errors are
// recoverable: the loop logs, backs off, and re-enters the same phase.
func (o *Orchestrator) Run(ctx context.Context) error {
	phase, err := o.resumePhase(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume pipeline phase: %w", err)
	}

	o.logger.Info("Orchestrator", "Pipeline loop started", map[string]interface{}{
		"phase":     string(phase),
		"threshold": o.document.Threshold(),
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, dispatched, err := o.step(ctx, phase)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			o.logger.Error("Orchestrator", "Phase step failed, retrying", map[string]interface{}{
				"phase": string(phase),
				"error": err.Error(),
			})
			if !o.sleep(ctx, o.opts.RetryBackoff) {
				return ctx.Err()
			}
			continue
		}

		if next == phase {
			continue
		}

		o.afterTransition(ctx, phase, next)
		// Leaving emit_sets is not enough for single-shot: an empty emit
		// also falls back to collecting without delivering anything.
		if dispatched && o.opts.SingleShot {
			o.logger.Info("Orchestrator", "Single-shot run complete", nil)
			return nil
		}
		phase = next
	}
}

// step runs one phase and reports the next phase plus whether a dispatch
// actually completed, which is what single-shot mode waits for.
func (o *Orchestrator) step(ctx context.Context, phase entity.PipelinePhase) (entity.PipelinePhase, bool, error) {
	var (
		next entity.PipelinePhase
		err  error
	)
	switch phase {
	case entity.PhaseCollecting:
		next, err = o.stepCollecting(ctx)
	case entity.PhaseCheckBalance:
		next, err = o.stepCheck(ctx, o.balancing)
	case entity.PhaseBalanceResult:
		next, err = o.stepResult(ctx, o.balancing)
	case entity.PhaseCheckCoverage:
		next, err = o.stepCheck(ctx, o.coverage)
	case entity.PhaseCoverageResult:
		next, err = o.stepResult(ctx, o.coverage)
	case entity.PhaseEmitSets:
		return o.stepEmitSets(ctx)
	default:
		return phase, false, fmt.Errorf("unknown pipeline phase %q", phase)
	}
	return next, false, err
}

func (o *Orchestrator) stepCollecting(ctx context.Context) (entity.PipelinePhase, error) {
	ready, err := o.intake.Ready(ctx, o.document.Threshold())
	if err != nil {
		return entity.PhaseCollecting, err
	}
	if !ready {
		if !o.waitForSessions(ctx) {
			return entity.PhaseCollecting, ctx.Err()
		}
		return entity.PhaseCollecting, nil
	}

	if err := o.persistPhase(ctx, entity.PhaseCheckBalance); err != nil {
		return entity.PhaseCollecting, err
	}
	return entity.PhaseCheckBalance, nil
}

func (o *Orchestrator) stepCheck(ctx context.Context, gate QualityGate) (entity.PipelinePhase, error) {
	current := checkPhase(gate)

	snapshot, err := gate.ComputeSnapshot(ctx)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			o.logger.Warn("Orchestrator", "Gate has no data yet, re-attempting", map[string]interface{}{
				"gate": string(gate.Kind()),
			})
			if !o.sleep(ctx, o.opts.RetryBackoff) {
				return current, ctx.Err()
			}
			return current, nil
		}
		return current, err
	}

	// A verdict left over from an earlier round must not be mistaken for
	// this round's decision. Anything written after this point counts.
	if err := o.source.Clear(gate.Kind()); err != nil {
		return current, fmt.Errorf("failed to clear stale decision artifact: %w", err)
	}

	artifactPath, err := gate.Render(snapshot)
	if err != nil {
		return current, err
	}

	if o.reports != nil {
		o.reports.Put(&Report{
			Gate:         gate.Kind(),
			Snapshot:     snapshot,
			ArtifactPath: artifactPath,
			RenderedAt:   time.Now().UTC(),
		})
	}

	if err := o.persistPhase(ctx, gate.ResultPhase()); err != nil {
		return current, err
	}

	o.publish(ctx, events.NewReviewRequested(string(gate.Kind()), artifactPath, snapshot.Total))
	return gate.ResultPhase(), nil
}

func (o *Orchestrator) stepResult(ctx context.Context, gate QualityGate) (entity.PipelinePhase, error) {
	current := gate.ResultPhase()

	d, err := o.source.Await(ctx, gate.Kind())
	if err != nil {
		return current, err
	}

	next := ApplyDecision(gate, d)

	uow := o.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return current, err
	}
	defer uow.Rollback()

	audit := &entity.GateDecision{
		Gate:     gate.Kind(),
		Approved: d.Approved,
		Detail:   d.Raw,
		Phase:    current,
	}
	if err := uow.GateDecisionRepository().Create(ctx, audit); err != nil {
		return current, err
	}

	if !d.Approved {
		// Rejection never discards data: every undispatched session,
		// deferred or not, re-enters the pending pool for the next
		// accumulation cycle.
		if err := uow.SessionRepository().RequeueDeferred(ctx); err != nil {
			return current, err
		}
	}

	if err := uow.PipelineStateRepository().Save(ctx, next); err != nil {
		return current, err
	}
	if err := uow.Commit(); err != nil {
		return current, err
	}

	o.logger.Info("Orchestrator", "Gate decision applied", map[string]interface{}{
		"gate":     string(gate.Kind()),
		"approved": d.Approved,
		"next":     string(next),
	})
	o.publish(ctx, events.NewGateOutcome(string(gate.Kind()), d.Approved, decisionDetail(d)))
	return next, nil
}

func (o *Orchestrator) stepEmitSets(ctx context.Context) (entity.PipelinePhase, bool, error) {
	current := entity.PhaseEmitSets

	uow := o.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.SessionRepository().FindAll(ctx, specification.Pending{})
	if err != nil {
		return current, false, err
	}
	if len(sessions) == 0 {
		// The approved batch is gone from under us; nothing to dispatch.
		o.logger.Warn("Orchestrator", "No pending sessions left to dispatch, returning to collecting", nil)
		if err := o.persistPhase(ctx, entity.PhaseCollecting); err != nil {
			return current, false, err
		}
		return entity.PhaseCollecting, false, nil
	}

	bundle, err := o.builder.Build(sessions)
	if err != nil {
		return current, false, err
	}

	endpoint := o.document.Endpoint()
	if err := o.dispatcher.Send(ctx, bundle, endpoint); err != nil {
		// Phase stays at emit_sets: nothing was marked processed, so the
		// next iteration (or a restarted process) retries safely.
		return current, false, err
	}

	summary, err := json.Marshal(bundle.LabelCounts)
	if err != nil {
		summary = []byte("{}")
	}
	record := &entity.DispatchRecord{
		Endpoint:        endpoint,
		SessionCount:    bundle.Size(),
		TrainCount:      len(bundle.Train),
		ValidationCount: len(bundle.Validation),
		TestCount:       len(bundle.Test),
		Summary:         summary,
	}

	txUow := o.uowFactory.NewUnitOfWork(ctx)
	if err := txUow.Begin(ctx); err != nil {
		return current, false, err
	}
	defer txUow.Rollback()

	if err := txUow.SessionRepository().MarkProcessed(ctx, bundle.SessionUuids()); err != nil {
		return current, false, err
	}
	if err := txUow.SessionRepository().RequeueDeferred(ctx); err != nil {
		return current, false, err
	}
	if err := txUow.DispatchRecordRepository().Create(ctx, record); err != nil {
		return current, false, err
	}
	if err := txUow.PipelineStateRepository().Save(ctx, entity.PhaseCollecting); err != nil {
		return current, false, err
	}
	if err := txUow.Commit(); err != nil {
		return current, false, err
	}

	o.logger.Info("Orchestrator", "Learning sets dispatched", map[string]interface{}{
		"endpoint":   endpoint,
		"sessions":   bundle.Size(),
		"train":      len(bundle.Train),
		"validation": len(bundle.Validation),
		"test":       len(bundle.Test),
	})
	o.publish(ctx, events.NewSetsDispatched(endpoint, len(bundle.Train), len(bundle.Validation), len(bundle.Test)))
	return entity.PhaseCollecting, true, nil
}

// resumePhase loads the persisted phase. The state row is authoritative;
// the configuration document seeds it on the very first run.
func (o *Orchestrator) resumePhase(ctx context.Context) (entity.PipelinePhase, error) {
	uow := o.uowFactory.NewUnitOfWork(ctx)

	state, err := uow.PipelineStateRepository().Get(ctx)
	if err != nil {
		return "", err
	}
	if state != nil {
		return state.Phase, nil
	}

	phase := o.document.Mode()
	if !phase.Valid() {
		phase = entity.PhaseCollecting
	}
	if err := uow.PipelineStateRepository().Save(ctx, phase); err != nil {
		return "", err
	}
	return phase, nil
}

func (o *Orchestrator) persistPhase(ctx context.Context, phase entity.PipelinePhase) error {
	uow := o.uowFactory.NewUnitOfWork(ctx)
	return uow.PipelineStateRepository().Save(ctx, phase)
}

func (o *Orchestrator) afterTransition(ctx context.Context, from, to entity.PipelinePhase) {
	if err := o.document.RecordMode(to); err != nil {
		o.logger.Warn("Orchestrator", "Failed to rewrite configuration document", map[string]interface{}{
			"mode":  string(to),
			"error": err.Error(),
		})
	}
	o.logger.Info("Orchestrator", "Phase transition", map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})
	o.publish(ctx, events.NewPhaseChanged(string(from), string(to)))
}

// waitForSessions blocks until an ingestion nudge, the poll interval, or
// cancellation. Returns false when the context is done.
func (o *Orchestrator) waitForSessions(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-o.nudge:
		return true
	case <-time.After(o.opts.PollInterval):
		return true
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("Orchestrator", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func checkPhase(gate QualityGate) entity.PipelinePhase {
	if gate.Kind() == entity.GateCoverage {
		return entity.PhaseCheckCoverage
	}
	return entity.PhaseCheckBalance
}

func decisionDetail(d *decision.Decision) map[string]interface{} {
	detail := map[string]interface{}{}
	if len(d.UnbalancedClasses) > 0 {
		detail["unbalanced_classes"] = d.UnbalancedClasses
	}
	if len(d.UncoveredFeaturesSuggestions) > 0 {
		detail["uncovered_features_suggestions"] = d.UncoveredFeaturesSuggestions
	}
	return detail
}
