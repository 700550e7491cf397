package pipeline

import (
	"context"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/pkg/pipeline/decision"
)

// FiveNumberSummary describes the spread of one numeric feature over the
// pending sessions.
type FiveNumberSummary struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Snapshot is the statistic a quality gate computes for human review.
// Labels is populated by the balancing gate, Features by the coverage gate.
type Snapshot struct {
	Gate       entity.GateKind              `json:"gate"`
	Total      int64                        `json:"total"`
	Labels     map[string]int64             `json:"labels,omitempty"`
	Features   map[string]FiveNumberSummary `json:"features,omitempty"`
	ComputedAt time.Time                    `json:"computed_at"`
}

// Report is the reviewable outcome of one gate round: the snapshot plus
// the rendered chart artifact.
type Report struct {
	Gate         entity.GateKind `json:"gate"`
	Snapshot     *Snapshot       `json:"snapshot"`
	ArtifactPath string          `json:"artifact_path"`
	RenderedAt   time.Time       `json:"rendered_at"`
}

// ReportSink receives the latest report per gate, typically for the
// operator status endpoint.
type ReportSink interface {
	Put(report *Report)
}

// QualityGate is the shared contract of the two review checkpoints. The
// balancing and coverage gates differ only in the statistic they compute,
// the chart they render, and the phase approval advances to.
type QualityGate interface {
	Kind() entity.GateKind
	// ResultPhase is the phase that waits for this gate's decision.
	ResultPhase() entity.PipelinePhase
	// NextOnApproval is the phase an approving decision advances to.
	NextOnApproval() entity.PipelinePhase
	ComputeSnapshot(ctx context.Context) (*Snapshot, error)
	// Render writes the review chart and returns the artifact path.
	// Rendering is idempotent; re-running it after a restart is safe.
	Render(snapshot *Snapshot) (string, error)
}

// ApplyDecision is the transition rule shared by both gates: approval
// advances the pipeline, rejection returns it to accumulation.
func ApplyDecision(g QualityGate, d *decision.Decision) entity.PipelinePhase {
	if d.Approved {
		return g.NextOnApproval()
	}
	return entity.PhaseCollecting
}
