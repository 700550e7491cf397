package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GateKind identifies one of the two quality gates.
type GateKind string

const (
	GateBalancing GateKind = "balancing"
	GateCoverage  GateKind = "coverage"
)

func (k GateKind) Valid() bool {
	return k == GateBalancing || k == GateCoverage
}

// GateDecision is the audit record of one consumed reviewer decision.
// The live decision artifact itself is consumed exactly once by the gate;
// this row is what remains of it afterwards.
type GateDecision struct {
	Id       uuid.UUID
	Gate     GateKind
	Approved bool
	// Detail carries the advisory feedback verbatim: per-label sample counts
	// for balancing, per-feature suggestions for coverage. Never fed back
	// into the intake threshold automatically.
	Detail    json.RawMessage
	Phase     PipelinePhase
	CreatedAt time.Time
}
