package entity

import (
	"fmt"
	"time"
)

// PipelinePhase is the persisted control state of the segregation pipeline.
// The string values double as the operationMode field of the pipeline
// configuration document, so they are part of the external contract.
type PipelinePhase string

const (
	PhaseCollecting     PipelinePhase = "collecting"
	PhaseCheckBalance   PipelinePhase = "check_balance"
	PhaseBalanceResult  PipelinePhase = "balance_result"
	PhaseCheckCoverage  PipelinePhase = "check_coverage"
	PhaseCoverageResult PipelinePhase = "coverage_result"
	PhaseEmitSets       PipelinePhase = "emit_sets"
)

// AllPhases returns every phase in pipeline order.
func AllPhases() []PipelinePhase {
	return []PipelinePhase{
		PhaseCollecting,
		PhaseCheckBalance,
		PhaseBalanceResult,
		PhaseCheckCoverage,
		PhaseCoverageResult,
		PhaseEmitSets,
	}
}

func (p PipelinePhase) Valid() bool {
	switch p {
	case PhaseCollecting, PhaseCheckBalance, PhaseBalanceResult,
		PhaseCheckCoverage, PhaseCoverageResult, PhaseEmitSets:
		return true
	}
	return false
}

func (p PipelinePhase) String() string {
	return string(p)
}

// ParsePipelinePhase converts a persisted operationMode string into a phase.
func ParsePipelinePhase(s string) (PipelinePhase, error) {
	p := PipelinePhase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown pipeline phase %q", s)
	}
	return p, nil
}

// PipelineState is the single durable row holding the current phase.
type PipelineState struct {
	Id        int
	Phase     PipelinePhase
	UpdatedAt time.Time
}
