package decision

import (
	"context"

	"ml-segregation-be/internal/entity"
)

// Source supplies reviewer decisions to the pipeline. Await blocks until a
// decision for the given gate is available and consumes it exactly once.
// Clear discards any leftover artifact from a previous round so a stale
// verdict cannot be re-interpreted.
type Source interface {
	Await(ctx context.Context, kind entity.GateKind) (*Decision, error)
	Clear(kind entity.GateKind) error
}

// ArtifactName returns the well-known file name a reviewer writes the
// outcome of a gate round to.
func ArtifactName(kind entity.GateKind) string {
	if kind == entity.GateCoverage {
		return "coverage_outcome.json"
	}
	return "balancing_outcome.json"
}
