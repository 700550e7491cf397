package contract

import (
	"context"

	"ml-segregation-be/internal/entity"
)

type PipelineStateRepository interface {
	// Get returns the persisted pipeline state, or nil when no run has
	// been recorded yet.
	Get(ctx context.Context) (*entity.PipelineState, error)
	// GetLocked is Get with a row lock held until the surrounding
	// transaction ends, so a write coupled to the current phase cannot
	// interleave with a phase transition.
	GetLocked(ctx context.Context) (*entity.PipelineState, error)
	// Save upserts the single state row with the given phase.
	Save(ctx context.Context, phase entity.PipelinePhase) error
}
