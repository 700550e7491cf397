package contract

import (
	"context"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/repository/specification"
)

type GateDecisionRepository interface {
	Create(ctx context.Context, decision *entity.GateDecision) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GateDecision, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
