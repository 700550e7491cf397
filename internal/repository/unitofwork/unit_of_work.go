package unitofwork

import (
	"context"

	"ml-segregation-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	PipelineStateRepository() contract.PipelineStateRepository
	GateDecisionRepository() contract.GateDecisionRepository
	DispatchRecordRepository() contract.DispatchRecordRepository
}
