package pipeline

import (
	"context"
	"fmt"

	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"
)

// IntakeGate decides when enough sessions have accumulated to start a
// review cycle. It has no state of its own: every check is a single count
// query against the store, so concurrent ingestion and process restarts
// can never desynchronize it.
type IntakeGate struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewIntakeGate(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *IntakeGate {
	return &IntakeGate{
		uowFactory: uowFactory,
		logger:     log,
	}
}

// Ready reports whether at least threshold pending sessions are stored.
func (g *IntakeGate) Ready(ctx context.Context, threshold int) (bool, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	count, err := uow.SessionRepository().Count(ctx, specification.Pending{})
	if err != nil {
		return false, fmt.Errorf("failed to count pending sessions: %w", err)
	}

	ready := count >= int64(threshold)
	g.logger.Debug("IntakeGate", "Intake check", map[string]interface{}{
		"pending":   count,
		"threshold": threshold,
		"ready":     ready,
	})
	return ready, nil
}
