package service

import (
	"context"
	"fmt"

	"ml-segregation-be/internal/dto"
	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"
	"ml-segregation-be/pkg/events"
	pktNats "ml-segregation-be/pkg/nats"
)

// Nudger wakes the orchestrator's collecting wait after new sessions land.
type Nudger interface {
	Nudge()
}

type ISessionService interface {
	Store(ctx context.Context, req *dto.StoreSessionsRequest) (*dto.StoreSessionsResponse, error)
	Counts(ctx context.Context, threshold int) (*dto.SessionCountResponse, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	natsPub    *pktNats.Publisher
	logger     logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		publisher:  publisher,
		natsPub:    natsPub,
		logger:     log,
	}
}

func (s *sessionService) Store(ctx context.Context, req *dto.StoreSessionsRequest) (*dto.StoreSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	// Rows landing mid-review are deferred so the batch under review
	// keeps its exact membership; they join the next accumulation cycle.
	// The locked read pins the phase until this transaction commits, so
	// the flag cannot go stale against a concurrent phase transition.
	state, err := uow.PipelineStateRepository().GetLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline phase: %w", err)
	}
	deferred := state != nil && state.Phase != entity.PhaseCollecting

	sessions := make([]*entity.PreparedSession, 0, len(req.Sessions))
	for _, p := range req.Sessions {
		sessions = append(sessions, &entity.PreparedSession{
			Uuid:            p.Uuid,
			Label:           p.Label,
			MedianLongitude: *p.MedianLongitude,
			MedianLatitude:  *p.MedianLatitude,
			MeanDiffTime:    *p.MeanDiffTime,
			MeanDiffAmount:  *p.MeanDiffAmount,
			MedianTargetIP:  p.MedianTargetIP,
			MedianDestIP:    p.MedianDestIP,
			Deferred:        deferred,
		})
	}

	if err := uow.SessionRepository().CreateBatch(ctx, sessions); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("SessionService", "Session batch stored", map[string]interface{}{
		"stored":   len(sessions),
		"deferred": deferred,
	})

	if err := s.publisher.PublishSessionsIngested(len(sessions)); err != nil {
		s.logger.Warn("SessionService", "Failed to publish ingestion nudge", map[string]interface{}{"error": err.Error()})
	}
	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewSessionsStored(len(sessions), deferred)); err != nil {
			s.logger.Warn("SessionService", "Failed to publish SESSIONS_STORED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.StoreSessionsResponse{
		Stored:   len(sessions),
		Deferred: deferred,
	}, nil
}

func (s *sessionService) Counts(ctx context.Context, threshold int) (*dto.SessionCountResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SessionRepository()

	pending, err := repo.Count(ctx, specification.Pending{})
	if err != nil {
		return nil, err
	}
	deferred, err := repo.Count(ctx, specification.Deferred{})
	if err != nil {
		return nil, err
	}
	processed, err := repo.Count(ctx, specification.Processed{})
	if err != nil {
		return nil, err
	}

	return &dto.SessionCountResponse{
		Pending:   pending,
		Deferred:  deferred,
		Processed: processed,
		Threshold: threshold,
	}, nil
}
