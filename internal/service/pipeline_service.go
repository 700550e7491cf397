// FILE: internal/service/pipeline_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ml-segregation-be/internal/dto"
	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/repository/memory"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"
	"ml-segregation-be/pkg/pipeline"
	"ml-segregation-be/pkg/pipeline/decision"
)

var (
	ErrUnknownGate      = errors.New("unknown quality gate")
	ErrReportNotReady   = errors.New("no report rendered for this gate yet")
	ErrGateNotAwaiting  = errors.New("pipeline is not awaiting a decision for this gate")
	ErrDecisionConflict = errors.New("a decision for this gate is already pending consumption")
)

type IPipelineService interface {
	Status(ctx context.Context) (*dto.PipelineStatusResponse, error)
	Report(ctx context.Context, gate string) (*dto.ReportSummary, error)
	SubmitDecision(ctx context.Context, gate string, req *dto.SubmitDecisionRequest) (*dto.SubmitDecisionResponse, error)
	ListDecisions(ctx context.Context, gate string, limit, offset int) ([]*dto.GateDecisionResponse, error)
	ListDispatches(ctx context.Context, limit, offset int) ([]*dto.DispatchRecordResponse, error)
	Logs(level string, limit, offset int) ([]logger.LogEntry, error)
}

type pipelineService struct {
	uowFactory  unitofwork.RepositoryFactory
	registry    *memory.ReportRegistry
	document    pipeline.Document
	outcomesDir string
	logger      logger.ILogger
}

func NewPipelineService(
	uowFactory unitofwork.RepositoryFactory,
	registry *memory.ReportRegistry,
	document pipeline.Document,
	outcomesDir string,
	log logger.ILogger,
) IPipelineService {
	return &pipelineService{
		uowFactory:  uowFactory,
		registry:    registry,
		document:    document,
		outcomesDir: outcomesDir,
		logger:      log,
	}
}

func (s *pipelineService) Status(ctx context.Context) (*dto.PipelineStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	phase := s.document.Mode()
	state, err := uow.PipelineStateRepository().Get(ctx)
	if err != nil {
		return nil, err
	}
	if state != nil {
		phase = state.Phase
	}

	sessionRepo := uow.SessionRepository()
	pending, err := sessionRepo.Count(ctx, specification.Pending{})
	if err != nil {
		return nil, err
	}
	deferred, err := sessionRepo.Count(ctx, specification.Deferred{})
	if err != nil {
		return nil, err
	}
	processed, err := sessionRepo.Count(ctx, specification.Processed{})
	if err != nil {
		return nil, err
	}

	reports := make([]dto.ReportSummary, 0, 2)
	for _, report := range s.registry.All() {
		reports = append(reports, toReportSummary(report))
	}

	return &dto.PipelineStatusResponse{
		Phase:        string(phase),
		AwaitingGate: awaitingGate(phase),
		Pending:      pending,
		Deferred:     deferred,
		Processed:    processed,
		Threshold:    s.document.Threshold(),
		Reports:      reports,
	}, nil
}

func (s *pipelineService) Report(ctx context.Context, gate string) (*dto.ReportSummary, error) {
	kind, err := parseGate(gate)
	if err != nil {
		return nil, err
	}

	report, ok := s.registry.Latest(kind)
	if !ok {
		return nil, ErrReportNotReady
	}
	summary := toReportSummary(report)
	return &summary, nil
}

// SubmitDecision writes the reviewer verdict to the gate's outcome
// artifact, where the decision source picks it up. The pipeline must be
// parked at the matching result phase; a verdict for the wrong gate is
// refused rather than left lying around.
func (s *pipelineService) SubmitDecision(ctx context.Context, gate string, req *dto.SubmitDecisionRequest) (*dto.SubmitDecisionResponse, error) {
	kind, err := parseGate(gate)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	state, err := uow.PipelineStateRepository().Get(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Phase != resultPhase(kind) {
		return nil, ErrGateNotAwaiting
	}

	artifactPath := filepath.Join(s.outcomesDir, decision.ArtifactName(kind))
	if _, err := os.Stat(artifactPath); err == nil {
		return nil, ErrDecisionConflict
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := writeArtifact(artifactPath, payload); err != nil {
		return nil, fmt.Errorf("failed to write decision artifact: %w", err)
	}

	s.logger.Info("PipelineService", "Reviewer decision submitted", map[string]interface{}{
		"gate":     string(kind),
		"approved": *req.Approved,
		"artifact": artifactPath,
	})

	return &dto.SubmitDecisionResponse{
		Gate:         string(kind),
		ArtifactPath: artifactPath,
	}, nil
}

func (s *pipelineService) ListDecisions(ctx context.Context, gate string, limit, offset int) ([]*dto.GateDecisionResponse, error) {
	specs := []specification.Specification{
		specification.NewestFirst{},
		specification.Limit{Limit: limit},
		specification.Offset{Offset: offset},
	}
	if gate != "" {
		kind, err := parseGate(gate)
		if err != nil {
			return nil, err
		}
		specs = append(specs, specification.ByGate{Gate: string(kind)})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	decisions, err := uow.GateDecisionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GateDecisionResponse, 0, len(decisions))
	for _, d := range decisions {
		responses = append(responses, &dto.GateDecisionResponse{
			Id:        d.Id,
			Gate:      string(d.Gate),
			Approved:  d.Approved,
			Detail:    d.Detail,
			Phase:     string(d.Phase),
			CreatedAt: d.CreatedAt,
		})
	}
	return responses, nil
}

func (s *pipelineService) ListDispatches(ctx context.Context, limit, offset int) ([]*dto.DispatchRecordResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.DispatchRecordRepository().FindAll(ctx,
		specification.NewestFirst{},
		specification.Limit{Limit: limit},
		specification.Offset{Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DispatchRecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, &dto.DispatchRecordResponse{
			Id:              r.Id,
			Endpoint:        r.Endpoint,
			SessionCount:    r.SessionCount,
			TrainCount:      r.TrainCount,
			ValidationCount: r.ValidationCount,
			TestCount:       r.TestCount,
			Summary:         r.Summary,
			CreatedAt:       r.CreatedAt,
		})
	}
	return responses, nil
}

func (s *pipelineService) Logs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return s.logger.GetLogs(level, limit, offset)
}

// writeArtifact writes atomically so the watching decision source never
// reads a half-written verdict.
func writeArtifact(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func parseGate(gate string) (entity.GateKind, error) {
	kind := entity.GateKind(gate)
	if !kind.Valid() {
		return "", ErrUnknownGate
	}
	return kind, nil
}

func resultPhase(kind entity.GateKind) entity.PipelinePhase {
	if kind == entity.GateCoverage {
		return entity.PhaseCoverageResult
	}
	return entity.PhaseBalanceResult
}

func awaitingGate(phase entity.PipelinePhase) string {
	switch phase {
	case entity.PhaseBalanceResult:
		return string(entity.GateBalancing)
	case entity.PhaseCoverageResult:
		return string(entity.GateCoverage)
	}
	return ""
}

func toReportSummary(report *pipeline.Report) dto.ReportSummary {
	return dto.ReportSummary{
		Gate:         string(report.Gate),
		Total:        report.Snapshot.Total,
		Snapshot:     report.Snapshot,
		ArtifactPath: report.ArtifactPath,
		RenderedAt:   report.RenderedAt,
	}
}
