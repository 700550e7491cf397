package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// BalancingGate checks whether the pending batch is acceptably balanced
// across risk labels before the pipeline may proceed.
type BalancingGate struct {
	uowFactory unitofwork.RepositoryFactory
	plotDir    string
	tolerance  float64
	logger     logger.ILogger
}

func NewBalancingGate(uowFactory unitofwork.RepositoryFactory, plotDir string, tolerance float64, log logger.ILogger) *BalancingGate {
	return &BalancingGate{
		uowFactory: uowFactory,
		plotDir:    plotDir,
		tolerance:  tolerance,
		logger:     log,
	}
}

func (g *BalancingGate) Kind() entity.GateKind {
	return entity.GateBalancing
}

func (g *BalancingGate) ResultPhase() entity.PipelinePhase {
	return entity.PhaseBalanceResult
}

func (g *BalancingGate) NextOnApproval() entity.PipelinePhase {
	return entity.PhaseCheckCoverage
}

func (g *BalancingGate) ComputeSnapshot(ctx context.Context) (*Snapshot, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	counts, err := uow.SessionRepository().LabelCounts(ctx, specification.Pending{})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending sessions per label: %w", err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil, ErrInsufficientData
	}

	return &Snapshot{
		Gate:       entity.GateBalancing,
		Total:      total,
		Labels:     counts,
		ComputedAt: time.Now().UTC(),
	}, nil
}

func (g *BalancingGate) Render(snapshot *Snapshot) (string, error) {
	if err := os.MkdirAll(g.plotDir, 0o755); err != nil {
		return "", err
	}

	labels := make([]string, 0, 3)
	data := make([]opts.BarData, 0, 3)
	for _, label := range []string{entity.RiskLabelNormal, entity.RiskLabelModerate, entity.RiskLabelHigh} {
		labels = append(labels, label)
		data = append(data, opts.BarData{Value: snapshot.Labels[label]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Class balancing report",
			Subtitle: fmt.Sprintf("%d pending sessions, tolerance ±%.0f%% around the per-label average", snapshot.Total, g.tolerance*100),
		}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Class balancing report"}),
	)
	bar.SetXAxis(labels).AddSeries("sessions", data)
	bar.SetSeriesOptions(
		charts.WithMarkLineNameTypeItemOpts(opts.MarkLineNameTypeItem{Name: "average", Type: "average"}),
	)

	path := filepath.Join(g.plotDir, "balancing_report.html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		return "", fmt.Errorf("failed to render balancing chart: %w", err)
	}

	g.logger.Info("BalancingGate", "Balancing report rendered", map[string]interface{}{
		"path":  path,
		"total": snapshot.Total,
	})
	return path, nil
}
