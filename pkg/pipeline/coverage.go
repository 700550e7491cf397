package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// CoverageGate checks whether the pending batch covers the numeric feature
// space well enough before the pipeline may proceed.
type CoverageGate struct {
	uowFactory unitofwork.RepositoryFactory
	plotDir    string
	logger     logger.ILogger
}

func NewCoverageGate(uowFactory unitofwork.RepositoryFactory, plotDir string, log logger.ILogger) *CoverageGate {
	return &CoverageGate{
		uowFactory: uowFactory,
		plotDir:    plotDir,
		logger:     log,
	}
}

func (g *CoverageGate) Kind() entity.GateKind {
	return entity.GateCoverage
}

func (g *CoverageGate) ResultPhase() entity.PipelinePhase {
	return entity.PhaseCoverageResult
}

func (g *CoverageGate) NextOnApproval() entity.PipelinePhase {
	return entity.PhaseEmitSets
}

func (g *CoverageGate) ComputeSnapshot(ctx context.Context) (*Snapshot, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.SessionRepository().FindAll(ctx, specification.Pending{})
	if err != nil {
		return nil, fmt.Errorf("failed to load pending sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrInsufficientData
	}

	features := make(map[string]FiveNumberSummary, len(entity.NumericFeatureNames))
	for _, name := range entity.NumericFeatureNames {
		values := make([]float64, 0, len(sessions))
		for _, s := range sessions {
			values = append(values, s.NumericFeatures()[name])
		}
		features[name] = summarize(values)
	}

	return &Snapshot{
		Gate:       entity.GateCoverage,
		Total:      int64(len(sessions)),
		Features:   features,
		ComputedAt: time.Now().UTC(),
	}, nil
}

func (g *CoverageGate) Render(snapshot *Snapshot) (string, error) {
	if err := os.MkdirAll(g.plotDir, 0o755); err != nil {
		return "", err
	}

	data := make([]opts.BoxPlotData, 0, len(entity.NumericFeatureNames))
	for _, name := range entity.NumericFeatureNames {
		s := snapshot.Features[name]
		data = append(data, opts.BoxPlotData{Value: []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max}})
	}

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Feature coverage report",
			Subtitle: fmt.Sprintf("five-number summary over %d pending sessions", snapshot.Total),
		}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Feature coverage report"}),
	)
	box.SetXAxis(entity.NumericFeatureNames).AddSeries("features", data)

	path := filepath.Join(g.plotDir, "coverage_report.html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := box.Render(f); err != nil {
		return "", fmt.Errorf("failed to render coverage chart: %w", err)
	}

	g.logger.Info("CoverageGate", "Coverage report rendered", map[string]interface{}{
		"path":  path,
		"total": snapshot.Total,
	})
	return path, nil
}

// summarize computes the five-number summary with linearly interpolated
// quartiles.
func summarize(values []float64) FiveNumberSummary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return FiveNumberSummary{
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.50),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
