package memory

import (
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/pkg/pipeline"

	"github.com/patrickmn/go-cache"
)

// ReportRegistry keeps the latest rendered report per quality gate for the
// operator status endpoints. Reports age out after a day; the durable
// audit trail lives in the gate_decisions table, not here.
type ReportRegistry struct {
	cache *cache.Cache
}

func NewReportRegistry() *ReportRegistry {
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &ReportRegistry{
		cache: c,
	}
}

func (r *ReportRegistry) Put(report *pipeline.Report) {
	r.cache.Set(string(report.Gate), report, cache.DefaultExpiration)
}

func (r *ReportRegistry) Latest(kind entity.GateKind) (*pipeline.Report, bool) {
	if x, found := r.cache.Get(string(kind)); found {
		return x.(*pipeline.Report), true
	}
	return nil, false
}

func (r *ReportRegistry) All() []*pipeline.Report {
	reports := make([]*pipeline.Report, 0, 2)
	for _, kind := range []entity.GateKind{entity.GateBalancing, entity.GateCoverage} {
		if report, ok := r.Latest(kind); ok {
			reports = append(reports, report)
		}
	}
	return reports
}
