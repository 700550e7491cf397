package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
)

// AutoSource resolves gate rounds immediately with a seeded random policy,
// standing in for the human reviewer in automated and simulation runs.
// A fixed seed makes a whole run reproducible.
type AutoSource struct {
	mu           sync.Mutex
	rng          *rand.Rand
	approveRates map[entity.GateKind]float64
	logger       logger.ILogger
}

func NewAutoSource(seed int64, balancingRate, coverageRate float64, log logger.ILogger) *AutoSource {
	return &AutoSource{
		rng: rand.New(rand.NewSource(seed)),
		approveRates: map[entity.GateKind]float64{
			entity.GateBalancing: balancingRate,
			entity.GateCoverage:  coverageRate,
		},
		logger: log,
	}
}

func (s *AutoSource) Await(ctx context.Context, kind entity.GateKind) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	approved := s.rng.Float64() < s.approveRates[kind]
	d := &Decision{Gate: kind, Approved: approved}

	if !approved {
		switch kind {
		case entity.GateBalancing:
			d.UnbalancedClasses = map[string]int{
				entity.RiskLabelNormal:   s.rng.Intn(50),
				entity.RiskLabelModerate: s.rng.Intn(50),
				entity.RiskLabelHigh:     s.rng.Intn(50),
			}
		case entity.GateCoverage:
			d.UncoveredFeaturesSuggestions = map[string]string{}
			for _, feature := range entity.NumericFeatureNames {
				if s.rng.Float64() < 0.5 {
					d.UncoveredFeaturesSuggestions[feature] = "widen the sampled value range"
				}
			}
		}
	}

	raw, err := json.Marshal(s.artifactBody(d))
	if err != nil {
		return nil, fmt.Errorf("failed to encode automated decision: %w", err)
	}
	d.Raw = raw

	s.logger.Info("DecisionSource", "Automated decision resolved", map[string]interface{}{
		"gate":     string(kind),
		"approved": approved,
	})
	return d, nil
}

func (s *AutoSource) artifactBody(d *Decision) map[string]interface{} {
	body := map[string]interface{}{"approved": d.Approved}
	switch d.Gate {
	case entity.GateBalancing:
		body["unbalanced_classes"] = d.UnbalancedClasses
	case entity.GateCoverage:
		body["uncovered_features_suggestions"] = d.UncoveredFeaturesSuggestions
	}
	return body
}

func (s *AutoSource) Clear(kind entity.GateKind) error {
	return nil
}
