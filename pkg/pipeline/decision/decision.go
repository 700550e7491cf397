package decision

import (
	"encoding/json"
	"errors"
	"fmt"

	"ml-segregation-be/internal/entity"
)

// ErrMalformed marks a decision artifact that is present but unusable.
// The gate keeps waiting when it sees this; it is never fatal.
var ErrMalformed = errors.New("malformed decision artifact")

// Decision is one parsed reviewer verdict for a quality gate. The detail
// fields are advisory feedback only; the orchestrator records them but
// never feeds them back into the intake threshold.
type Decision struct {
	Gate     entity.GateKind
	Approved bool

	// UnbalancedClasses holds "need N more samples of label X" feedback
	// on a rejected balancing round.
	UnbalancedClasses map[string]int

	// UncoveredFeaturesSuggestions holds per-feature sampling advice
	// on a rejected coverage round.
	UncoveredFeaturesSuggestions map[string]string

	// Raw is the artifact body as written by the reviewer, kept verbatim
	// for the audit trail.
	Raw json.RawMessage
}

type balancingArtifact struct {
	Approved          *bool          `json:"approved"`
	UnbalancedClasses map[string]int `json:"unbalanced_classes"`
}

type coverageArtifact struct {
	Approved                     *bool             `json:"approved"`
	UncoveredFeaturesSuggestions map[string]string `json:"uncovered_features_suggestions"`
}

// Parse validates and decodes a decision artifact for the given gate.
func Parse(kind entity.GateKind, data []byte) (*Decision, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown gate %q", ErrMalformed, kind)
	}

	d := &Decision{
		Gate: kind,
		Raw:  json.RawMessage(append([]byte(nil), data...)),
	}

	switch kind {
	case entity.GateBalancing:
		var a balancingArtifact
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if a.Approved == nil {
			return nil, fmt.Errorf("%w: missing required field 'approved'", ErrMalformed)
		}
		d.Approved = *a.Approved
		d.UnbalancedClasses = a.UnbalancedClasses

	case entity.GateCoverage:
		var a coverageArtifact
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if a.Approved == nil {
			return nil, fmt.Errorf("%w: missing required field 'approved'", ErrMalformed)
		}
		d.Approved = *a.Approved
		d.UncoveredFeaturesSuggestions = a.UncoveredFeaturesSuggestions
	}

	return d, nil
}
