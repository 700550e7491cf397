package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ml-segregation-be/pkg/pipeline"
)

type ReportSummary struct {
	Gate         string             `json:"gate"`
	Total        int64              `json:"total"`
	Snapshot     *pipeline.Snapshot `json:"snapshot"`
	ArtifactPath string             `json:"artifact_path"`
	RenderedAt   time.Time          `json:"rendered_at"`
}

type PipelineStatusResponse struct {
	Phase        string          `json:"phase"`
	AwaitingGate string          `json:"awaiting_gate,omitempty"`
	Pending      int64           `json:"pending"`
	Deferred     int64           `json:"deferred"`
	Processed    int64           `json:"processed"`
	Threshold    int             `json:"threshold"`
	Reports      []ReportSummary `json:"reports"`
}

// SubmitDecisionRequest is the reviewer verdict posted over HTTP. It is
// written verbatim to the gate's outcome artifact.
type SubmitDecisionRequest struct {
	Approved                     *bool             `json:"approved" validate:"required"`
	UnbalancedClasses            map[string]int    `json:"unbalanced_classes,omitempty"`
	UncoveredFeaturesSuggestions map[string]string `json:"uncovered_features_suggestions,omitempty"`
}

type SubmitDecisionResponse struct {
	Gate         string `json:"gate"`
	ArtifactPath string `json:"artifact_path"`
}

type GateDecisionResponse struct {
	Id        uuid.UUID       `json:"id"`
	Gate      string          `json:"gate"`
	Approved  bool            `json:"approved"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Phase     string          `json:"phase"`
	CreatedAt time.Time       `json:"created_at"`
}

type DispatchRecordResponse struct {
	Id              uuid.UUID       `json:"id"`
	Endpoint        string          `json:"endpoint"`
	SessionCount    int             `json:"session_count"`
	TrainCount      int             `json:"train_count"`
	ValidationCount int             `json:"validation_count"`
	TestCount       int             `json:"test_count"`
	Summary         json.RawMessage `json:"summary,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
