package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DispatchRecord is the durable trace of one acknowledged learning-set
// delivery. Written in the same transaction that marks the batch processed,
// so a record existing implies the sessions it covers are settled.
type DispatchRecord struct {
	Id              uuid.UUID
	Endpoint        string
	SessionCount    int
	TrainCount      int
	ValidationCount int
	TestCount       int
	// Summary holds the per-label composition of the dispatched bundle.
	Summary   json.RawMessage
	CreatedAt time.Time
}
