package events

import "time"

// Event type codes for the segregation pipeline. The NATS subject is
// derived from these ("events.<code>").
const (
	TypeSessionsStored  = "SESSIONS_STORED"
	TypePhaseChanged    = "PHASE_CHANGED"
	TypeReviewRequested = "REVIEW_REQUESTED"
	TypeGateApproved    = "GATE_APPROVED"
	TypeGateRejected    = "GATE_REJECTED"
	TypeSetsDispatched  = "SETS_DISPATCHED"
)

func NewSessionsStored(stored int, deferred bool) Event {
	return BaseEvent{
		Type: TypeSessionsStored,
		Data: map[string]interface{}{
			"stored":   stored,
			"deferred": deferred,
		},
		OccurredAt: time.Now(),
	}
}

func NewPhaseChanged(from, to string) Event {
	return BaseEvent{
		Type: TypePhaseChanged,
		Data: map[string]interface{}{
			"from": from,
			"to":   to,
		},
		OccurredAt: time.Now(),
	}
}

func NewReviewRequested(gate, artifactPath string, total int64) Event {
	return BaseEvent{
		Type: TypeReviewRequested,
		Data: map[string]interface{}{
			"gate":          gate,
			"artifact_path": artifactPath,
			"total":         total,
		},
		OccurredAt: time.Now(),
	}
}

func NewGateOutcome(gate string, approved bool, detail map[string]interface{}) Event {
	typeCode := TypeGateApproved
	if !approved {
		typeCode = TypeGateRejected
	}
	return BaseEvent{
		Type: typeCode,
		Data: map[string]interface{}{
			"gate":     gate,
			"approved": approved,
			"detail":   detail,
		},
		OccurredAt: time.Now(),
	}
}

func NewSetsDispatched(endpoint string, train, validation, test int) Event {
	return BaseEvent{
		Type: TypeSetsDispatched,
		Data: map[string]interface{}{
			"endpoint":   endpoint,
			"train":      train,
			"validation": validation,
			"test":       test,
		},
		OccurredAt: time.Now(),
	}
}
