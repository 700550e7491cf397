package pipeline

import "errors"

// ErrInsufficientData is returned when a gate is asked to compute a
// statistic over zero pending sessions. The orchestrator logs it and
// re-attempts the phase on the next loop iteration.
var ErrInsufficientData = errors.New("no pending sessions to compute statistic from")
