package contract

import (
	"context"
	"errors"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/repository/specification"
)

// ErrDuplicateSession is returned when a batch carries a uuid that is
// already stored. The whole batch is rejected.
var ErrDuplicateSession = errors.New("session uuid already stored")

type SessionRepository interface {
	CreateBatch(ctx context.Context, sessions []*entity.PreparedSession) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PreparedSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// LabelCounts aggregates matching sessions per risk label in a single
	// query; the store is the only trusted counter.
	LabelCounts(ctx context.Context, specs ...specification.Specification) (map[string]int64, error)
	MarkProcessed(ctx context.Context, uuids []string) error
	// RequeueDeferred returns every undispatched session to the pending
	// pool, clearing the deferred marker.
	RequeueDeferred(ctx context.Context) error
	DeleteProcessed(ctx context.Context) (int64, error)
}
