package contract

import (
	"context"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/repository/specification"
)

type DispatchRecordRepository interface {
	Create(ctx context.Context, record *entity.DispatchRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DispatchRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
