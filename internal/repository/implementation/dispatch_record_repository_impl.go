package implementation

import (
	"context"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/mapper"
	"ml-segregation-be/internal/model"
	"ml-segregation-be/internal/repository/contract"
	"ml-segregation-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DispatchRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DispatchRecordMapper
}

func NewDispatchRecordRepository(db *gorm.DB) contract.DispatchRecordRepository {
	return &DispatchRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewDispatchRecordMapper(),
	}
}

func (r *DispatchRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DispatchRecordRepositoryImpl) Create(ctx context.Context, record *entity.DispatchRecord) error {
	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *DispatchRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DispatchRecord, error) {
	var models []*model.DispatchRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DispatchRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DispatchRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
