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

type GateDecisionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GateDecisionMapper
}

func NewGateDecisionRepository(db *gorm.DB) contract.GateDecisionRepository {
	return &GateDecisionRepositoryImpl{
		db:     db,
		mapper: mapper.NewGateDecisionMapper(),
	}
}

func (r *GateDecisionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GateDecisionRepositoryImpl) Create(ctx context.Context, decision *entity.GateDecision) error {
	if decision.Id == uuid.Nil {
		decision.Id = uuid.New()
	}
	m := r.mapper.ToModel(decision)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*decision = *r.mapper.ToEntity(m)
	return nil
}

func (r *GateDecisionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GateDecision, error) {
	var models []*model.GateDecision
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *GateDecisionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.GateDecision{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
