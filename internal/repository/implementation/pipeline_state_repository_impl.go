package implementation

import (
	"context"
	"errors"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/mapper"
	"ml-segregation-be/internal/model"
	"ml-segregation-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PipelineStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PipelineStateMapper
}

func NewPipelineStateRepository(db *gorm.DB) contract.PipelineStateRepository {
	return &PipelineStateRepositoryImpl{
		db:     db,
		mapper: mapper.NewPipelineStateMapper(),
	}
}

func (r *PipelineStateRepositoryImpl) Get(ctx context.Context) (*entity.PipelineState, error) {
	var m model.PipelineState
	if err := r.db.WithContext(ctx).First(&m, model.StateRowId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PipelineStateRepositoryImpl) GetLocked(ctx context.Context) (*entity.PipelineState, error) {
	var m model.PipelineState
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, model.StateRowId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PipelineStateRepositoryImpl) Save(ctx context.Context, phase entity.PipelinePhase) error {
	m := &model.PipelineState{
		Id:    model.StateRowId,
		Phase: string(phase),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"phase", "updated_at"}),
		}).
		Create(m).Error
}
