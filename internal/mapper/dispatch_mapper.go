package mapper

import (
	"encoding/json"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/model"

	"gorm.io/datatypes"
)

type DispatchRecordMapper struct{}

func NewDispatchRecordMapper() *DispatchRecordMapper {
	return &DispatchRecordMapper{}
}

func (m *DispatchRecordMapper) ToEntity(r *model.DispatchRecord) *entity.DispatchRecord {
	if r == nil {
		return nil
	}
	return &entity.DispatchRecord{
		Id:              r.Id,
		Endpoint:        r.Endpoint,
		SessionCount:    r.SessionCount,
		TrainCount:      r.TrainCount,
		ValidationCount: r.ValidationCount,
		TestCount:       r.TestCount,
		Summary:         json.RawMessage(r.Summary),
		CreatedAt:       r.CreatedAt,
	}
}

func (m *DispatchRecordMapper) ToModel(r *entity.DispatchRecord) *model.DispatchRecord {
	if r == nil {
		return nil
	}
	return &model.DispatchRecord{
		Id:              r.Id,
		Endpoint:        r.Endpoint,
		SessionCount:    r.SessionCount,
		TrainCount:      r.TrainCount,
		ValidationCount: r.ValidationCount,
		TestCount:       r.TestCount,
		Summary:         datatypes.JSON(r.Summary),
		CreatedAt:       r.CreatedAt,
	}
}

func (m *DispatchRecordMapper) ToEntities(records []*model.DispatchRecord) []*entity.DispatchRecord {
	entities := make([]*entity.DispatchRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
