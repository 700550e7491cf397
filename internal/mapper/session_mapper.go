package mapper

import (
	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.PreparedSession) *entity.PreparedSession {
	if s == nil {
		return nil
	}

	return &entity.PreparedSession{
		Uuid:            s.Uuid,
		Label:           s.Label,
		MedianLongitude: s.MedianLongitude,
		MedianLatitude:  s.MedianLatitude,
		MeanDiffTime:    s.MeanDiffTime,
		MeanDiffAmount:  s.MeanDiffAmount,
		MedianTargetIP:  s.MedianTargetIP,
		MedianDestIP:    s.MedianDestIP,
		Processed:       s.Processed,
		Deferred:        s.Deferred,
		CreatedAt:       s.CreatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.PreparedSession) *model.PreparedSession {
	if s == nil {
		return nil
	}

	return &model.PreparedSession{
		Uuid:            s.Uuid,
		Label:           s.Label,
		MedianLongitude: s.MedianLongitude,
		MedianLatitude:  s.MedianLatitude,
		MeanDiffTime:    s.MeanDiffTime,
		MeanDiffAmount:  s.MeanDiffAmount,
		MedianTargetIP:  s.MedianTargetIP,
		MedianDestIP:    s.MedianDestIP,
		Processed:       s.Processed,
		Deferred:        s.Deferred,
		CreatedAt:       s.CreatedAt,
	}
}

func (m *SessionMapper) ToEntities(sessions []*model.PreparedSession) []*entity.PreparedSession {
	entities := make([]*entity.PreparedSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

func (m *SessionMapper) ToModels(sessions []*entity.PreparedSession) []*model.PreparedSession {
	models := make([]*model.PreparedSession, len(sessions))
	for i, s := range sessions {
		models[i] = m.ToModel(s)
	}
	return models
}
