package mapper

import (
	"encoding/json"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/model"

	"gorm.io/datatypes"
)

type PipelineStateMapper struct{}

func NewPipelineStateMapper() *PipelineStateMapper {
	return &PipelineStateMapper{}
}

func (m *PipelineStateMapper) ToEntity(s *model.PipelineState) *entity.PipelineState {
	if s == nil {
		return nil
	}
	return &entity.PipelineState{
		Id:        s.Id,
		Phase:     entity.PipelinePhase(s.Phase),
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *PipelineStateMapper) ToModel(s *entity.PipelineState) *model.PipelineState {
	if s == nil {
		return nil
	}
	return &model.PipelineState{
		Id:        s.Id,
		Phase:     string(s.Phase),
		UpdatedAt: s.UpdatedAt,
	}
}

type GateDecisionMapper struct{}

func NewGateDecisionMapper() *GateDecisionMapper {
	return &GateDecisionMapper{}
}

func (m *GateDecisionMapper) ToEntity(d *model.GateDecision) *entity.GateDecision {
	if d == nil {
		return nil
	}
	return &entity.GateDecision{
		Id:        d.Id,
		Gate:      entity.GateKind(d.Gate),
		Approved:  d.Approved,
		Detail:    json.RawMessage(d.Detail),
		Phase:     entity.PipelinePhase(d.Phase),
		CreatedAt: d.CreatedAt,
	}
}

func (m *GateDecisionMapper) ToModel(d *entity.GateDecision) *model.GateDecision {
	if d == nil {
		return nil
	}
	return &model.GateDecision{
		Id:        d.Id,
		Gate:      string(d.Gate),
		Approved:  d.Approved,
		Detail:    datatypes.JSON(d.Detail),
		Phase:     string(d.Phase),
		CreatedAt: d.CreatedAt,
	}
}

func (m *GateDecisionMapper) ToEntities(decisions []*model.GateDecision) []*entity.GateDecision {
	entities := make([]*entity.GateDecision, len(decisions))
	for i, d := range decisions {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
