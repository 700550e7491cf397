package model

import "time"

// PipelineState is a single-row table; StateRowId is the fixed primary key.
const StateRowId = 1

type PipelineState struct {
	Id        int       `gorm:"primaryKey"`
	Phase     string    `gorm:"type:varchar(32);not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PipelineState) TableName() string {
	return "pipeline_state"
}
