package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GateDecision struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Gate      string         `gorm:"type:varchar(16);not null;index"`
	Approved  bool           `gorm:"not null"`
	Detail    datatypes.JSON `gorm:"type:jsonb"`
	Phase     string         `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (GateDecision) TableName() string {
	return "gate_decisions"
}
