package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DispatchRecord struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Endpoint        string         `gorm:"type:text;not null"`
	SessionCount    int            `gorm:"not null"`
	TrainCount      int            `gorm:"not null"`
	ValidationCount int            `gorm:"not null"`
	TestCount       int            `gorm:"not null"`
	Summary         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index"`
}

func (DispatchRecord) TableName() string {
	return "dispatch_records"
}
