package model

import "time"

type PreparedSession struct {
	Uuid            string    `gorm:"type:text;primaryKey;column:uuid"`
	Label           string    `gorm:"type:varchar(32);not null;index"`
	MedianLongitude float64   `gorm:"not null"`
	MedianLatitude  float64   `gorm:"not null"`
	MeanDiffTime    float64   `gorm:"not null"`
	MeanDiffAmount  float64   `gorm:"not null"`
	MedianTargetIP  string    `gorm:"type:varchar(45);column:median_target_ip"`
	MedianDestIP    string    `gorm:"type:varchar(45);column:median_dest_ip"`
	Processed       bool      `gorm:"not null;default:false;index:idx_prepared_sessions_pending"`
	Deferred        bool      `gorm:"not null;default:false;index:idx_prepared_sessions_pending"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (PreparedSession) TableName() string {
	return "prepared_sessions"
}
