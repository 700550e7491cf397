package specification

import "gorm.io/gorm"

// Limit caps the number of returned rows
type Limit struct {
	Limit int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit)
}

// Offset skips rows for pagination
type Offset struct {
	Offset int
}

func (s Offset) Apply(db *gorm.DB) *gorm.DB {
	return db.Offset(s.Offset)
}

// NewestFirst orders by creation time, newest first
type NewestFirst struct{}

func (s NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// ByGate filters audit rows by quality gate
type ByGate struct {
	Gate string
}

func (s ByGate) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("gate = ?", s.Gate)
}
