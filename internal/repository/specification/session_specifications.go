package specification

import "gorm.io/gorm"

// Pending selects sessions that are part of the active accumulation cycle:
// not yet dispatched and not deferred to a later cycle.
type Pending struct{}

func (s Pending) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("processed = ? AND deferred = ?", false, false)
}

// Unprocessed selects every session that has not been dispatched yet,
// regardless of deferral.
type Unprocessed struct{}

func (s Unprocessed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("processed = ?", false)
}

// Processed selects sessions already covered by an acknowledged dispatch.
type Processed struct{}

func (s Processed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("processed = ?", true)
}

// Deferred selects sessions parked for the next accumulation cycle.
type Deferred struct{}

func (s Deferred) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("deferred = ? AND processed = ?", true, false)
}

// ByLabel filters sessions by risk label.
type ByLabel struct {
	Label string
}

func (s ByLabel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("label = ?", s.Label)
}

// ByUuids filters sessions by their upstream identifiers.
type ByUuids struct {
	Uuids []string
}

func (s ByUuids) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("uuid IN ?", s.Uuids)
}
