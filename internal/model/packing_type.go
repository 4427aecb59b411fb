package model

import "github.com/google/uuid"

// PackingType is a packaging lookup row: created on first sight, never
// updated afterward. Name is the two-letter code, GlobalID the descriptive
// identifier.
type PackingType struct {
	ID       uint      `gorm:"primaryKey"`
	GUID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UUID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name     string    `gorm:"type:varchar(2);not null"`
	GlobalID string    `gorm:"type:varchar(255)"`
}
