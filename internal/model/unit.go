package model

import "github.com/google/uuid"

// Unit is a measurement unit lookup row: created on first sight, never
// updated afterward.
type Unit struct {
	ID   uint      `gorm:"primaryKey"`
	GUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name string    `gorm:"type:varchar(255);not null"`
}
