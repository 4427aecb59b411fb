package model

import "github.com/google/uuid"

// SubProduct is a second-level catalog entry. ProductGUID always carries the
// parent reference from the wire; ProductID is filled once the parent has
// been resolved locally.
type SubProduct struct {
	ID          uint      `gorm:"primaryKey"`
	GUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Code        string    `gorm:"type:varchar(255)"`
	ProductGUID uuid.UUID `gorm:"type:uuid;not null"`
	ProductID   *uint     `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
