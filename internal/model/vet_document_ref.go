package model

import "github.com/google/uuid"

// VetDocumentRef links a ledger version to a veterinary document version by
// its UUID. Like packages, the set is replaced on every re-mapping of the
// owning version.
type VetDocumentRef struct {
	ID           uint      `gorm:"primaryKey"`
	StockEntryID uint      `gorm:"index;not null"`
	UUID         uuid.UUID `gorm:"type:uuid;not null"`
}
