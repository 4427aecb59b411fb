package model

// Package levels as reported by the registry.
const (
	PackageLevelInternal     = 1
	PackageLevelConsumer     = 2
	PackageLevelIntermediate = 3
	PackageLevelTrade        = 4
	PackageLevelAdditional   = 5
	PackageLevelTransport    = 6
)

// Package is one packaging row owned by a single ledger version. The whole
// set is replaced whenever the owning version is re-mapped.
type Package struct {
	ID            uint `gorm:"primaryKey"`
	StockEntryID  uint `gorm:"index;not null"`
	Level         int  `gorm:"not null"`
	PackingTypeID uint `gorm:"not null"`
	Quantity      int  `gorm:"not null"`
	ProductMarks  string

	PackingType *PackingType `gorm:"foreignKey:PackingTypeID"`
}
