package model

import "github.com/google/uuid"

// Product type classifier shared by products, product items and ledger
// entries.
const (
	ProductTypeMeat          = 1
	ProductTypeFeed          = 2
	ProductTypeLiveAnimals   = 3
	ProductTypeMedicines     = 4
	ProductTypeFood          = 5
	ProductTypeNonFood       = 6
	ProductTypeFish          = 7
	ProductTypeNoPermitsReqd = 8
)

// ProductTypeNames maps the classifier to display names.
var ProductTypeNames = map[int]string{
	ProductTypeMeat:          "Meat and meat products",
	ProductTypeFeed:          "Feed and feed additives",
	ProductTypeLiveAnimals:   "Live animals",
	ProductTypeMedicines:     "Medicines",
	ProductTypeFood:          "Food products",
	ProductTypeNonFood:       "Non-food products and other",
	ProductTypeFish:          "Fish and seafood",
	ProductTypeNoPermitsReqd: "Products not requiring permits",
}

// Product is a top-level catalog entry. Fetched at most once per GUID unless
// a refresh is explicitly requested.
type Product struct {
	ID          uint      `gorm:"primaryKey"`
	GUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Code        string    `gorm:"type:varchar(255)"`
	ProductType int       `gorm:"not null"`
}
