package model

import "github.com/google/uuid"

// ProductItem is a named product registered by a producer. The *GUID columns
// carry the raw wire references; the ID columns are filled as the referenced
// rows get resolved locally.
type ProductItem struct {
	ID             uint      `gorm:"primaryKey"`
	GUID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UUID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	IsActive       bool      `gorm:"not null;default:true"`
	Name           string    `gorm:"type:varchar(255);not null"`
	GTIN           string    `gorm:"type:varchar(20)"`
	ProductType    int       `gorm:"not null"`
	ProductGUID    *uuid.UUID `gorm:"type:uuid"`
	ProductID      *uint      `gorm:"index"`
	SubProductGUID *uuid.UUID `gorm:"type:uuid"`
	SubProductID   *uint      `gorm:"index"`
	IsGOST         bool       `gorm:"not null;default:false"`
	GOST           string     `gorm:"type:varchar(255)"`
	ProducerGUID   *uuid.UUID `gorm:"type:uuid"`
	ProducerID     *uint      `gorm:"index"`

	Product    *Product        `gorm:"foreignKey:ProductID"`
	SubProduct *SubProduct     `gorm:"foreignKey:SubProductID"`
	Producer   *BusinessEntity `gorm:"foreignKey:ProducerID"`
}
