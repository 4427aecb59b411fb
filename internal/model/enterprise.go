package model

import (
	"time"

	"github.com/google/uuid"
)

// Enterprise types as reported by the registry.
const (
	EnterpriseTypeFacility = 1
	EnterpriseTypeMarket   = 2
	EnterpriseTypeStation  = 3
	EnterpriseTypeVessel   = 4
)

// Enterprise is an activity location (site) of a business entity.
// IsAllowed gates whether the site may be synchronized at all;
// StockSyncedAt is the watermark through which its ledger has been mirrored,
// advanced only on full successful completion of a ledger sync.
// BusinessEntityID is nil for info shadows fetched while tracing lineage.
type Enterprise struct {
	ID               uint      `gorm:"primaryKey"`
	BusinessEntityID *uint     `gorm:"index"`
	GUID             uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UUID             uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Type             int       `gorm:"not null"`
	Name             string    `gorm:"type:varchar(255);not null"`
	NumberList       string
	Address          string `gorm:"type:varchar(255)"`
	IsActive         bool   `gorm:"not null;default:true"`
	IsAllowed        bool   `gorm:"not null;default:false"`
	StockSyncedAt    *time.Time

	BusinessEntity *BusinessEntity `gorm:"foreignKey:BusinessEntityID"`
}
