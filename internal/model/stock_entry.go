package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger version status codes (closed enumeration from the registry).
const (
	StockStatusCreated            = 100
	StockStatusImportRedeemed     = 101
	StockStatusVetDocRedeemed     = 102
	StockStatusProduced           = 103
	StockStatusHealthCertificate  = 104
	StockStatusDocAnnulled        = 105
	StockStatusPaperDocRedeemed   = 106
	StockStatusMerged             = 110
	StockStatusSplit              = 120
	StockStatusChanged            = 200
	StockStatusAnnulled           = 201
	StockStatusWrittenOff         = 202
	StockStatusProductionEdited   = 203
	StockStatusExpertiseConcluded = 204
	StockStatusJoinUpdated        = 230
	StockStatusJoinUpdatedAlt     = 231
	StockStatusSeparationUpdated  = 240
	StockStatusRestored           = 250
	StockStatusMarkedForDeletion  = 260
	StockStatusMovedToGroup       = 300
	StockStatusDeleted            = 400
	StockStatusMergeDeleted       = 410
	StockStatusSplitDeleted       = 420
	StockStatusJoinDeleted        = 430
)

// StockStatusNames maps ledger status codes to display names.
var StockStatusNames = map[int]string{
	StockStatusCreated:            "record created",
	StockStatusImportRedeemed:     "import certificate redeemed",
	StockStatusVetDocRedeemed:     "vet document redeemed",
	StockStatusProduced:           "production",
	StockStatusHealthCertificate:  "dairy health certificate",
	StockStatusDocAnnulled:        "vet document or transaction annulled",
	StockStatusPaperDocRedeemed:   "paper vet document redeemed",
	StockStatusMerged:             "merged",
	StockStatusSplit:              "split",
	StockStatusChanged:            "changed",
	StockStatusAnnulled:           "record annulled",
	StockStatusWrittenOff:         "written off",
	StockStatusProductionEdited:   "production edited",
	StockStatusExpertiseConcluded: "expertise concluded",
	StockStatusJoinUpdated:        "updated after join",
	StockStatusJoinUpdatedAlt:     "updated after join",
	StockStatusSeparationUpdated:  "updated after separation",
	StockStatusRestored:           "restored after deletion",
	StockStatusMarkedForDeletion:  "marked for deletion",
	StockStatusMovedToGroup:       "moved to another group",
	StockStatusDeleted:            "record deleted",
	StockStatusMergeDeleted:       "deleted by merge",
	StockStatusSplitDeleted:       "deleted by split",
	StockStatusJoinDeleted:        "deleted by join",
}

// StockEntryMain is the head record: one per distinct ledger GUID. Once the
// lineage origin has been traced, Populated flips to true and never back.
// Comment is the only field the web side may write.
type StockEntryMain struct {
	ID                     uint      `gorm:"primaryKey"`
	GUID                   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Populated              bool      `gorm:"not null;default:false"`
	OriginBusinessEntityID *uint     `gorm:"index"`
	OriginEnterpriseID     *uint     `gorm:"index"`
	Comment                string
	CreatedAt              time.Time
	UpdatedAt              time.Time

	OriginBusinessEntity *BusinessEntity `gorm:"foreignKey:OriginBusinessEntityID"`
	OriginEnterprise     *Enterprise     `gorm:"foreignKey:OriginEnterpriseID"`
}

// StockEntry is one ledger version: GUID is shared by every version of a
// logical record, UUID is unique per version. PreviousUUID/NextUUID link the
// version chain; at most one version per GUID has IsLast set.
type StockEntry struct {
	ID           uint      `gorm:"primaryKey"`
	MainID       uint      `gorm:"index;not null"`
	EnterpriseID uint      `gorm:"index;not null"`
	GUID         uuid.UUID `gorm:"type:uuid;index;not null"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	IsActive     bool      `gorm:"not null"`
	IsLast       bool      `gorm:"not null;index"`
	Status       int       `gorm:"not null"`
	DateCreated  time.Time `gorm:"not null"`
	DateUpdated  time.Time `gorm:"not null"`
	PreviousUUID *uuid.UUID `gorm:"type:uuid"`
	NextUUID     *uuid.UUID `gorm:"type:uuid"`
	EntryNumber  int        `gorm:"not null"`

	ProductType     int        `gorm:"not null"`
	ProductGUID     *uuid.UUID `gorm:"type:uuid"`
	ProductID       *uint      `gorm:"index"`
	SubProductGUID  *uuid.UUID `gorm:"type:uuid"`
	SubProductID    *uint      `gorm:"index"`
	ProductItemGUID *uuid.UUID `gorm:"type:uuid"`
	ProductItemName string     `gorm:"type:varchar(255);not null"`
	ProductItemID   *uint      `gorm:"index"`

	Volume decimal.Decimal `gorm:"type:decimal(15,6);not null"`
	UnitID uint            `gorm:"not null"`

	// Production and expiry are intervals of partial dates; the display
	// strings keep the reported precision, the instant columns hold the
	// interval minimum for sorting and comparison.
	DateProduced1 string    `gorm:"type:varchar(16);not null"`
	DateProduced2 string    `gorm:"type:varchar(16)"`
	DateProduced  time.Time `gorm:"not null"`
	DateExpiry1   string    `gorm:"type:varchar(16);not null"`
	DateExpiry2   string    `gorm:"type:varchar(16)"`
	DateExpiry    time.Time `gorm:"not null;index"`

	IsPerishable  bool    `gorm:"not null"`
	OriginCountry *string `gorm:"type:varchar(255)"`
	ProducerName  *string `gorm:"type:varchar(255)"`

	Main        *StockEntryMain  `gorm:"foreignKey:MainID"`
	Enterprise  *Enterprise      `gorm:"foreignKey:EnterpriseID"`
	Product     *Product         `gorm:"foreignKey:ProductID"`
	SubProduct  *SubProduct      `gorm:"foreignKey:SubProductID"`
	ProductItem *ProductItem     `gorm:"foreignKey:ProductItemID"`
	Unit        *Unit            `gorm:"foreignKey:UnitID"`
	Packages    []Package        `gorm:"foreignKey:StockEntryID"`
	VetDocRefs  []VetDocumentRef `gorm:"foreignKey:StockEntryID"`
}
