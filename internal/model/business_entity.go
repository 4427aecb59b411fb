package model

import "github.com/google/uuid"

// Business entity types as reported by the registry.
const (
	BusinessEntityTypeJuridical    = 1
	BusinessEntityTypeIndividual   = 2
	BusinessEntityTypeEntrepreneur = 3
)

// BusinessEntity is an organization mirrored from the registry. GUID is the
// stable identity shared by all versions; UUID identifies the version this
// row was mapped from. Rows without credentials exist only as read-only info
// shadows and cannot be synchronized.
type BusinessEntity struct {
	ID            uint      `gorm:"primaryKey"`
	GUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Type          int       `gorm:"not null"`
	Name          string    `gorm:"type:varchar(255);not null"`
	ShortName     *string   `gorm:"type:varchar(30)"`
	INN           string    `gorm:"type:varchar(20)"`
	Address       string    `gorm:"type:varchar(255)"`
	CredentialsID *uint     `gorm:"index"`
	IsActive      bool      `gorm:"not null;default:true"`

	Credentials *Credentials `gorm:"foreignKey:CredentialsID"`
}

// DisplayName prefers the short name when one is set.
func (b *BusinessEntity) DisplayName() string {
	if b.ShortName != nil && *b.ShortName != "" {
		return *b.ShortName
	}
	return b.Name
}
