package model

// Credentials is a VetIS connection profile. Rows are immutable once an
// organization references them; the engine only reads them.
// IsProductive selects the productive or the test endpoint set.
type Credentials struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"type:varchar(100);not null"`
	IsProductive bool   `gorm:"not null;default:false"`
	Login        string `gorm:"not null"`
	Password     string `gorm:"not null"`
	APIKey       string `gorm:"column:api_key;not null"`
	ServiceID    string `gorm:"not null"`
	IssuerID     string `gorm:"not null"`
}
