package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BusinessEntityResponse is one mirrored organization.
type BusinessEntityResponse struct {
	ID        uint   `json:"id"`
	GUID      string `json:"guid"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	INN       string `json:"inn,omitempty"`
	Address   string `json:"address,omitempty"`
	IsActive  bool   `json:"is_active"`
	HasAccess bool   `json:"has_access"`
}

// EnterpriseResponse is one mirrored activity location.
type EnterpriseResponse struct {
	ID            uint       `json:"id"`
	GUID          string     `json:"guid"`
	Name          string     `json:"name"`
	Address       string     `json:"address,omitempty"`
	NumberList    string     `json:"number_list,omitempty"`
	IsActive      bool       `json:"is_active"`
	IsAllowed     bool       `json:"is_allowed"`
	StockSyncedAt *time.Time `json:"stock_synced_at,omitempty"`
}

// ProductResponse is one catalog product or sub-product.
type ProductResponse struct {
	ID          uint   `json:"id"`
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	ProductType int    `json:"product_type,omitempty"`
}

// ProductItemResponse is one named product item.
type ProductItemResponse struct {
	ID          uint   `json:"id"`
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	GTIN        string `json:"gtin,omitempty"`
	ProductType int    `json:"product_type"`
	IsActive    bool   `json:"is_active"`
	Product     string `json:"product,omitempty"`
	SubProduct  string `json:"sub_product,omitempty"`
	Producer    string `json:"producer,omitempty"`
}

// StockEntryResponse is one ledger version in listings.
type StockEntryResponse struct {
	ID              uint            `json:"id"`
	GUID            string          `json:"guid"`
	UUID            string          `json:"uuid"`
	Status          int             `json:"status"`
	StatusName      string          `json:"status_name,omitempty"`
	IsActive        bool            `json:"is_active"`
	IsLast          bool            `json:"is_last"`
	EntryNumber     int             `json:"entry_number"`
	ProductItemName string          `json:"product_item_name"`
	Volume          decimal.Decimal `json:"volume"`
	Unit            string          `json:"unit,omitempty"`
	DateProduced    string          `json:"date_produced,omitempty"`
	DateExpiry      string          `json:"date_expiry,omitempty"`
	DateUpdated     time.Time       `json:"date_updated"`
}

// PackageResponse is one packaging row of a ledger version.
type PackageResponse struct {
	Level        int    `json:"level"`
	PackingType  string `json:"packing_type"`
	Quantity     int    `json:"quantity"`
	ProductMarks string `json:"product_marks,omitempty"`
}

// StockEntryDetailResponse is the full view of one ledger version.
type StockEntryDetailResponse struct {
	StockEntryResponse
	PreviousUUID  string            `json:"previous_uuid,omitempty"`
	NextUUID      string            `json:"next_uuid,omitempty"`
	IsPerishable  bool              `json:"is_perishable"`
	OriginCountry string            `json:"origin_country,omitempty"`
	ProducerName  string            `json:"producer_name,omitempty"`
	DateCreated   time.Time         `json:"date_created"`
	Packages      []PackageResponse `json:"packages"`
	VetDocuments  []string          `json:"vet_documents"`
}

// StockEntryMainResponse is the head record of a ledger GUID with its
// version chain.
type StockEntryMainResponse struct {
	GUID                 string               `json:"guid"`
	Populated            bool                 `json:"populated"`
	OriginBusinessEntity string               `json:"origin_business_entity,omitempty"`
	OriginEnterprise     string               `json:"origin_enterprise,omitempty"`
	Comment              string               `json:"comment,omitempty"`
	Versions             []StockEntryResponse `json:"versions"`
}

// UpdateCommentRequest sets the free-text annotation on a head record.
type UpdateCommentRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}

// AuditLogResponse is one recorded registry exchange. Bodies are only
// populated on the detail endpoint.
type AuditLogResponse struct {
	ID           uint      `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	SOAPAction   string    `json:"soap_action"`
	StatusCode   int       `json:"status_code"`
	Comment      string    `json:"comment,omitempty"`
	RequestBody  string    `json:"request_body,omitempty"`
	ResponseBody string    `json:"response_body,omitempty"`
}

// ListResponse is the shared pagination envelope.
type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
