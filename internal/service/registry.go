package service

import (
	"context"
	"time"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/vetis"
)

// Registry is the slice of the VetIS client the sync services depend on.
// *vetis.Client satisfies it; tests substitute a stub.
type Registry interface {
	GetProductByGUID(ctx context.Context, acc vetis.Account, guid string) (*vetis.ProductXML, error)
	GetSubProductByGUID(ctx context.Context, acc vetis.Account, guid string) (*vetis.SubProductXML, error)
	GetProductItemByGUID(ctx context.Context, acc vetis.Account, guid string) (*vetis.ProductItemXML, error)
	GetBusinessEntityByGUID(ctx context.Context, acc vetis.Account, guid string) (*vetis.BusinessEntityXML, error)
	GetEnterpriseByGUID(ctx context.Context, acc vetis.Account, guid string) (*vetis.EnterpriseXML, error)
	ListProductItems(ctx context.Context, acc vetis.Account, businessEntityGUID string, fn func(vetis.ProductItemXML) error) error
	ListActivityLocations(ctx context.Context, acc vetis.Account, businessEntityGUID string, fn func(vetis.EnterpriseXML) error) error
	ListStockEntries(ctx context.Context, acc vetis.Account, initiatorLogin, enterpriseGUID string, fn func(vetis.StockEntryXML) error) error
	ListStockEntryChanges(ctx context.Context, acc vetis.Account, initiatorLogin, enterpriseGUID string, begin, end time.Time, fn func(vetis.StockEntryXML) error) error
	ListStockEntryVersions(ctx context.Context, acc vetis.Account, initiatorLogin, enterpriseGUID, stockEntryGUID string, fn func(vetis.StockEntryXML) error) error
	GetVetDocumentByUUID(ctx context.Context, acc vetis.Account, initiatorLogin, enterpriseGUID, documentUUID string) (*vetis.VetDocumentXML, error)
}

// accountFor builds the client connection profile from a stored credentials
// row.
func accountFor(c *model.Credentials) vetis.Account {
	return vetis.Account{
		Name:       c.Name,
		Login:      c.Login,
		Password:   c.Password,
		APIKey:     c.APIKey,
		ServiceID:  c.ServiceID,
		IssuerID:   c.IssuerID,
		Productive: c.IsProductive,
	}
}
