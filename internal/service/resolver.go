package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/repository"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resolver is the get-or-load cache over the reference catalog. Every method
// follows the same shape: return the local row keyed by GUID when one exists
// and force is false, otherwise fetch the record from the registry, resolve
// the GUIDs it references first, and upsert. Upserts are keyed by the unique
// GUID column, so repeated loads of the same record converge to one row.
type Resolver struct {
	registry Registry
	catalog  repository.CatalogRepository
	bes      repository.BusinessEntityRepository
	ents     repository.EnterpriseRepository
}

func NewResolver(
	registry Registry,
	catalog repository.CatalogRepository,
	bes repository.BusinessEntityRepository,
	ents repository.EnterpriseRepository,
) *Resolver {
	return &Resolver{registry: registry, catalog: catalog, bes: bes, ents: ents}
}

// WithTx returns a resolver whose repositories are scoped to the given
// transaction; a nil tx returns the receiver unchanged.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	if tx == nil {
		return r
	}
	return &Resolver{
		registry: r.registry,
		catalog:  r.catalog.WithTx(tx),
		bes:      r.bes.WithTx(tx),
		ents:     r.ents.WithTx(tx),
	}
}

func parseGUID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s guid %q: %w", kind, raw, err)
	}
	return id, nil
}

// Product resolves a top-level catalog product.
func (r *Resolver) Product(ctx context.Context, acc vetis.Account, guid uuid.UUID, force bool) (*model.Product, error) {
	if !force {
		p, err := r.catalog.FindProductByGUID(ctx, guid)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	wire, err := r.registry.GetProductByGUID(ctx, acc, guid.String())
	if err != nil {
		return nil, err
	}
	p := &model.Product{
		Name:        wire.Name,
		Code:        wire.Code,
		ProductType: wire.ProductType,
	}
	if p.GUID, err = parseGUID("product", wire.GUID); err != nil {
		return nil, err
	}
	if p.UUID, err = parseGUID("product", wire.UUID); err != nil {
		return nil, err
	}
	if err := r.catalog.UpsertProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SubProduct resolves a second-level catalog entry. The parent product is
// resolved before the sub-product row is constructed.
func (r *Resolver) SubProduct(ctx context.Context, acc vetis.Account, guid uuid.UUID, force bool) (*model.SubProduct, error) {
	if !force {
		sp, err := r.catalog.FindSubProductByGUID(ctx, guid)
		if err == nil {
			return sp, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	wire, err := r.registry.GetSubProductByGUID(ctx, acc, guid.String())
	if err != nil {
		return nil, err
	}
	sp := &model.SubProduct{
		Name: wire.Name,
		Code: wire.Code,
	}
	if sp.GUID, err = parseGUID("subProduct", wire.GUID); err != nil {
		return nil, err
	}
	if sp.UUID, err = parseGUID("subProduct", wire.UUID); err != nil {
		return nil, err
	}
	if wire.ProductGUID != "" {
		if sp.ProductGUID, err = parseGUID("subProduct parent", wire.ProductGUID); err != nil {
			return nil, err
		}
		parent, err := r.Product(ctx, acc, sp.ProductGUID, false)
		if err != nil {
			return nil, err
		}
		sp.ProductID = &parent.ID
	}
	if err := r.catalog.UpsertSubProduct(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// ProductItem resolves a named product item. Product, sub-product and the
// producing organization are resolved before the item row is constructed.
func (r *Resolver) ProductItem(ctx context.Context, acc vetis.Account, guid uuid.UUID, force bool) (*model.ProductItem, error) {
	if !force {
		item, err := r.catalog.FindProductItemByGUID(ctx, guid)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	wire, err := r.registry.GetProductItemByGUID(ctx, acc, guid.String())
	if err != nil {
		return nil, err
	}
	return r.upsertProductItem(ctx, acc, wire)
}

// UpsertProductItemRecord maps and stores an already-fetched item payload,
// resolving its references. List workflows call this directly to avoid a
// second per-item fetch.
func (r *Resolver) UpsertProductItemRecord(ctx context.Context, acc vetis.Account, wire *vetis.ProductItemXML) (*model.ProductItem, error) {
	return r.upsertProductItem(ctx, acc, wire)
}

func (r *Resolver) upsertProductItem(ctx context.Context, acc vetis.Account, wire *vetis.ProductItemXML) (*model.ProductItem, error) {
	item := &model.ProductItem{
		IsActive:    wire.Active,
		Name:        wire.Name,
		GTIN:        wire.GTIN,
		ProductType: wire.ProductType,
		GOST:        wire.GOST,
	}
	if wire.CorrespondsToGost != nil {
		item.IsGOST = *wire.CorrespondsToGost
	}
	var err error
	if item.GUID, err = parseGUID("productItem", wire.GUID); err != nil {
		return nil, err
	}
	if item.UUID, err = parseGUID("productItem", wire.UUID); err != nil {
		return nil, err
	}

	if wire.ProductGUID != "" {
		pg, err := parseGUID("productItem product", wire.ProductGUID)
		if err != nil {
			return nil, err
		}
		p, err := r.Product(ctx, acc, pg, false)
		if err != nil {
			return nil, err
		}
		item.ProductGUID = &pg
		item.ProductID = &p.ID
	}
	if wire.SubProductGUID != "" {
		spg, err := parseGUID("productItem subProduct", wire.SubProductGUID)
		if err != nil {
			return nil, err
		}
		sp, err := r.SubProduct(ctx, acc, spg, false)
		if err != nil {
			return nil, err
		}
		item.SubProductGUID = &spg
		item.SubProductID = &sp.ID
	}
	if wire.Producer.GUID != "" {
		bg, err := parseGUID("productItem producer", wire.Producer.GUID)
		if err != nil {
			return nil, err
		}
		be, err := r.BusinessEntityInfo(ctx, acc, bg, false)
		if err != nil {
			return nil, err
		}
		item.ProducerGUID = &bg
		item.ProducerID = &be.ID
	}

	if err := r.catalog.UpsertProductItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// BusinessEntityInfo resolves a read-only organization shadow used for
// display. Rows created here never carry credentials.
func (r *Resolver) BusinessEntityInfo(ctx context.Context, acc vetis.Account, guid uuid.UUID, force bool) (*model.BusinessEntity, error) {
	if !force {
		be, err := r.bes.FindByGUID(ctx, guid)
		if err == nil {
			return be, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	wire, err := r.registry.GetBusinessEntityByGUID(ctx, acc, guid.String())
	if err != nil {
		return nil, err
	}
	be := &model.BusinessEntity{
		Type:     wire.Type,
		Name:     wire.Name,
		INN:      wire.INN,
		Address:  wire.Address,
		IsActive: true,
	}
	if wire.ShortName != "" {
		be.ShortName = &wire.ShortName
	}
	if be.GUID, err = parseGUID("businessEntity", wire.GUID); err != nil {
		return nil, err
	}
	if be.UUID, err = parseGUID("businessEntity", wire.UUID); err != nil {
		return nil, err
	}
	if err := r.bes.Upsert(ctx, be); err != nil {
		return nil, err
	}
	return be, nil
}

// EnterpriseInfo resolves a read-only site shadow. Rows created here are not
// attached to a local organization and are never synchronized.
func (r *Resolver) EnterpriseInfo(ctx context.Context, acc vetis.Account, guid uuid.UUID, force bool) (*model.Enterprise, error) {
	if !force {
		ent, err := r.ents.FindByGUID(ctx, guid)
		if err == nil {
			return ent, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	wire, err := r.registry.GetEnterpriseByGUID(ctx, acc, guid.String())
	if err != nil {
		return nil, err
	}
	ent, err := mapEnterprise(wire)
	if err != nil {
		return nil, err
	}
	if err := r.ents.Upsert(ctx, ent); err != nil {
		return nil, err
	}
	return ent, nil
}

// Unit returns the measurement unit row for the GUID, creating it on first
// sight. No remote call: the payload already carries the name.
func (r *Resolver) Unit(ctx context.Context, rawGUID, name string) (*model.Unit, error) {
	guid, err := parseGUID("unit", rawGUID)
	if err != nil {
		return nil, err
	}
	return r.catalog.GetOrCreateUnit(ctx, guid, name)
}

// PackingType returns the packaging lookup row, creating it on first sight.
func (r *Resolver) PackingType(ctx context.Context, wire *vetis.PackageXML) (*model.PackingType, error) {
	pt := &model.PackingType{
		Name:     wire.PackingType.Name,
		GlobalID: wire.PackingType.GlobalID,
	}
	var err error
	if pt.GUID, err = parseGUID("packingType", wire.PackingType.GUID); err != nil {
		return nil, err
	}
	if pt.UUID, err = parseGUID("packingType", wire.PackingType.UUID); err != nil {
		return nil, err
	}
	return r.catalog.GetOrCreatePackingType(ctx, pt)
}

// mapEnterprise maps a wire site record onto a model row. The local-only
// fields (allowed flag, watermark, organization link) are filled by the
// caller or preserved by the repository upsert.
func mapEnterprise(wire *vetis.EnterpriseXML) (*model.Enterprise, error) {
	ent := &model.Enterprise{
		Type:     wire.Type,
		Name:     wire.Name,
		Address:  wire.Address,
		IsActive: true,
	}
	var err error
	if ent.GUID, err = parseGUID("enterprise", wire.GUID); err != nil {
		return nil, err
	}
	if ent.UUID, err = parseGUID("enterprise", wire.UUID); err != nil {
		return nil, err
	}
	for i, n := range wire.NumberList {
		if i > 0 {
			ent.NumberList += ", "
		}
		ent.NumberList += n
	}
	return ent, nil
}
