package repository

import (
	"context"

	"github.com/pavelplus/vetis-tools/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository covers the slowly-changing reference catalog: products,
// sub-products, product items and the unit / packing type lookups. All
// writes are upserts keyed by the unique external GUID, so repeated or
// concurrent loads of the same record converge to one row.
type CatalogRepository interface {
	FindProductByGUID(ctx context.Context, guid uuid.UUID) (*model.Product, error)
	UpsertProduct(ctx context.Context, p *model.Product) error
	ListProducts(ctx context.Context) ([]model.Product, error)

	FindSubProductByGUID(ctx context.Context, guid uuid.UUID) (*model.SubProduct, error)
	UpsertSubProduct(ctx context.Context, sp *model.SubProduct) error
	ListSubProducts(ctx context.Context) ([]model.SubProduct, error)

	FindProductItemByID(ctx context.Context, id uint) (*model.ProductItem, error)
	FindProductItemByGUID(ctx context.Context, guid uuid.UUID) (*model.ProductItem, error)
	UpsertProductItem(ctx context.Context, item *model.ProductItem) error
	ListProductItems(ctx context.Context, filter ProductItemFilter) ([]model.ProductItem, error)
	DeactivateProductItems(ctx context.Context, producerID uint) error
	ListUnlinkedProductItems(ctx context.Context, producerID uint) ([]model.ProductItem, error)

	GetOrCreateUnit(ctx context.Context, guid uuid.UUID, name string) (*model.Unit, error)
	GetOrCreatePackingType(ctx context.Context, pt *model.PackingType) (*model.PackingType, error)

	WithTx(tx *gorm.DB) CatalogRepository
	DB() *gorm.DB
}

// ProductItemFilter narrows product item listings for the browsing API.
type ProductItemFilter struct {
	ProducerID uint
	Query      string
	Active     string // "false" = inactive, "all" = everything, default active
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

// ── Products ─────────────────────────────────────────────────────────────────

func (r *catalogRepo) FindProductByGUID(ctx context.Context, guid uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&p).Error
	return &p, err
}

func (r *catalogRepo) UpsertProduct(ctx context.Context, p *model.Product) error {
	return upsertByGUID(ctx, r.db, p, p.GUID, func(id uint) { p.ID = id })
}

func (r *catalogRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	var ps []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&ps).Error
	return ps, err
}

// ── SubProducts ──────────────────────────────────────────────────────────────

func (r *catalogRepo) FindSubProductByGUID(ctx context.Context, guid uuid.UUID) (*model.SubProduct, error) {
	var sp model.SubProduct
	err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&sp).Error
	return &sp, err
}

func (r *catalogRepo) UpsertSubProduct(ctx context.Context, sp *model.SubProduct) error {
	return upsertByGUID(ctx, r.db, sp, sp.GUID, func(id uint) { sp.ID = id })
}

func (r *catalogRepo) ListSubProducts(ctx context.Context) ([]model.SubProduct, error) {
	var sps []model.SubProduct
	err := r.db.WithContext(ctx).Order("name ASC").Find(&sps).Error
	return sps, err
}

// ── ProductItems ─────────────────────────────────────────────────────────────

func (r *catalogRepo) FindProductItemByID(ctx context.Context, id uint) (*model.ProductItem, error) {
	var item model.ProductItem
	err := r.db.WithContext(ctx).
		Preload("Product").Preload("SubProduct").Preload("Producer").
		First(&item, id).Error
	return &item, err
}

func (r *catalogRepo) FindProductItemByGUID(ctx context.Context, guid uuid.UUID) (*model.ProductItem, error) {
	var item model.ProductItem
	err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&item).Error
	return &item, err
}

func (r *catalogRepo) UpsertProductItem(ctx context.Context, item *model.ProductItem) error {
	return upsertByGUID(ctx, r.db, item, item.GUID, func(id uint) { item.ID = id })
}

func (r *catalogRepo) ListProductItems(ctx context.Context, filter ProductItemFilter) ([]model.ProductItem, error) {
	q := r.db.WithContext(ctx).Model(&model.ProductItem{})
	switch filter.Active {
	case "false":
		q = q.Where("is_active = false")
	case "all":
	default:
		q = q.Where("is_active = true")
	}
	if filter.ProducerID != 0 {
		q = q.Where("producer_id = ?", filter.ProducerID)
	}
	if filter.Query != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Query+"%")
	}
	var items []model.ProductItem
	err := q.Preload("Product").Preload("SubProduct").Preload("Producer").
		Order("name ASC").Find(&items).Error
	return items, err
}

func (r *catalogRepo) DeactivateProductItems(ctx context.Context, producerID uint) error {
	return r.db.WithContext(ctx).Model(&model.ProductItem{}).
		Where("producer_id = ?", producerID).
		Update("is_active", false).Error
}

// ListUnlinkedProductItems returns active items still missing a resolved
// product or sub-product link.
func (r *catalogRepo) ListUnlinkedProductItems(ctx context.Context, producerID uint) ([]model.ProductItem, error) {
	var items []model.ProductItem
	err := r.db.WithContext(ctx).
		Where("producer_id = ? AND is_active = true AND (product_id IS NULL OR sub_product_id IS NULL)", producerID).
		Find(&items).Error
	return items, err
}

// ── Lookups ──────────────────────────────────────────────────────────────────

func (r *catalogRepo) GetOrCreateUnit(ctx context.Context, guid uuid.UUID, name string) (*model.Unit, error) {
	var u model.Unit
	err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		u = model.Unit{GUID: guid, Name: name}
		err = r.db.WithContext(ctx).Create(&u).Error
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *catalogRepo) GetOrCreatePackingType(ctx context.Context, pt *model.PackingType) (*model.PackingType, error) {
	var existing model.PackingType
	err := r.db.WithContext(ctx).Where("guid = ?", pt.GUID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(pt).Error; err != nil {
		return nil, err
	}
	return pt, nil
}

func (r *catalogRepo) WithTx(tx *gorm.DB) CatalogRepository {
	if tx == nil {
		return r
	}
	return &catalogRepo{db: tx}
}

func (r *catalogRepo) DB() *gorm.DB { return r.db }

// upsertByGUID loads the existing row id for the GUID (if any) into the
// record, then saves it. All catalog tables share this shape.
func upsertByGUID[T any](ctx context.Context, db *gorm.DB, rec *T, guid uuid.UUID, setID func(uint)) error {
	var probe struct{ ID uint }
	err := db.WithContext(ctx).Model(rec).Select("id").Where("guid = ?", guid).Take(&probe).Error
	switch {
	case err == nil:
		setID(probe.ID)
		return db.WithContext(ctx).Save(rec).Error
	case err == gorm.ErrRecordNotFound:
		return db.WithContext(ctx).Create(rec).Error
	default:
		return err
	}
}
