package repository

import (
	"context"

	"github.com/pavelplus/vetis-tools/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockEntryFilter narrows ledger listings for the browsing API.
type StockEntryFilter struct {
	EnterpriseID uint
	Status       int
	OnlyLast     bool
	OnlyActive   bool
	Query        string
	Page         int
	Limit        int
}

// StockRepository is the data access contract for the version ledger: head
// records, versions and their owned package / document rows.
type StockRepository interface {
	FindEntryByID(ctx context.Context, id uint) (*model.StockEntry, error)
	FindEntryByUUID(ctx context.Context, entryUUID uuid.UUID) (*model.StockEntry, error)
	SaveEntry(ctx context.Context, e *model.StockEntry) error
	ListEntries(ctx context.Context, filter StockEntryFilter) ([]model.StockEntry, int64, error)
	ListVersions(ctx context.Context, guid uuid.UUID) ([]model.StockEntry, error)

	// ClearLastExcept drops the IsLast flag on every version of the GUID other
	// than the one identified by keepUUID.
	ClearLastExcept(ctx context.Context, guid uuid.UUID, keepUUID uuid.UUID) error
	// FirstVersion returns the earliest version of the GUID by creation date.
	FirstVersion(ctx context.Context, guid uuid.UUID) (*model.StockEntry, error)

	GetOrCreateMain(ctx context.Context, guid uuid.UUID) (*model.StockEntryMain, error)
	FindMainByGUID(ctx context.Context, guid uuid.UUID) (*model.StockEntryMain, error)
	SaveMain(ctx context.Context, m *model.StockEntryMain) error
	ListUnpopulatedMains(ctx context.Context, enterpriseID uint) ([]model.StockEntryMain, error)

	ReplacePackages(ctx context.Context, entryID uint, pkgs []model.Package) error
	ReplaceVetDocRefs(ctx context.Context, entryID uint, refs []model.VetDocumentRef) error
	ListVetDocRefs(ctx context.Context, entryID uint) ([]model.VetDocumentRef, error)

	WithTx(tx *gorm.DB) StockRepository
	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepo{db: db}
}

func (r *stockRepo) FindEntryByID(ctx context.Context, id uint) (*model.StockEntry, error) {
	var e model.StockEntry
	err := r.db.WithContext(ctx).
		Preload("Main").Preload("Enterprise").
		Preload("Product").Preload("SubProduct").Preload("ProductItem").
		Preload("Unit").Preload("Packages.PackingType").Preload("VetDocRefs").
		First(&e, id).Error
	return &e, err
}

func (r *stockRepo) FindEntryByUUID(ctx context.Context, entryUUID uuid.UUID) (*model.StockEntry, error) {
	var e model.StockEntry
	err := r.db.WithContext(ctx).Where("uuid = ?", entryUUID).First(&e).Error
	return &e, err
}

func (r *stockRepo) SaveEntry(ctx context.Context, e *model.StockEntry) error {
	return r.db.WithContext(ctx).Omit("Packages", "VetDocRefs").Save(e).Error
}

func (r *stockRepo) ListEntries(ctx context.Context, filter StockEntryFilter) ([]model.StockEntry, int64, error) {
	var entries []model.StockEntry
	var total int64

	q := r.db.WithContext(ctx).Model(&model.StockEntry{})
	if filter.EnterpriseID != 0 {
		q = q.Where("enterprise_id = ?", filter.EnterpriseID)
	}
	if filter.Status != 0 {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OnlyLast {
		q = q.Where("is_last = true")
	}
	if filter.OnlyActive {
		q = q.Where("is_active = true")
	}
	if filter.Query != "" {
		q = q.Where("product_item_name ILIKE ?", "%"+filter.Query+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Unit").Preload("ProductItem").
		Order("date_updated DESC").Limit(filter.Limit).Offset(offset).
		Find(&entries).Error
	return entries, total, err
}

func (r *stockRepo) ListVersions(ctx context.Context, guid uuid.UUID) ([]model.StockEntry, error) {
	var entries []model.StockEntry
	err := r.db.WithContext(ctx).
		Where("guid = ?", guid).
		Order("date_created ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *stockRepo) ClearLastExcept(ctx context.Context, guid uuid.UUID, keepUUID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.StockEntry{}).
		Where("guid = ? AND uuid <> ? AND is_last = true", guid, keepUUID).
		Update("is_last", false).Error
}

func (r *stockRepo) FirstVersion(ctx context.Context, guid uuid.UUID) (*model.StockEntry, error) {
	var e model.StockEntry
	err := r.db.WithContext(ctx).
		Where("guid = ?", guid).
		Order("date_created ASC, id ASC").
		First(&e).Error
	return &e, err
}

func (r *stockRepo) GetOrCreateMain(ctx context.Context, guid uuid.UUID) (*model.StockEntryMain, error) {
	var m model.StockEntryMain
	err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		m = model.StockEntryMain{GUID: guid}
		err = r.db.WithContext(ctx).Create(&m).Error
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *stockRepo) FindMainByGUID(ctx context.Context, guid uuid.UUID) (*model.StockEntryMain, error) {
	var m model.StockEntryMain
	err := r.db.WithContext(ctx).
		Preload("OriginBusinessEntity").Preload("OriginEnterprise").
		Where("guid = ?", guid).First(&m).Error
	return &m, err
}

func (r *stockRepo) SaveMain(ctx context.Context, m *model.StockEntryMain) error {
	return r.db.WithContext(ctx).
		Omit("OriginBusinessEntity", "OriginEnterprise").
		Save(m).Error
}

// ListUnpopulatedMains returns head records whose latest version sits on the
// given enterprise and whose lineage origin has not been traced yet.
func (r *stockRepo) ListUnpopulatedMains(ctx context.Context, enterpriseID uint) ([]model.StockEntryMain, error) {
	var mains []model.StockEntryMain
	err := r.db.WithContext(ctx).
		Joins("JOIN stock_entries ON stock_entries.main_id = stock_entry_mains.id AND stock_entries.is_last = true").
		Where("stock_entry_mains.populated = false AND stock_entries.enterprise_id = ?", enterpriseID).
		Find(&mains).Error
	return mains, err
}

func (r *stockRepo) ReplacePackages(ctx context.Context, entryID uint, pkgs []model.Package) error {
	if err := r.db.WithContext(ctx).
		Where("stock_entry_id = ?", entryID).
		Delete(&model.Package{}).Error; err != nil {
		return err
	}
	if len(pkgs) == 0 {
		return nil
	}
	for i := range pkgs {
		pkgs[i].ID = 0
		pkgs[i].StockEntryID = entryID
	}
	return r.db.WithContext(ctx).Create(&pkgs).Error
}

func (r *stockRepo) ReplaceVetDocRefs(ctx context.Context, entryID uint, refs []model.VetDocumentRef) error {
	if err := r.db.WithContext(ctx).
		Where("stock_entry_id = ?", entryID).
		Delete(&model.VetDocumentRef{}).Error; err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}
	for i := range refs {
		refs[i].ID = 0
		refs[i].StockEntryID = entryID
	}
	return r.db.WithContext(ctx).Create(&refs).Error
}

func (r *stockRepo) ListVetDocRefs(ctx context.Context, entryID uint) ([]model.VetDocumentRef, error) {
	var refs []model.VetDocumentRef
	err := r.db.WithContext(ctx).Where("stock_entry_id = ?", entryID).Find(&refs).Error
	return refs, err
}

func (r *stockRepo) WithTx(tx *gorm.DB) StockRepository {
	if tx == nil {
		return r
	}
	return &stockRepo{db: tx}
}

func (r *stockRepo) DB() *gorm.DB { return r.db }
