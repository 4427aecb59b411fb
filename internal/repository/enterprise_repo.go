package repository

import (
	"context"
	"time"

	"github.com/pavelplus/vetis-tools/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnterpriseRepository is the data access contract for activity locations.
type EnterpriseRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Enterprise, error)
	FindByGUID(ctx context.Context, guid uuid.UUID) (*model.Enterprise, error)
	ListByBusinessEntity(ctx context.Context, businessEntityID uint) ([]model.Enterprise, error)
	// ListSyncTargets returns the active sites cleared for ledger sync, with
	// their organization preloaded.
	ListSyncTargets(ctx context.Context) ([]model.Enterprise, error)
	Upsert(ctx context.Context, ent *model.Enterprise) error
	DeactivateAll(ctx context.Context, businessEntityID uint) error
	SetWatermark(ctx context.Context, id uint, at time.Time) error

	WithTx(tx *gorm.DB) EnterpriseRepository
	DB() *gorm.DB
}

type enterpriseRepo struct{ db *gorm.DB }

func NewEnterpriseRepository(db *gorm.DB) EnterpriseRepository {
	return &enterpriseRepo{db: db}
}

func (r *enterpriseRepo) FindByID(ctx context.Context, id uint) (*model.Enterprise, error) {
	var ent model.Enterprise
	err := r.db.WithContext(ctx).Preload("BusinessEntity").First(&ent, id).Error
	return &ent, err
}

func (r *enterpriseRepo) FindByGUID(ctx context.Context, guid uuid.UUID) (*model.Enterprise, error) {
	var ent model.Enterprise
	err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&ent).Error
	return &ent, err
}

func (r *enterpriseRepo) ListByBusinessEntity(ctx context.Context, businessEntityID uint) ([]model.Enterprise, error) {
	var ents []model.Enterprise
	err := r.db.WithContext(ctx).
		Where("business_entity_id = ?", businessEntityID).
		Order("name ASC").Find(&ents).Error
	return ents, err
}

func (r *enterpriseRepo) ListSyncTargets(ctx context.Context) ([]model.Enterprise, error) {
	var ents []model.Enterprise
	err := r.db.WithContext(ctx).
		Preload("BusinessEntity.Credentials").
		Where("is_active = true AND is_allowed = true AND business_entity_id IS NOT NULL").
		Find(&ents).Error
	return ents, err
}

// Upsert creates or updates the row keyed by GUID. The local-only fields
// (IsAllowed, StockSyncedAt, business entity link) survive refreshes.
func (r *enterpriseRepo) Upsert(ctx context.Context, ent *model.Enterprise) error {
	var existing model.Enterprise
	err := r.db.WithContext(ctx).Where("guid = ?", ent.GUID).First(&existing).Error
	switch {
	case err == nil:
		ent.ID = existing.ID
		ent.IsAllowed = existing.IsAllowed
		ent.StockSyncedAt = existing.StockSyncedAt
		if ent.BusinessEntityID == nil {
			ent.BusinessEntityID = existing.BusinessEntityID
		}
		return r.db.WithContext(ctx).Save(ent).Error
	case err == gorm.ErrRecordNotFound:
		return r.db.WithContext(ctx).Create(ent).Error
	default:
		return err
	}
}

func (r *enterpriseRepo) DeactivateAll(ctx context.Context, businessEntityID uint) error {
	return r.db.WithContext(ctx).Model(&model.Enterprise{}).
		Where("business_entity_id = ?", businessEntityID).
		Update("is_active", false).Error
}

func (r *enterpriseRepo) SetWatermark(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Enterprise{}).
		Where("id = ?", id).
		Update("stock_synced_at", at).Error
}

func (r *enterpriseRepo) WithTx(tx *gorm.DB) EnterpriseRepository {
	if tx == nil {
		return r
	}
	return &enterpriseRepo{db: tx}
}

func (r *enterpriseRepo) DB() *gorm.DB { return r.db }
