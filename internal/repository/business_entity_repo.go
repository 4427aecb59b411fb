package repository

import (
	"context"

	"github.com/pavelplus/vetis-tools/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BusinessEntityRepository is the data access contract for organizations.
type BusinessEntityRepository interface {
	FindByID(ctx context.Context, id uint) (*model.BusinessEntity, error)
	FindByGUID(ctx context.Context, guid uuid.UUID) (*model.BusinessEntity, error)
	List(ctx context.Context) ([]model.BusinessEntity, error)
	Upsert(ctx context.Context, be *model.BusinessEntity) error

	// WithTx returns a repository scoped to the given transaction; a nil tx
	// returns the receiver unchanged.
	WithTx(tx *gorm.DB) BusinessEntityRepository
	DB() *gorm.DB
}

type businessEntityRepo struct{ db *gorm.DB }

func NewBusinessEntityRepository(db *gorm.DB) BusinessEntityRepository {
	return &businessEntityRepo{db: db}
}

func (r *businessEntityRepo) FindByID(ctx context.Context, id uint) (*model.BusinessEntity, error) {
	var be model.BusinessEntity
	err := r.db.WithContext(ctx).Preload("Credentials").First(&be, id).Error
	return &be, err
}

func (r *businessEntityRepo) FindByGUID(ctx context.Context, guid uuid.UUID) (*model.BusinessEntity, error) {
	var be model.BusinessEntity
	err := r.db.WithContext(ctx).Where("guid = ?", guid).First(&be).Error
	return &be, err
}

func (r *businessEntityRepo) List(ctx context.Context) ([]model.BusinessEntity, error) {
	var bes []model.BusinessEntity
	err := r.db.WithContext(ctx).Order("name ASC").Find(&bes).Error
	return bes, err
}

// Upsert creates the row or updates the existing one keyed by GUID.
func (r *businessEntityRepo) Upsert(ctx context.Context, be *model.BusinessEntity) error {
	var existing model.BusinessEntity
	err := r.db.WithContext(ctx).Where("guid = ?", be.GUID).First(&existing).Error
	switch {
	case err == nil:
		be.ID = existing.ID
		if be.CredentialsID == nil {
			be.CredentialsID = existing.CredentialsID
		}
		return r.db.WithContext(ctx).Save(be).Error
	case err == gorm.ErrRecordNotFound:
		return r.db.WithContext(ctx).Create(be).Error
	default:
		return err
	}
}

func (r *businessEntityRepo) WithTx(tx *gorm.DB) BusinessEntityRepository {
	if tx == nil {
		return r
	}
	return &businessEntityRepo{db: tx}
}

func (r *businessEntityRepo) DB() *gorm.DB { return r.db }
