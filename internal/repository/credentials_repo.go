package repository

import (
	"context"

	"github.com/pavelplus/vetis-tools/internal/model"

	"gorm.io/gorm"
)

// CredentialsRepository reads stored VetIS connection profiles. The engine
// never writes them; they are managed out of band.
type CredentialsRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Credentials, error)
	List(ctx context.Context) ([]model.Credentials, error)
}

type credentialsRepo struct{ db *gorm.DB }

func NewCredentialsRepository(db *gorm.DB) CredentialsRepository {
	return &credentialsRepo{db: db}
}

func (r *credentialsRepo) FindByID(ctx context.Context, id uint) (*model.Credentials, error) {
	var c model.Credentials
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *credentialsRepo) List(ctx context.Context) ([]model.Credentials, error) {
	var creds []model.Credentials
	err := r.db.WithContext(ctx).Order("name ASC").Find(&creds).Error
	return creds, err
}
