package repository

import (
	"context"
	"time"

	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/vetis"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuditFilter narrows exchange history listings.
type AuditFilter struct {
	SOAPAction string
	Since      time.Time
	Until      time.Time
	Page       int
	Limit      int
}

// AuditRepository persists and reads the registry exchange history. It also
// satisfies vetis.AuditSink so the transport can record every attempt.
type AuditRepository interface {
	vetis.AuditSink
	FindByID(ctx context.Context, id uint) (*model.APIRequestLog, error)
	List(ctx context.Context, filter AuditFilter) ([]model.APIRequestLog, int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

// Record writes one exchange row. A failed insert is logged and swallowed:
// audit must never break the exchange it describes.
func (r *auditRepo) Record(ctx context.Context, entry vetis.AuditEntry) {
	row := model.APIRequestLog{
		SOAPAction:   entry.SOAPAction,
		RequestBody:  entry.RequestBody,
		StatusCode:   entry.StatusCode,
		ResponseBody: entry.ResponseBody,
		Comment:      entry.Comment,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error().Err(err).Str("soap_action", entry.SOAPAction).
			Msg("failed to persist registry audit entry")
	}
}

func (r *auditRepo) FindByID(ctx context.Context, id uint) (*model.APIRequestLog, error) {
	var row model.APIRequestLog
	err := r.db.WithContext(ctx).First(&row, id).Error
	return &row, err
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.APIRequestLog, int64, error) {
	var rows []model.APIRequestLog
	var total int64

	q := r.db.WithContext(ctx).Model(&model.APIRequestLog{})
	if filter.SOAPAction != "" {
		q = q.Where("soap_action = ?", filter.SOAPAction)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("created_at < ?", filter.Until)
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
	// Bodies are large; listings return metadata only, FindByID has the rest.
	err := q.Select("id", "created_at", "soap_action", "status_code", "comment").
		Order("created_at DESC").Limit(filter.Limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}
