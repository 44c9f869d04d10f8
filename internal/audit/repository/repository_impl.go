package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/canvass/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Insert(ctx context.Context, record *domain.AuditRecord) error {
	if record == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditRecord, error) {
	var records []*domain.AuditRecord
	stmt := r.db.WithContext(ctx).Model(&domain.AuditRecord{})

	if eventID := strings.TrimSpace(filter.EventID); eventID != "" {
		stmt = stmt.Where("event_id = ?", eventID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
