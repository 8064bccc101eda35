package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/adpricing/internal/audit/domain"
	"github.com/smallbiznis/adpricing/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

// List returns up to filter.Limit+1 rows, newest first, so callers can tell
// whether another page exists.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	opts := make([]option.QueryOption, 0, 8)
	for column, value := range map[string]string{
		"action":      filter.Action,
		"target_type": filter.TargetType,
		"target_id":   filter.TargetID,
		"actor_type":  filter.ActorType,
	} {
		if value = strings.TrimSpace(value); value != "" {
			opts = append(opts, option.ApplyWhere(column+" = ?", value))
		}
	}
	if filter.StartAt != nil {
		opts = append(opts, option.ApplyWhere("created_at >= ?", filter.StartAt.UTC()))
	}
	if filter.EndAt != nil {
		opts = append(opts, option.ApplyWhere("created_at <= ?", filter.EndAt.UTC()))
	}
	if filter.Cursor != nil {
		opts = append(opts, option.ApplyBefore("created_at", filter.Cursor.CreatedAt, filter.Cursor.ID))
	}
	opts = append(opts,
		option.ApplyOrder("created_at", option.DESC),
		option.ApplyOrder("id", option.DESC),
	)
	if filter.Limit > 0 {
		opts = append(opts, option.ApplyLimit(filter.Limit+1))
	}

	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var logs []*domain.AuditLog
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
