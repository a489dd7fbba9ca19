package repository

import (
	"context"
	"errors"

	"tourbook/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Exists is the fast-path duplicate check before any state mutation.
func (r *WebhookEventRepository) Exists(ctx context.Context, provider, eventKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.WebhookEvent{}).
		Where("provider = ? AND event_key = ?", provider, eventKey).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Record inserts the event, relying on the unique (provider, event_key) index
// to close the check-then-insert race. It returns created=false when another
// delivery already claimed the identity; callers treat that as "already
// processed", not as an error.
func (r *WebhookEventRepository) Record(ctx context.Context, ev *domain.WebhookEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "event_key"}},
			DoNothing: true,
		}).
		Create(ev)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
