package repository

import (
	"context"

	"github.com/samber/oops"
	"gorm.io/gorm"

	"authgate/internal/model"
)

type AuthEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

func (r *AuthEventRepository) Create(ctx context.Context, event *model.AuthEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return oops.In("repository").With("table", "auth_events", "type", event.Type).Wrapf(err, "create auth event failed")
	}
	return nil
}
