package storage

import (
	"context"

	"github.com/s/ecourse/internal/models"
)

// ListUsers returns active users.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.with(ctx).Where("is_active = ?", true).Order("id").Find(&users).Error
	return users, translate("list users", err)
}

// GetActiveUser finds an active user by id.
func (s *Store) GetActiveUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.with(ctx).Where("is_active = ?", true).First(&user, id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

// CreateUser inserts a user. A taken username yields ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate("create user", s.with(ctx).Create(u).Error)
}

// UpdateUser applies column updates to u and reloads it.
func (s *Store) UpdateUser(ctx context.Context, u *models.User, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.with(ctx).Model(u).Updates(updates).Error; err != nil {
		return translate("update user", err)
	}
	return translate("reload user", s.with(ctx).First(u, u.ID).Error)
}
