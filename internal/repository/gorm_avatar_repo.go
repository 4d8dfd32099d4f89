package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

// GormAvatarRepository implements AvatarRepository using GORM.
type GormAvatarRepository struct {
	db *gorm.DB
}

// NewGormAvatarRepository creates a new GORM-based avatar repository.
func NewGormAvatarRepository(db *gorm.DB) *GormAvatarRepository {
	return &GormAvatarRepository{db: db}
}

// Create creates a new avatar.
func (r *GormAvatarRepository) Create(ctx context.Context, avatar *domain.Avatar) error {
	avatar.ID = uuid.New().String()

	model := domain.AvatarToModel(avatar)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAvatarExists
		}
		return err
	}

	avatar.CreatedAt = model.CreatedAt
	return nil
}

// GetByUserID retrieves the avatar cached for userID.
func (r *GormAvatarRepository) GetByUserID(ctx context.Context, userID string) (*domain.Avatar, error) {
	var model domain.AvatarModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAvatarNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// DeleteByUserID hard-deletes the avatar of userID.
func (r *GormAvatarRepository) DeleteByUserID(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.AvatarModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAvatarNotFound
	}
	return nil
}
