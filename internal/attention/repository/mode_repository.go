package repository

import (
	"context"
	"errors"
	"time"

	"famsync-backend/internal/attention/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type modeRepository struct {
	db *gorm.DB
}

// NewModeRepository creates a new instance of modeRepository
func NewModeRepository(db *gorm.DB) ModeRepository {
	return &modeRepository{db: db}
}

func (r *modeRepository) Get(ctx context.Context, familyID, userID string) (*domain.AttentionMode, error) {
	var mode domain.AttentionMode
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND user_id = ?", familyID, userID).
		First(&mode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mode, nil
}

// Upsert saves the mode (atomic INSERT ... ON CONFLICT (family_id, user_id) DO UPDATE)
func (r *modeRepository) Upsert(ctx context.Context, mode *domain.AttentionMode) error {
	now := time.Now()
	if mode.CreatedAt.IsZero() {
		mode.CreatedAt = now
	}
	mode.UpdatedAt = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "family_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "allow_loud", "updated_at"}),
	}).Create(mode).Error
}
