package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"famsync-backend/internal/attention/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormRequestRepository implements RequestRepository using GORM
type gormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GORM-based RequestRepository
func NewGormRequestRepository(db *gorm.DB) RequestRepository {
	return &gormRequestRepository{db: db}
}

func (r *gormRequestRepository) CreateOpen(ctx context.Context, req *domain.AttentionRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.Status = domain.StatusSent

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&domain.AttentionRequest{}).
			Where("family_id = ? AND target_uid = ? AND status = ?", req.FamilyID, req.TargetUID, domain.StatusSent).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return domain.ErrConflict
		}
		return tx.Create(req).Error
	})
	if err == nil || errors.Is(err, domain.ErrConflict) {
		return err
	}
	// The partial unique index catches writers in other processes
	if isDuplicateKey(err) {
		return domain.ErrConflict
	}
	return fmt.Errorf("create attention request: %w", err)
}

func (r *gormRequestRepository) FindByID(ctx context.Context, id string) (*domain.AttentionRequest, error) {
	var req domain.AttentionRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *gormRequestRepository) FindOpenByTarget(ctx context.Context, familyID, targetUID string) (*domain.AttentionRequest, error) {
	var req domain.AttentionRequest
	err := r.db.WithContext(ctx).
		Where("family_id = ? AND target_uid = ? AND status = ?", familyID, targetUID, domain.StatusSent).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *gormRequestRepository) Transition(ctx context.Context, id string, to domain.RequestStatus, at time.Time) (bool, error) {
	var column string
	switch to {
	case domain.StatusAcknowledged:
		column = "ack_at"
	case domain.StatusCancelled:
		column = "cancelled_at"
	default:
		return false, fmt.Errorf("%w: unsupported transition to %s", domain.ErrValidation, to)
	}

	res := r.db.WithContext(ctx).Model(&domain.AttentionRequest{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, domain.StatusSent, at).
		Updates(map[string]interface{}{
			"status": to,
			column:   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRequestRepository) ExpireIfDue(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.AttentionRequest{}).
		Where("id = ? AND status = ? AND expires_at <= ?", id, domain.StatusSent, now).
		Updates(map[string]interface{}{
			"status":     domain.StatusExpired,
			"expired_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRequestRepository) FindExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*domain.AttentionRequest, error) {
	var reqs []*domain.AttentionRequest
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", domain.StatusSent, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&reqs).Error
	return reqs, err
}

// isDuplicateKey recognizes unique violations from drivers that do not
// translate them to gorm.ErrDuplicatedKey
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
