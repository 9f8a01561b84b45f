package repository

import (
	"context"
	"time"

	familydomain "famsync-backend/internal/family/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository answers membership questions for other modules
type MemberRepository interface {
	IsMember(ctx context.Context, familyID, userID string) (bool, error)
	AddMember(ctx context.Context, familyID, userID string, role familydomain.Role) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new instance of memberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) IsMember(ctx context.Context, familyID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&familydomain.FamilyMember{}).
		Where("family_id = ? AND user_id = ?", familyID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddMember is used by seeding and tests; invites live in the family service
func (r *memberRepository) AddMember(ctx context.Context, familyID, userID string, role familydomain.Role) error {
	member := &familydomain.FamilyMember{
		FamilyID:  familyID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error
}
