package repository

import (
	"context"
	"time"

	"famsync-backend/internal/attention/domain"
)

// RequestRepository defines durable storage for attention requests.
// All terminal transitions are conditional on the stored status still being SENT.
type RequestRepository interface {
	// CreateOpen inserts a SENT request. Returns domain.ErrConflict when the
	// target already has an open request in the family.
	CreateOpen(ctx context.Context, req *domain.AttentionRequest) error

	// FindByID returns nil, nil when the request does not exist
	FindByID(ctx context.Context, id string) (*domain.AttentionRequest, error)

	// FindOpenByTarget returns the SENT request for the target, or nil
	FindOpenByTarget(ctx context.Context, familyID, targetUID string) (*domain.AttentionRequest, error)

	// Transition moves a SENT request that has not reached its deadline to
	// ACKNOWLEDGED or CANCELLED. Reports false when another writer won.
	Transition(ctx context.Context, id string, to domain.RequestStatus, at time.Time) (bool, error)

	// ExpireIfDue moves a SENT request to EXPIRED when expires_at <= now
	ExpireIfDue(ctx context.Context, id string, now time.Time) (bool, error)

	// FindExpiredOpen lists SENT requests past their deadline, oldest deadline first
	FindExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*domain.AttentionRequest, error)
}

// ModeRepository stores per-member attention consent
type ModeRepository interface {
	// Get returns nil, nil when the member never stored a mode
	Get(ctx context.Context, familyID, userID string) (*domain.AttentionMode, error)

	// Upsert creates or replaces the member's mode
	Upsert(ctx context.Context, mode *domain.AttentionMode) error
}
