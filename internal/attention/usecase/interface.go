package usecase

import (
	"context"
	"time"

	"famsync-backend/internal/attention/domain"
)

// AttentionUsecase defines the attention request state machine and consent policy
type AttentionUsecase interface {
	// GetMode returns the member's consent, or the disabled default if never set
	GetMode(ctx context.Context, familyID, userID string) (domain.AttentionMode, error)

	// SetMode stores the acting member's own consent
	SetMode(ctx context.Context, familyID, actingUID string, enabled, allowLoud bool) (domain.AttentionMode, error)

	// SendRequest creates a SENT request and pushes it to the target's devices
	SendRequest(ctx context.Context, in SendInput) (*domain.AttentionRequest, error)

	// Ack moves the target's request to ACKNOWLEDGED
	Ack(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error)

	// Cancel moves the sender's request to CANCELLED
	Cancel(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error)

	// ForceExpire moves a due request to EXPIRED. It reports false without an
	// error when the request is unknown, not yet due, or already terminal.
	ForceExpire(ctx context.Context, requestID string) (*domain.AttentionRequest, bool, error)

	// GetRequest returns a request to its sender or target
	GetRequest(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error)

	// GetActiveForTarget returns the open request addressed to actingUID
	GetActiveForTarget(ctx context.Context, familyID, actingUID string) (*domain.AttentionRequest, error)

	// SetExpiryTracker registers the component that fires expiry at each deadline
	SetExpiryTracker(tracker ExpiryTracker)

	// SetEventPublisher enables lifecycle event publishing
	SetEventPublisher(publisher EventPublisher)
}

// SendInput carries the arguments of SendRequest
type SendInput struct {
	FamilyID    string
	SenderUID   string
	TargetUID   string
	Intensity   domain.Intensity
	DurationSec int
	Message     *string
}

// MembershipChecker answers whether a user belongs to a family
type MembershipChecker interface {
	IsMember(ctx context.Context, familyID, userID string) (bool, error)
}

// Dispatcher pushes attention alerts to a member's devices
type Dispatcher interface {
	DeliverRing(ctx context.Context, req *domain.AttentionRequest) error
	DeliverResolved(ctx context.Context, req *domain.AttentionRequest) error
}

// ExpiryTracker is notified of every new deadline
type ExpiryTracker interface {
	Track(requestID string, expiresAt time.Time)
}

// EventPublisher announces lifecycle transitions to other services
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LifecycleEvent) error
}
