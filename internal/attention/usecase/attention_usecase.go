package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"famsync-backend/internal/attention/domain"
	"famsync-backend/internal/attention/repository"

	"github.com/google/uuid"
)

const defaultDispatchTimeout = 10 * time.Second

// attentionUsecase implements AttentionUsecase interface
type attentionUsecase struct {
	requestRepo repository.RequestRepository
	modeRepo    repository.ModeRepository
	members     MembershipChecker
	dispatcher  Dispatcher
	tracker     ExpiryTracker
	publisher   EventPublisher

	sendLocks       *keyedMutex
	now             func() time.Time
	dispatchTimeout time.Duration
	// background tracks in-flight dispatch and publish goroutines
	background sync.WaitGroup
}

// NewAttentionUsecase creates a new instance of attentionUsecase
func NewAttentionUsecase(requestRepo repository.RequestRepository, modeRepo repository.ModeRepository, members MembershipChecker, dispatcher Dispatcher) AttentionUsecase {
	return &attentionUsecase{
		requestRepo:     requestRepo,
		modeRepo:        modeRepo,
		members:         members,
		dispatcher:      dispatcher,
		sendLocks:       newKeyedMutex(),
		now:             func() time.Time { return time.Now().UTC() },
		dispatchTimeout: defaultDispatchTimeout,
	}
}

func (u *attentionUsecase) SetExpiryTracker(tracker ExpiryTracker) {
	u.tracker = tracker
}

func (u *attentionUsecase) SetEventPublisher(publisher EventPublisher) {
	u.publisher = publisher
}

func (u *attentionUsecase) GetMode(ctx context.Context, familyID, userID string) (domain.AttentionMode, error) {
	if err := u.requireMember(ctx, familyID, userID); err != nil {
		return domain.AttentionMode{}, err
	}
	return u.loadMode(ctx, familyID, userID)
}

func (u *attentionUsecase) SetMode(ctx context.Context, familyID, actingUID string, enabled, allowLoud bool) (domain.AttentionMode, error) {
	if err := u.requireMember(ctx, familyID, actingUID); err != nil {
		return domain.AttentionMode{}, err
	}

	mode := &domain.AttentionMode{
		FamilyID:  familyID,
		UserID:    actingUID,
		Enabled:   enabled,
		AllowLoud: allowLoud,
	}
	if err := u.modeRepo.Upsert(ctx, mode); err != nil {
		return domain.AttentionMode{}, fmt.Errorf("failed to save attention mode: %w", err)
	}

	log.Printf("[Attention] Mode for user %s in family %s set to enabled=%t allowLoud=%t", actingUID, familyID, enabled, allowLoud)
	return u.loadMode(ctx, familyID, actingUID)
}

func (u *attentionUsecase) SendRequest(ctx context.Context, in SendInput) (*domain.AttentionRequest, error) {
	message, err := validateSend(in)
	if err != nil {
		return nil, err
	}
	if err := u.requireMember(ctx, in.FamilyID, in.SenderUID); err != nil {
		return nil, err
	}
	if err := u.requireMember(ctx, in.FamilyID, in.TargetUID); err != nil {
		return nil, err
	}

	// Policy check, conflict check and insert happen under one lock per target
	unlock := u.sendLocks.Lock(in.FamilyID + "/" + in.TargetUID)
	defer unlock()

	mode, err := u.loadMode(ctx, in.FamilyID, in.TargetUID)
	if err != nil {
		return nil, err
	}
	if !CanReceive(mode, in.Intensity) {
		return nil, fmt.Errorf("%w: %s requests are not enabled for member %s", domain.ErrPolicyDenied, in.Intensity, in.TargetUID)
	}

	now := u.now()
	req := &domain.AttentionRequest{
		ID:          uuid.New().String(),
		FamilyID:    in.FamilyID,
		SenderUID:   in.SenderUID,
		TargetUID:   in.TargetUID,
		Intensity:   in.Intensity,
		DurationSec: in.DurationSec,
		Message:     message,
		Status:      domain.StatusSent,
		CreatedAt:   now,
	}
	req.ExpiresAt = now.Add(req.Duration())

	if err := u.requestRepo.CreateOpen(ctx, req); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: member %s", domain.ErrConflict, in.TargetUID)
		}
		return nil, err
	}

	log.Printf("[Attention] Request %s sent from %s to %s (%s, %ds)", req.ID, req.SenderUID, req.TargetUID, req.Intensity, req.DurationSec)

	if u.tracker != nil {
		u.tracker.Track(req.ID, req.ExpiresAt)
	}

	snapshot := *req
	u.spawn(ctx, "ring delivery for "+req.ID, func(ctx context.Context) error {
		return u.dispatcher.DeliverRing(ctx, &snapshot)
	})
	u.publish(ctx, &snapshot)

	return req, nil
}

func (u *attentionUsecase) Ack(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error) {
	return u.finish(ctx, familyID, requestID, actingUID, domain.StatusAcknowledged)
}

func (u *attentionUsecase) Cancel(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error) {
	return u.finish(ctx, familyID, requestID, actingUID, domain.StatusCancelled)
}

// finish performs a user-driven terminal transition. Only the target may
// acknowledge and only the sender may cancel. Repeating one's own completed
// transition returns the stored record.
func (u *attentionUsecase) finish(ctx context.Context, familyID, requestID, actingUID string, to domain.RequestStatus) (*domain.AttentionRequest, error) {
	req, err := u.loadInFamily(ctx, familyID, requestID)
	if err != nil {
		return nil, err
	}

	owner := req.SenderUID
	if to == domain.StatusAcknowledged {
		owner = req.TargetUID
	}
	if actingUID != owner {
		return nil, fmt.Errorf("%w: member %s cannot move request %s to %s", domain.ErrUnauthorized, actingUID, requestID, to)
	}

	if req.Status == to {
		return req, nil
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request %s is %s", domain.ErrInvalidState, requestID, req.Status)
	}

	now := u.now()
	won, err := u.requestRepo.Transition(ctx, requestID, to, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update request %s: %w", requestID, err)
	}

	current, err := u.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request %s: %w", requestID, err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
	}

	if !won {
		if current.Status == to {
			return current, nil
		}
		if current.Status == domain.StatusSent && !now.Before(current.ExpiresAt) {
			// deadline passed before the sweep got to it
			if expired, ok, err := u.ForceExpire(ctx, requestID); err == nil && ok {
				current = expired
			}
		}
		return nil, fmt.Errorf("%w: request %s is %s", domain.ErrInvalidState, requestID, current.Status)
	}

	log.Printf("[Attention] Request %s %s by %s", requestID, strings.ToLower(string(to)), actingUID)
	u.resolved(ctx, current)
	return current, nil
}

func (u *attentionUsecase) ForceExpire(ctx context.Context, requestID string) (*domain.AttentionRequest, bool, error) {
	expired, err := u.requestRepo.ExpireIfDue(ctx, requestID, u.now())
	if err != nil {
		return nil, false, fmt.Errorf("failed to expire request %s: %w", requestID, err)
	}

	req, err := u.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload request %s: %w", requestID, err)
	}
	if !expired || req == nil {
		return req, false, nil
	}

	log.Printf("[Attention] Request %s expired", requestID)
	u.resolved(ctx, req)
	return req, true, nil
}

func (u *attentionUsecase) GetRequest(ctx context.Context, familyID, requestID, actingUID string) (*domain.AttentionRequest, error) {
	req, err := u.loadInFamily(ctx, familyID, requestID)
	if err != nil {
		return nil, err
	}
	if actingUID != req.SenderUID && actingUID != req.TargetUID {
		return nil, fmt.Errorf("%w: member %s is not part of request %s", domain.ErrUnauthorized, actingUID, requestID)
	}
	return req, nil
}

func (u *attentionUsecase) GetActiveForTarget(ctx context.Context, familyID, actingUID string) (*domain.AttentionRequest, error) {
	if err := u.requireMember(ctx, familyID, actingUID); err != nil {
		return nil, err
	}

	req, err := u.requestRepo.FindOpenByTarget(ctx, familyID, actingUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open request: %w", err)
	}
	if req == nil || !u.now().Before(req.ExpiresAt) {
		return nil, fmt.Errorf("%w: no open request for member %s", domain.ErrNotFound, actingUID)
	}
	return req, nil
}

func (u *attentionUsecase) requireMember(ctx context.Context, familyID, userID string) error {
	ok, err := u.members.IsMember(ctx, familyID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: member %s in family %s", domain.ErrNotFound, userID, familyID)
	}
	return nil
}

func (u *attentionUsecase) loadMode(ctx context.Context, familyID, userID string) (domain.AttentionMode, error) {
	mode, err := u.modeRepo.Get(ctx, familyID, userID)
	if err != nil {
		return domain.AttentionMode{}, fmt.Errorf("failed to load attention mode: %w", err)
	}
	if mode == nil {
		return domain.DefaultMode(familyID, userID), nil
	}
	return *mode, nil
}

func (u *attentionUsecase) loadInFamily(ctx context.Context, familyID, requestID string) (*domain.AttentionRequest, error) {
	req, err := u.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request %s: %w", requestID, err)
	}
	if req == nil || req.FamilyID != familyID {
		return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
	}
	return req, nil
}

// resolved runs the best-effort side effects of a terminal transition
func (u *attentionUsecase) resolved(ctx context.Context, req *domain.AttentionRequest) {
	snapshot := *req
	u.spawn(ctx, "resolved delivery for "+req.ID, func(ctx context.Context) error {
		return u.dispatcher.DeliverResolved(ctx, &snapshot)
	})
	u.publish(ctx, &snapshot)
}

func (u *attentionUsecase) publish(ctx context.Context, req *domain.AttentionRequest) {
	if u.publisher == nil {
		return
	}
	event := domain.NewLifecycleEvent(req, u.now())
	u.spawn(ctx, "publish "+string(event.Type), func(ctx context.Context) error {
		return u.publisher.Publish(ctx, event)
	})
}

// spawn runs fn detached from the caller's cancellation. Errors are logged only.
func (u *attentionUsecase) spawn(parent context.Context, name string, fn func(ctx context.Context) error) {
	u.background.Add(1)
	go func() {
		defer u.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), u.dispatchTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("[Attention] %s failed: %v", name, err)
		}
	}()
}

func validateSend(in SendInput) (*string, error) {
	if in.FamilyID == "" || in.SenderUID == "" || in.TargetUID == "" {
		return nil, fmt.Errorf("%w: family, sender and target are required", domain.ErrValidation)
	}
	if in.SenderUID == in.TargetUID {
		return nil, fmt.Errorf("%w: cannot send an attention request to yourself", domain.ErrValidation)
	}
	if !in.Intensity.Valid() {
		return nil, fmt.Errorf("%w: intensity must be normal or loud, got %q", domain.ErrValidation, in.Intensity)
	}
	if !domain.ValidDuration(in.DurationSec) {
		return nil, fmt.Errorf("%w: duration_sec must be one of %v, got %d", domain.ErrValidation, domain.AllowedDurations, in.DurationSec)
	}

	if in.Message == nil {
		return nil, nil
	}
	msg := strings.TrimSpace(*in.Message)
	if msg == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(msg) > domain.MaxMessageLength {
		return nil, fmt.Errorf("%w: message is longer than %d characters", domain.ErrValidation, domain.MaxMessageLength)
	}
	return &msg, nil
}
