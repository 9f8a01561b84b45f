package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"famsync-backend/internal/attention/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeRequestRepo mirrors the conditional updates of the gorm repository
type fakeRequestRepo struct {
	mu      sync.Mutex
	reqs    map[string]*domain.AttentionRequest
	creates int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{reqs: make(map[string]*domain.AttentionRequest)}
}

func (r *fakeRequestRepo) CreateOpen(_ context.Context, req *domain.AttentionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reqs {
		if existing.FamilyID == req.FamilyID && existing.TargetUID == req.TargetUID && existing.Status == domain.StatusSent {
			return domain.ErrConflict
		}
	}
	cp := *req
	r.reqs[req.ID] = &cp
	r.creates++
	return nil
}

func (r *fakeRequestRepo) FindByID(_ context.Context, id string) (*domain.AttentionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) FindOpenByTarget(_ context.Context, familyID, targetUID string) (*domain.AttentionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.reqs {
		if req.FamilyID == familyID && req.TargetUID == targetUID && req.Status == domain.StatusSent {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) Transition(_ context.Context, id string, to domain.RequestStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok || req.Status != domain.StatusSent || !at.Before(req.ExpiresAt) {
		return false, nil
	}
	req.Status = to
	ts := at
	switch to {
	case domain.StatusAcknowledged:
		req.AckAt = &ts
	case domain.StatusCancelled:
		req.CancelledAt = &ts
	default:
		return false, errors.New("unsupported transition")
	}
	return true, nil
}

func (r *fakeRequestRepo) ExpireIfDue(_ context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok || req.Status != domain.StatusSent || now.Before(req.ExpiresAt) {
		return false, nil
	}
	req.Status = domain.StatusExpired
	ts := now
	req.ExpiredAt = &ts
	return true, nil
}

func (r *fakeRequestRepo) FindExpiredOpen(_ context.Context, now time.Time, limit int) ([]*domain.AttentionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AttentionRequest
	for _, req := range r.reqs {
		if req.Status == domain.StatusSent && !now.Before(req.ExpiresAt) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRequestRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

type fakeModeRepo struct {
	mu    sync.Mutex
	modes map[string]domain.AttentionMode
}

func newFakeModeRepo() *fakeModeRepo {
	return &fakeModeRepo{modes: make(map[string]domain.AttentionMode)}
}

func (r *fakeModeRepo) Get(_ context.Context, familyID, userID string) (*domain.AttentionMode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mode, ok := r.modes[familyID+"/"+userID]
	if !ok {
		return nil, nil
	}
	return &mode, nil
}

func (r *fakeModeRepo) Upsert(_ context.Context, mode *domain.AttentionMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[mode.FamilyID+"/"+mode.UserID] = *mode
	return nil
}

type fakeMembers map[string]bool

func (m fakeMembers) IsMember(_ context.Context, familyID, userID string) (bool, error) {
	return m[familyID+"/"+userID], nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	rings    []string
	resolved []domain.RequestStatus
	err      error
}

func (d *fakeDispatcher) DeliverRing(_ context.Context, req *domain.AttentionRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rings = append(d.rings, req.ID)
	return d.err
}

func (d *fakeDispatcher) DeliverResolved(_ context.Context, req *domain.AttentionRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolved = append(d.resolved, req.Status)
	return d.err
}

func (d *fakeDispatcher) ringCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rings)
}

func (d *fakeDispatcher) resolvedStatuses() []domain.RequestStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.RequestStatus(nil), d.resolved...)
}

type fakeTracker struct {
	mu      sync.Mutex
	tracked map[string]time.Time
}

func (t *fakeTracker) Track(id string, expiresAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracked == nil {
		t.tracked = make(map[string]time.Time)
	}
	t.tracked[id] = expiresAt
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (p *fakePublisher) Publish(_ context.Context, event domain.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
