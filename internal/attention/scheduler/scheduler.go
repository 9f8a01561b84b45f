package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"famsync-backend/internal/attention/domain"
	"famsync-backend/internal/attention/repository"
)

const (
	defaultSweepInterval = 5 * time.Second
	sweepBatchSize       = 100
	// timerSlack keeps a per-request timer from racing the stored deadline
	timerSlack = 50 * time.Millisecond
)

// Expirer performs the SENT -> EXPIRED transition
type Expirer interface {
	ForceExpire(ctx context.Context, requestID string) (*domain.AttentionRequest, bool, error)
}

// ExpiryScheduler expires attention requests at their deadline. Each new
// request gets a one-shot timer; a periodic sweep catches anything the timers
// missed, such as requests created before a restart.
type ExpiryScheduler struct {
	requestRepo repository.RequestRepository
	expirer     Expirer
	interval    time.Duration
	now         func() time.Time

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool

	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewExpiryScheduler creates a new scheduler. A zero interval uses the default.
func NewExpiryScheduler(requestRepo repository.RequestRepository, expirer Expirer, interval time.Duration) *ExpiryScheduler {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpiryScheduler{
		requestRepo: requestRepo,
		expirer:     expirer,
		interval:    interval,
		now:         func() time.Time { return time.Now().UTC() },
		timers:      make(map[string]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the sweep loop
func (s *ExpiryScheduler) Start() {
	log.Printf("[ExpiryScheduler] Starting expiry scheduler (interval: %s)", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Run immediately on start
		s.sweep(s.ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(s.ctx)
			case <-s.stopChan:
				log.Println("[ExpiryScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweep loop and all pending timers
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	close(s.stopChan)
	s.cancel()
	s.wg.Wait()
}

// Track arms a timer that expires requestID at expiresAt
func (s *ExpiryScheduler) Track(requestID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if old, ok := s.timers[requestID]; ok && old.Stop() {
		s.wg.Done()
	}

	delay := expiresAt.Sub(s.now()) + timerSlack
	s.wg.Add(1)
	var timer *time.Timer
	// the callback cannot observe timer before Track releases s.mu
	timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		if s.timers[requestID] == timer {
			delete(s.timers, requestID)
		}
		s.mu.Unlock()
		s.expire(s.ctx, requestID)
	})
	s.timers[requestID] = timer
}

// Pending returns the number of armed timers
func (s *ExpiryScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// sweep expires every open request whose deadline has passed
func (s *ExpiryScheduler) sweep(ctx context.Context) {
	for {
		reqs, err := s.requestRepo.FindExpiredOpen(ctx, s.now(), sweepBatchSize)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[ExpiryScheduler] Error finding expired requests: %v", err)
			}
			return
		}
		if len(reqs) == 0 {
			return
		}

		log.Printf("[ExpiryScheduler] Found %d requests past their deadline", len(reqs))

		progressed := false
		for _, req := range reqs {
			if s.expire(ctx, req.ID) {
				progressed = true
			}
		}
		// A full batch that changed nothing would loop forever
		if len(reqs) < sweepBatchSize || !progressed {
			return
		}
	}
}

func (s *ExpiryScheduler) expire(ctx context.Context, requestID string) bool {
	if ctx.Err() != nil {
		return false
	}
	_, expired, err := s.expirer.ForceExpire(ctx, requestID)
	if err != nil {
		log.Printf("[ExpiryScheduler] Error expiring request %s: %v", requestID, err)
		return false
	}
	return expired
}
