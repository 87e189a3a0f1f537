package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/abhinavdhar/creditbook/internal/creditors"
	"github.com/abhinavdhar/creditbook/internal/messages"
	"github.com/abhinavdhar/creditbook/types"
)

const (
	DateFieldFollowUp  = "follow_up"
	DateFieldLastVisit = "last_visit"
)

type CreditorSource interface {
	DueCreditors(from, to time.Time) ([]*types.Creditor, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, text string) (int, error)
}

type Config struct {
	Interval  time.Duration
	Location  *time.Location
	DateField string
}

// Scheduler ticks at a fixed interval and broadcasts the pending-payees
// digest for the current civil day. A failed tick is logged and the
// ticker keeps running.
type Scheduler struct {
	source     CreditorSource
	dispatcher Broadcaster
	interval   time.Duration
	loc        *time.Location
	dateField  string
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	now        func() time.Time
}

func NewScheduler(source CreditorSource, dispatcher Broadcaster, config Config) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = 12 * time.Hour
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.DateField == "" {
		config.DateField = DateFieldFollowUp
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		source:     source,
		dispatcher: dispatcher,
		interval:   config.Interval,
		loc:        config.Location,
		dateField:  config.DateField,
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("Scheduler started, interval=%s tz=%s", s.interval, s.loc)

	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Println("Stopping scheduler...")
	s.cancel()
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(s.ctx); err != nil {
				log.Printf("Scheduler: tick failed: %v", err)
			}
		}
	}
}

// RunOnce performs a single tick: query today's pending creditors,
// render the digest, broadcast it. Nothing is sent when the query
// fails.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	text, err := s.DigestText()
	if err != nil {
		return err
	}
	if _, err := s.dispatcher.Broadcast(ctx, text); err != nil {
		return fmt.Errorf("broadcast digest: %w", err)
	}
	return nil
}

// DigestText renders the current day's digest without sending it. The
// bot's /today command uses it for on-demand pulls.
func (s *Scheduler) DigestText() (string, error) {
	now := s.now().In(s.loc)
	from := creditors.StartOfDay(now, s.loc)
	to := creditors.EndOfDay(now, s.loc)

	due, err := s.source.DueCreditors(from, to)
	if err != nil {
		return "", fmt.Errorf("query due creditors: %w", err)
	}
	return messages.PendingDigest(due, s.dateField == DateFieldLastVisit, s.loc), nil
}
