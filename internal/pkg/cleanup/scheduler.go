// Package cleanup permanently removes soft-deleted catalog items once their
// retention window has passed.
package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
)

const (
	LockKey = "cleanup:lock"
	lockTTL = 30 * time.Minute

	DefaultRetentionDays = 30
)

var ErrAlreadyRunning = apperr.Conflict("Cleanup is already running")

// Purger is a kind of soft-deletable resource the scheduler can sweep.
type Purger interface {
	Kind() string
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// Locker is a cross-process lease, see cache.Locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Report summarises one sweep of a single kind.
type Report struct {
	Kind    string `json:"kind"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

type Scheduler struct {
	purgers       []Purger
	tx            repository.Transactor
	locker        Locker
	retentionDays int
	hour          int
	now           func() time.Time

	runMu sync.Mutex

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewScheduler creates a scheduler that sweeps purgers daily at cfg.Hour. tx is
// used to drop expired refresh tokens and may be nil; locker may be nil for a
// single instance deployment.
func NewScheduler(cfg config.Cleanup, tx repository.Transactor, locker Locker, purgers ...Purger) *Scheduler {
	days := cfg.RetentionDays
	if days < 1 {
		days = DefaultRetentionDays
	}
	return &Scheduler{
		purgers:       purgers,
		tx:            tx,
		locker:        locker,
		retentionDays: days,
		hour:          cfg.Hour,
		now:           time.Now,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.stopCh = make(chan struct{})
	s.running = true

	s.wg.Add(1)
	go s.loop(s.stopCh)
	log.Infof("[Cleanup] Scheduler started, daily at %02d:00 with %d days retention", s.hour, s.retentionDays)
}

// Stop waits for a sweep in progress to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.wg.Wait()
	log.Info("[Cleanup] Scheduler stopped")
}

func (s *Scheduler) loop(stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		wait := nextRun(s.now(), s.hour).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.Run(context.Background(), s.retentionDays); err != nil {
				log.Errorf("[Cleanup] Scheduled run failed: %v", err)
			}
		}
	}
}

// nextRun returns the next hour:00 in now's location strictly after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ManualCleanup sweeps with a custom retention window of days.
func (s *Scheduler) ManualCleanup(ctx context.Context, days int) ([]Report, error) {
	if days < 1 {
		return nil, apperr.BadRequest("days must be at least 1")
	}
	log.Infof("[Cleanup] Manual cleanup for items deleted more than %d days ago", days)
	return s.Run(ctx, days)
}

// Run hard-deletes every item soft-deleted more than retentionDays ago. A failing
// item is logged and counted and does not stop the sweep.
func (s *Scheduler) Run(ctx context.Context, retentionDays int) ([]Report, error) {
	if !s.runMu.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer s.runMu.Unlock()

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, LockKey, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire cleanup lock: %w", err)
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), LockKey); err != nil {
				log.Warnf("[Cleanup] Failed to release lock: %v", err)
			}
		}()
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -retentionDays)
	log.Infof("[Cleanup] Starting cleanup of items deleted before %s", cutoff.Format(time.RFC3339))

	reports := make([]Report, 0, len(s.purgers))
	for _, p := range s.purgers {
		reports = append(reports, s.sweep(ctx, p, cutoff))
	}
	s.purgeTokens(ctx, now)
	return reports, nil
}

func (s *Scheduler) sweep(ctx context.Context, p Purger, cutoff time.Time) Report {
	report := Report{Kind: p.Kind()}

	ids, err := p.ListDeletedBefore(ctx, cutoff)
	if err != nil {
		log.Errorf("[Cleanup] Failed to list deleted %s items: %v", p.Kind(), err)
		return report
	}
	report.Total = len(ids)

	for _, id := range ids {
		if err := p.HardDelete(ctx, id); err != nil {
			log.Errorf("[Cleanup] Failed to permanently delete %s %s: %v", p.Kind(), id, err)
			report.Failed++
			continue
		}
		report.Success++
	}

	log.Infof("[Cleanup] %s cleanup completed. Success: %d, Failed: %d, Total: %d",
		p.Kind(), report.Success, report.Failed, report.Total)
	return report
}

func (s *Scheduler) purgeTokens(ctx context.Context, now time.Time) {
	if s.tx == nil {
		return
	}
	var removed int64
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		n, err := repos.RefreshToken.DeleteExpiredAndRevoked(now)
		removed = n
		return err
	})
	if err != nil {
		log.Errorf("[Cleanup] Failed to purge refresh tokens: %v", err)
		return
	}
	if removed > 0 {
		log.Infof("[Cleanup] Removed %d expired or revoked refresh tokens", removed)
	}
}
