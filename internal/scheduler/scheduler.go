// Package scheduler drives the deferred delivery of letters. Jobs live in a
// durable time-indexed table (delivery_jobs); a background loop polls for
// due rows and fires each one. Firing is idempotent, so the at-least-once
// semantics of the poll loop (a crash between delivering and deleting the
// job replays the job on restart) never produce a second visible effect.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/repo"
)

// Scheduler owns the delivery-job lifecycle: firing due jobs, cancelling
// pending ones, and the background poll loop.
type Scheduler struct {
	db       *gorm.DB
	interval time.Duration
	batch    int

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastRunAt time.Time
	runsCount int64
	delivered int64
}

// New builds a Scheduler polling every interval for up to batch due jobs.
func New(db *gorm.DB, interval time.Duration, batch int) *Scheduler {
	if batch < 1 {
		batch = 1
	}
	return &Scheduler{
		db:       db,
		interval: interval,
		batch:    batch,
		Now:      time.Now,
	}
}

// Fire executes one delivery job. It is idempotent under at-least-once
// invocation:
//
//   - job row gone (already fired or cancelled): no-op
//   - owning letter gone (sender deleted it): drop the orphan job, no-op
//   - letter no longer pending: drop the job, no-op
//   - otherwise: mark delivered, clear the job reference, delete the job
//
// Everything runs in one transaction, so an observer never sees a delivered
// letter that still holds a job, nor a pending letter without one.
func (s *Scheduler) Fire(ctx context.Context, jobID string) error {
	var delivered bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := repo.GetJob(ctx, tx, jobID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		letter, err := repo.GetLetter(ctx, tx, job.LetterID)
		if errors.Is(err, repo.ErrNotFound) {
			return repo.DeleteJob(tx, job.ID)
		}
		if err != nil {
			return err
		}

		delivered, err = repo.MarkLetterDelivered(tx, letter.ID)
		if err != nil {
			return err
		}
		return repo.DeleteJob(tx, job.ID)
	})
	if err != nil {
		return err
	}
	// Count only committed deliveries; a rolled-back transaction must not
	// move the counter.
	if delivered {
		s.mu.Lock()
		s.delivered++
		s.mu.Unlock()
	}
	return nil
}

// Cancel removes a pending job. Best effort: cancelling a job that already
// fired (or never existed) is a silent no-op.
func (s *Scheduler) Cancel(ctx context.Context, jobID string) error {
	return repo.DeleteJob(s.db.WithContext(ctx), jobID)
}

// Start launches the background poll loop. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("scheduler already running")
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	log.Info().Dur("interval", s.interval).Int("batch", s.batch).
		Msg("starting delivery scheduler")

	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneChan)

	s.ProcessDue(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ProcessDue(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ProcessDue fires every job whose trigger time has passed, up to the batch
// size. Exported so tests and operational tooling can drive a poll
// directly.
func (s *Scheduler) ProcessDue(ctx context.Context) {
	now := s.Now().UTC()

	s.mu.Lock()
	s.lastRunAt = now
	s.runsCount++
	run := s.runsCount
	s.mu.Unlock()

	jobs, err := repo.DueJobs(ctx, s.db, now, s.batch)
	if err != nil {
		log.Error().Err(err).Int64("run", run).Msg("due-job query failed")
		return
	}
	if len(jobs) == 0 {
		return
	}

	fired := 0
	for _, j := range jobs {
		if err := s.Fire(ctx, j.ID); err != nil {
			log.Error().Err(err).Str("job_id", j.ID).Str("letter_id", j.LetterID).
				Msg("delivery job failed")
			continue
		}
		fired++
	}
	log.Info().Int64("run", run).Int("due", len(jobs)).Int("fired", fired).
		Msg("processed delivery jobs")
}

// Stop signals the loop and waits for it to finish. Stopping a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stopChan, s.doneChan
	s.mu.Unlock()

	close(stop)
	<-done
	log.Info().Msg("delivery scheduler stopped")
}

// IsRunning reports whether the poll loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Status is a point-in-time snapshot of the loop's counters.
type Status struct {
	Running   bool          `json:"running"`
	LastRunAt time.Time     `json:"lastRunAt,omitempty"`
	NextRunAt time.Time     `json:"nextRunAt,omitempty"`
	RunsCount int64         `json:"runsCount"`
	Delivered int64         `json:"lettersDelivered"`
	Interval  time.Duration `json:"interval"`
}

// GetStatus returns the current counters.
func (s *Scheduler) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Running:   s.running,
		LastRunAt: s.lastRunAt,
		RunsCount: s.runsCount,
		Delivered: s.delivered,
		Interval:  s.interval,
	}
	if s.running && !s.lastRunAt.IsZero() {
		st.NextRunAt = s.lastRunAt.Add(s.interval)
	}
	return st
}
