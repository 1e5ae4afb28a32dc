package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Bashy-Codes/wf-server/internal/domain"
	"github.com/Bashy-Codes/wf-server/internal/repo"
)

func newSchedDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("sched_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Letter{}, &domain.DeliveryJob{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedPendingLetter(t *testing.T, db *gorm.DB, fireAt time.Time) (*domain.Letter, *domain.DeliveryJob) {
	t.Helper()
	l, err := repo.CreateLetter(db, "alice", "bob", "T", "C", time.Now().UTC())
	if err != nil {
		t.Fatalf("CreateLetter: %v", err)
	}
	j, err := repo.CreateJob(db, l.ID, fireAt)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := repo.SetLetterJob(db, l.ID, j.ID); err != nil {
		t.Fatalf("SetLetterJob: %v", err)
	}
	return l, j
}

func TestFire_DeliversOnce(t *testing.T) {
	db := newSchedDB(t)
	s := New(db, time.Minute, 10)
	ctx := context.Background()
	l, j := seedPendingLetter(t, db, time.Now().UTC())

	if err := s.Fire(ctx, j.ID); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	got, err := repo.GetLetter(ctx, db, l.ID)
	if err != nil {
		t.Fatalf("GetLetter: %v", err)
	}
	if got.Status != domain.LetterDelivered || got.ScheduledJobID != nil {
		t.Fatalf("letter not delivered cleanly: %+v", got)
	}
	if _, err := repo.GetJob(ctx, db, j.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("job must be destroyed after firing, got %v", err)
	}

	// Replaying the same job id is a no-op.
	if err := s.Fire(ctx, j.ID); err != nil {
		t.Fatalf("replayed Fire: %v", err)
	}
	if st := s.GetStatus(); st.Delivered != 1 {
		t.Fatalf("delivered counter = %d, want 1", st.Delivered)
	}
}

func TestFire_CancelledJobIsNoop(t *testing.T) {
	db := newSchedDB(t)
	s := New(db, time.Minute, 10)
	ctx := context.Background()
	l, j := seedPendingLetter(t, db, time.Now().UTC())

	if err := s.Cancel(ctx, j.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := s.Fire(ctx, j.ID); err != nil {
		t.Fatalf("Fire after cancel: %v", err)
	}
	got, err := repo.GetLetter(ctx, db, l.ID)
	if err != nil {
		t.Fatalf("GetLetter: %v", err)
	}
	if got.Status != domain.LetterPending {
		t.Fatalf("cancelled delivery must leave the letter pending: %+v", got)
	}
	if st := s.GetStatus(); st.Delivered != 0 {
		t.Fatalf("no-op fire must not move the counter: %+v", st)
	}
}

func TestFire_OrphanJobDropped(t *testing.T) {
	db := newSchedDB(t)
	s := New(db, time.Minute, 10)
	ctx := context.Background()
	l, j := seedPendingLetter(t, db, time.Now().UTC())

	// Sender deleted the letter; the job row survived a crash window.
	if err := repo.DeleteLetter(db, l.ID); err != nil {
		t.Fatalf("DeleteLetter: %v", err)
	}
	if err := s.Fire(ctx, j.ID); err != nil {
		t.Fatalf("Fire on orphan: %v", err)
	}
	if _, err := repo.GetJob(ctx, db, j.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("orphan job must be dropped, got %v", err)
	}
	if st := s.GetStatus(); st.Delivered != 0 {
		t.Fatalf("dropping an orphan must not move the counter: %+v", st)
	}
}

func TestProcessDue_FiresOnlyDueJobs(t *testing.T) {
	db := newSchedDB(t)
	s := New(db, time.Minute, 10)
	ctx := context.Background()

	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	due, _ := seedPendingLetter(t, db, now.Add(-time.Minute))
	future, _ := seedPendingLetter(t, db, now.Add(time.Hour))

	s.ProcessDue(ctx)

	gotDue, err := repo.GetLetter(ctx, db, due.ID)
	if err != nil || gotDue.Status != domain.LetterDelivered {
		t.Fatalf("due letter must be delivered: %+v (%v)", gotDue, err)
	}
	gotFuture, err := repo.GetLetter(ctx, db, future.ID)
	if err != nil || gotFuture.Status != domain.LetterPending {
		t.Fatalf("future letter must stay pending: %+v (%v)", gotFuture, err)
	}

	st := s.GetStatus()
	if st.RunsCount != 1 || st.Delivered != 1 || !st.LastRunAt.Equal(now) {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStartStop(t *testing.T) {
	db := newSchedDB(t)
	s := New(db, 10*time.Millisecond, 10)
	ctx := context.Background()
	l, _ := seedPendingLetter(t, db, time.Now().UTC().Add(-time.Second))

	s.Start(ctx)
	if !s.IsRunning() {
		t.Fatal("scheduler should be running")
	}
	s.Start(ctx) // double start is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := repo.GetLetter(ctx, db, l.ID)
		if err == nil && got.Status == domain.LetterDelivered {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Stop()
	if s.IsRunning() {
		t.Fatal("scheduler should be stopped")
	}
	s.Stop() // double stop is a no-op

	got, err := repo.GetLetter(ctx, db, l.ID)
	if err != nil || got.Status != domain.LetterDelivered {
		t.Fatalf("loop never delivered the due letter: %+v (%v)", got, err)
	}
}
