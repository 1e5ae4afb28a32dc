package repo

import (
	"context"
	"testing"
	"time"

	"github.com/Bashy-Codes/wf-server/internal/domain"
)

func TestDueJobs_OrderAndLimit(t *testing.T) {
	db := newTestDB(t, &domain.DeliveryJob{})
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	early, err := CreateJob(db, "l-early", now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	late, err := CreateJob(db, "l-late", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if _, err := CreateJob(db, "l-future", now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	due, err := DueJobs(ctx, db, now, 10)
	if err != nil {
		t.Fatalf("DueJobs: %v", err)
	}
	if len(due) != 2 || due[0].ID != early.ID || due[1].ID != late.ID {
		t.Fatalf("unexpected due jobs: %+v", due)
	}

	one, err := DueJobs(ctx, db, now, 1)
	if err != nil || len(one) != 1 || one[0].ID != early.ID {
		t.Fatalf("limit must keep the oldest: %+v (%v)", one, err)
	}
}

func TestDeleteJob_NoopWhenGone(t *testing.T) {
	db := newTestDB(t, &domain.DeliveryJob{})

	if err := DeleteJob(db, "never-existed"); err != nil {
		t.Fatalf("deleting an absent job must be a no-op: %v", err)
	}

	j, err := CreateJob(db, "l1", time.Now().UTC())
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := DeleteJob(db, j.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if err := DeleteJob(db, j.ID); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
}
