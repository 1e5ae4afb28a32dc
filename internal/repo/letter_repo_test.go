package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Bashy-Codes/wf-server/internal/cursor"
	"github.com/Bashy-Codes/wf-server/internal/domain"
)

func TestCreateLetter_StartsPending(t *testing.T) {
	db := newTestDB(t, &domain.Letter{})
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	l, err := CreateLetter(db, "alice", "bob", "Title", "Content", now)
	if err != nil {
		t.Fatalf("CreateLetter: %v", err)
	}
	if l.ID == "" || l.Status != domain.LetterPending || l.ScheduledJobID != nil {
		t.Fatalf("unexpected letter: %+v", l)
	}

	if err := SetLetterJob(db, l.ID, "job-1"); err != nil {
		t.Fatalf("SetLetterJob: %v", err)
	}
	got, err := GetLetter(context.Background(), db, l.ID)
	if err != nil {
		t.Fatalf("GetLetter: %v", err)
	}
	if got.ScheduledJobID == nil || *got.ScheduledJobID != "job-1" {
		t.Fatalf("job reference not stored: %+v", got)
	}
}

func TestMarkLetterDelivered_Idempotent(t *testing.T) {
	db := newTestDB(t, &domain.Letter{})
	l, err := CreateLetter(db, "alice", "bob", "T", "C", time.Now().UTC())
	if err != nil {
		t.Fatalf("CreateLetter: %v", err)
	}
	if err := SetLetterJob(db, l.ID, "job-1"); err != nil {
		t.Fatalf("SetLetterJob: %v", err)
	}

	first, err := MarkLetterDelivered(db, l.ID)
	if err != nil || !first {
		t.Fatalf("first delivery: (%v, %v)", first, err)
	}
	// Second attempt matches zero rows: same key, no second transition.
	second, err := MarkLetterDelivered(db, l.ID)
	if err != nil || second {
		t.Fatalf("second delivery must be a no-op: (%v, %v)", second, err)
	}

	got, err := GetLetter(context.Background(), db, l.ID)
	if err != nil {
		t.Fatalf("GetLetter: %v", err)
	}
	if got.Status != domain.LetterDelivered || got.ScheduledJobID != nil {
		t.Fatalf("delivered letter must hold no job reference: %+v", got)
	}
}

func TestDeleteLetter_MissingRow(t *testing.T) {
	db := newTestDB(t, &domain.Letter{})
	if err := DeleteLetter(db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReceivedLettersPage_FiltersPending(t *testing.T) {
	db := newTestDB(t, &domain.Letter{})
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	delivered, _ := CreateLetter(db, "alice", "bob", "T1", "C", now)
	if _, err := MarkLetterDelivered(db, delivered.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if _, err := CreateLetter(db, "carol", "bob", "T2", "C", now.Add(time.Minute)); err != nil {
		t.Fatalf("pending seed: %v", err)
	}
	if _, err := CreateLetter(db, "alice", "dave", "T3", "C", now); err != nil {
		t.Fatalf("other recipient seed: %v", err)
	}

	got, err := ReceivedLettersPage(ctx, db, "bob", nil, 10)
	if err != nil {
		t.Fatalf("ReceivedLettersPage: %v", err)
	}
	if len(got) != 1 || got[0].ID != delivered.ID {
		t.Fatalf("only the delivered letter must be visible: %+v", got)
	}

	// The sender view has no status filter.
	sent, err := SentLettersPage(ctx, db, "carol", nil, 10)
	if err != nil {
		t.Fatalf("SentLettersPage: %v", err)
	}
	if len(sent) != 1 || sent[0].Status != domain.LetterPending {
		t.Fatalf("sender must see pending letters: %+v", sent)
	}
}

func TestLetterPage_KeysetStableUnderInsert(t *testing.T) {
	db := newTestDB(t, &domain.Letter{})
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		l := &domain.Letter{
			ID:          fmt.Sprintf("l%d", i),
			SenderID:    "alice",
			RecipientID: "bob",
			Title:       "T",
			Content:     "C",
			Status:      domain.LetterDelivered,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(l).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	page1, err := ReceivedLettersPage(ctx, db, "bob", nil, 3)
	if err != nil || len(page1) != 3 {
		t.Fatalf("page1: %v (%d rows)", err, len(page1))
	}

	// A row newer than the whole first page lands between fetches.
	fresh := &domain.Letter{
		ID: "l-new", SenderID: "alice", RecipientID: "bob",
		Title: "T", Content: "C", Status: domain.LetterDelivered,
		CreatedAt: base.Add(time.Hour),
	}
	if err := db.Create(fresh).Error; err != nil {
		t.Fatalf("insert fresh: %v", err)
	}

	last := page1[len(page1)-1]
	page2, err := ReceivedLettersPage(ctx, db, "bob", &cursor.Key{T: last.CreatedAt, ID: last.ID}, 3)
	if err != nil {
		t.Fatalf("page2: %v", err)
	}

	seen := map[string]bool{}
	for _, l := range append(page1, page2...) {
		if seen[l.ID] {
			t.Fatalf("duplicate row %s across pages", l.ID)
		}
		seen[l.ID] = true
	}
	// The union of both pages covers every pre-existing row exactly once.
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("l%d", i)
		if !seen[id] {
			t.Fatalf("row %s skipped across pages", id)
		}
	}
}
