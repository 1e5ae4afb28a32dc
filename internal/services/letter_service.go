// LetterService owns the letter lifecycle: guarded creation with a delivery
// job in the same transaction, role-aware paginated queries with profile
// enrichment, and the delete rules of the pending/delivered state machine.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the caller and letter identifiers.

package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
	"github.com/Bashy-Codes/wf-server/internal/cursor"
	"github.com/Bashy-Codes/wf-server/internal/domain"
	"github.com/Bashy-Codes/wf-server/internal/guard"
	"github.com/Bashy-Codes/wf-server/internal/notify"
	"github.com/Bashy-Codes/wf-server/internal/profile"
	"github.com/Bashy-Codes/wf-server/internal/repo"
)

// LetterItem is a list-view row enriched with the peer's public projection:
// received letters carry the sender, sent letters the recipient.
type LetterItem struct {
	LetterID    string              `json:"letterId"`
	SenderID    string              `json:"senderId"`
	RecipientID string              `json:"recipientId"`
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Status      domain.LetterStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	Sender      *profile.Card       `json:"sender,omitempty"`
	Recipient   *profile.Card       `json:"recipient,omitempty"`
}

// LetterDetail is the single-letter view. The peer projection is
// deliberately narrower than in list views.
type LetterDetail struct {
	LetterID  string              `json:"letterId"`
	Title     string              `json:"title"`
	Content   string              `json:"content"`
	Status    domain.LetterStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	IsSender  bool                `json:"isSender"`
	OtherUser profile.Summary     `json:"otherUser"`
}

// LetterService coordinates the guard, the letter/job repositories, and the
// notification dispatcher.
type LetterService struct {
	DB       *gorm.DB
	Guard    *guard.Guard
	Profiles profile.Resolver
	Notifier notify.Dispatcher

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

// NewLetterService constructs a LetterService with the real clock.
func NewLetterService(db *gorm.DB, g *guard.Guard, res profile.Resolver, n notify.Dispatcher) *LetterService {
	return &LetterService{DB: db, Guard: g, Profiles: res, Notifier: n, Now: time.Now}
}

// Schedule validates and creates a letter together with its delivery job in
// one transaction: an observer never sees a pending letter without a job.
// The trigger time is now + days x 24h with days required in [1, 30].
//
// On success the recipient gets a fire-and-forget letter_scheduled
// notification. Delivery firing later does not notify; this is the only
// notification in the letter's life.
func (s *LetterService) Schedule(ctx context.Context, senderID, recipientID, title, content string, days int) (*domain.Letter, error) {
	tr := otel.Tracer("services/LetterService")
	ctx, span := tr.Start(ctx, "Schedule",
		trace.WithAttributes(
			attribute.String("user.id", senderID),
			attribute.String("letter.recipient_id", recipientID),
			attribute.Int("letter.days", days),
		),
	)
	defer span.End()

	if err := guard.RequireAuthenticated(senderID); err != nil {
		return nil, err
	}
	title, err := guard.LetterTitle(title)
	if err != nil {
		return nil, err
	}
	content, err = guard.LetterContent(content)
	if err != nil {
		return nil, err
	}
	if err := guard.DeliveryWindow(days); err != nil {
		return nil, err
	}
	if recipientID == senderID {
		return nil, apperr.Validation("recipientId", "cannot send a letter to yourself")
	}
	if _, err := repo.GetUser(ctx, s.DB, recipientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("recipient not found")
		}
		return nil, apperr.Internal("recipient lookup failed", err)
	}
	if err := s.Guard.RequireFriends(ctx, senderID, recipientID); err != nil {
		return nil, err
	}

	// CreatedAt feeds the keyset cursor, whose wire format is millisecond
	// precision; the stored value must not be finer.
	now := s.Now().UTC().Truncate(time.Millisecond)
	fireAt := now.Add(time.Duration(days) * 24 * time.Hour)

	var letter *domain.Letter
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		letter, txErr = repo.CreateLetter(tx, senderID, recipientID, title, content, now)
		if txErr != nil {
			return txErr
		}
		job, txErr := repo.CreateJob(tx, letter.ID, fireAt)
		if txErr != nil {
			return txErr
		}
		letter.ScheduledJobID = &job.ID
		return repo.SetLetterJob(tx, letter.ID, job.ID)
	})
	if err != nil {
		return nil, apperr.Internal("schedule letter failed", err)
	}

	go s.Notifier.Notify(context.WithoutCancel(ctx), recipientID, notify.EventLetterScheduled, map[string]any{
		"letterId": letter.ID,
		"senderId": senderID,
	})

	return letter, nil
}

// Received returns a page of delivered letters addressed to userID, newest
// first, each enriched with the sender's public projection. Pending letters
// never appear here.
func (s *LetterService) Received(ctx context.Context, userID, cur string, limit int) (*Page[LetterItem], error) {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	after, err := cursor.Decode(cur)
	if err != nil {
		return nil, err
	}
	limit = clampPageSize(limit)

	rows, err := repo.ReceivedLettersPage(ctx, s.DB, userID, after, limit+1)
	if err != nil {
		return nil, apperr.Internal("received letters query failed", err)
	}
	return s.letterPage(ctx, rows, limit, true)
}

// Sent returns a page of letters sent by userID with no status filter: the
// sender sees pending letters alongside delivered ones, each enriched with
// the recipient's projection.
func (s *LetterService) Sent(ctx context.Context, userID, cur string, limit int) (*Page[LetterItem], error) {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	after, err := cursor.Decode(cur)
	if err != nil {
		return nil, err
	}
	limit = clampPageSize(limit)

	rows, err := repo.SentLettersPage(ctx, s.DB, userID, after, limit+1)
	if err != nil {
		return nil, apperr.Internal("sent letters query failed", err)
	}
	return s.letterPage(ctx, rows, limit, false)
}

// letterPage trims the over-fetched rows and enriches them with one batched
// peer lookup keyed by the distinct foreign ids of the page.
func (s *LetterService) letterPage(ctx context.Context, rows []domain.Letter, limit int, received bool) (*Page[LetterItem], error) {
	rows, done, cont := pageOf(rows, limit, func(l domain.Letter) cursor.Key {
		return cursor.Key{T: l.CreatedAt, ID: l.ID}
	})

	peerIDs := make([]string, 0, len(rows))
	seen := map[string]bool{}
	for _, l := range rows {
		id := l.SenderID
		if !received {
			id = l.RecipientID
		}
		if !seen[id] {
			seen[id] = true
			peerIDs = append(peerIDs, id)
		}
	}
	peers, err := repo.GetUsers(ctx, s.DB, peerIDs)
	if err != nil {
		return nil, apperr.Internal("peer lookup failed", err)
	}

	now := s.Now().UTC()
	items := make([]LetterItem, 0, len(rows))
	for _, l := range rows {
		item := LetterItem{
			LetterID:    l.ID,
			SenderID:    l.SenderID,
			RecipientID: l.RecipientID,
			Title:       l.Title,
			Content:     l.Content,
			Status:      l.Status,
			CreatedAt:   l.CreatedAt,
		}
		if received {
			if u, ok := peers[l.SenderID]; ok {
				card := s.Profiles.Card(u, now)
				item.Sender = &card
			}
		} else {
			if u, ok := peers[l.RecipientID]; ok {
				card := s.Profiles.Card(u, now)
				item.Recipient = &card
			}
		}
		items = append(items, item)
	}
	return &Page[LetterItem]{Page: items, IsDone: done, ContinueCursor: cont}, nil
}

// Get returns one letter for its sender or recipient. A recipient asking
// for a still-pending letter is rejected with a state error: whichever of
// this read and the delivery fire commits first determines the observed
// state, and neither order corrupts anything.
func (s *LetterService) Get(ctx context.Context, userID, letterID string) (*LetterDetail, error) {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return nil, err
	}

	letter, err := s.loadLetter(ctx, letterID)
	if err != nil {
		return nil, err
	}
	if letter.SenderID != userID && letter.RecipientID != userID {
		return nil, apperr.NotAuthorized("not authorized to view this letter")
	}
	if letter.RecipientID == userID && letter.Status == domain.LetterPending {
		return nil, apperr.InvalidState("letter not yet delivered")
	}

	isSender := letter.SenderID == userID
	peerID := letter.SenderID
	if isSender {
		peerID = letter.RecipientID
	}
	peer, err := repo.GetUser(ctx, s.DB, peerID)
	if err != nil {
		return nil, apperr.Internal("peer lookup failed", err)
	}

	return &LetterDetail{
		LetterID:  letter.ID,
		Title:     letter.Title,
		Content:   letter.Content,
		Status:    letter.Status,
		CreatedAt: letter.CreatedAt,
		IsSender:  isSender,
		OtherUser: s.Profiles.Summary(peer),
	}, nil
}

// Delete removes a letter under the role rules: the sender may delete at
// any time, the recipient only after delivery. Deleting a pending letter
// cancels its job in the same transaction, so no orphaned job can later
// fire against a missing letter (the scheduler's no-op guard backs this up
// if fire wins the race instead).
func (s *LetterService) Delete(ctx context.Context, userID, letterID string) error {
	tr := otel.Tracer("services/LetterService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("letter.id", letterID),
		),
	)
	defer span.End()

	if err := guard.RequireAuthenticated(userID); err != nil {
		return err
	}

	letter, err := s.loadLetter(ctx, letterID)
	if err != nil {
		return err
	}

	isSender := letter.SenderID == userID
	isRecipient := letter.RecipientID == userID
	if !isSender && !isRecipient {
		return apperr.NotAuthorized("not authorized to delete this letter")
	}
	if isRecipient && letter.Status == domain.LetterPending {
		return apperr.InvalidState("cannot delete undelivered letters")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if letter.Status == domain.LetterPending && letter.ScheduledJobID != nil {
			if txErr := repo.DeleteJob(tx, *letter.ScheduledJobID); txErr != nil {
				return txErr
			}
		}
		return repo.DeleteLetter(tx, letter.ID)
	})
	if errors.Is(err, repo.ErrNotFound) {
		// Lost the race against a concurrent delete.
		return apperr.NotFound("letter not found")
	}
	if err != nil {
		return apperr.Internal("delete letter failed", err)
	}
	return nil
}

func (s *LetterService) loadLetter(ctx context.Context, id string) (*domain.Letter, error) {
	letter, err := repo.GetLetter(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("letter not found")
	}
	if err != nil {
		return nil, apperr.Internal("letter lookup failed", err)
	}
	return letter, nil
}
