// MessageService owns chat messages: guarded sends with idempotent retry
// keys, the newest-first keyset pagination behind the bottom-anchored chat
// view, and sender-only deletion with last-message repair.
//
// Observability: Send and Page are OpenTelemetry-instrumented.

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
	"github.com/Bashy-Codes/wf-server/internal/chattime"
	"github.com/Bashy-Codes/wf-server/internal/cursor"
	"github.com/Bashy-Codes/wf-server/internal/domain"
	"github.com/Bashy-Codes/wf-server/internal/guard"
	"github.com/Bashy-Codes/wf-server/internal/notify"
	"github.com/Bashy-Codes/wf-server/internal/profile"
	"github.com/Bashy-Codes/wf-server/internal/realtime"
	"github.com/Bashy-Codes/wf-server/internal/repo"
)

// MessageSender is the compact author projection embedded in message rows.
type MessageSender struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// MessageItem is the client-facing message projection.
type MessageItem struct {
	MessageID           string             `json:"messageId"`
	ConversationGroupID string             `json:"conversationGroupId"`
	SenderID            string             `json:"senderId"`
	Type                domain.MessageType `json:"type"`
	Content             string             `json:"content"`
	ImageURL            string             `json:"imageUrl,omitempty"`
	ReplyParentID       *string            `json:"replyParentId,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
	IsRead              bool               `json:"isRead"`
	Sender              *MessageSender     `json:"sender,omitempty"`
	// ShowTimeSeparator marks messages that open a new calendar day; the
	// label is precomputed so clients render it verbatim.
	ShowTimeSeparator  bool   `json:"showTimeSeparator"`
	TimeSeparatorLabel string `json:"timeSeparatorLabel,omitempty"`
}

// SendInput carries the mutable fields of a send request.
type SendInput struct {
	Type           domain.MessageType
	Content        string
	ImageKey       string
	ReplyParentID  string
	IdempotencyKey string
}

// MessageService coordinates message persistence, enrichment, notification,
// and invalidation.
type MessageService struct {
	DB       *gorm.DB
	Profiles profile.Resolver
	Notifier notify.Dispatcher
	Realtime realtime.Publisher

	// IdempotencyTTL bounds how long a client retry key stays valid.
	IdempotencyTTL time.Duration

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

// NewMessageService constructs a MessageService with the real clock.
func NewMessageService(db *gorm.DB, res profile.Resolver, n notify.Dispatcher, rt realtime.Publisher, idemTTL time.Duration) *MessageService {
	return &MessageService{
		DB:             db,
		Profiles:       res,
		Notifier:       n,
		Realtime:       rt,
		IdempotencyTTL: idemTTL,
		Now:            time.Now,
	}
}

// Send appends a message to a conversation. The message row, the
// conversation's last-message pointer, the peer's unread flag, and the
// optional idempotency record all commit in one transaction. A retried send
// carrying the same Idempotency-Key returns the originally created message
// without new side effects.
func (s *MessageService) Send(ctx context.Context, userID, convID string, in SendInput) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.id", convID),
		),
	)
	defer span.End()

	if err := guard.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	conv, err := s.loadParticipant(ctx, userID, convID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: convID,
		SenderID:       userID,
		Type:           in.Type,
	}
	switch in.Type {
	case domain.MessageText:
		content, err := guard.MessageContent(in.Content)
		if err != nil {
			return nil, err
		}
		msg.Content = content
	case domain.MessageImage:
		if in.ImageKey == "" {
			return nil, apperr.Validation("imageKey", "image key is required")
		}
		key := in.ImageKey
		msg.ImageKey = &key
	default:
		return nil, apperr.Validation("type", "type must be text or image")
	}

	if in.ReplyParentID != "" {
		parent, err := repo.GetMessage(ctx, s.DB, in.ReplyParentID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && parent.ConversationID != convID) {
			return nil, apperr.Validation("replyParentId", "reply target not in this conversation")
		}
		if err != nil {
			return nil, apperr.Internal("reply target lookup failed", err)
		}
		pid := in.ReplyParentID
		msg.ReplyParentID = &pid
	}

	idemKey, err := guard.IdempotencyKey(in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	// CreatedAt feeds the keyset cursor, whose wire format is millisecond
	// precision; the stored value must not be finer.
	now := s.Now().UTC().Truncate(time.Millisecond)
	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, userID, convID, idemKey, now); err == nil {
			return repo.GetMessage(ctx, s.DB, rec.ResultID)
		}
	}

	msg.CreatedAt = now
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, txErr := repo.CreateMessage(tx, msg); txErr != nil {
			return txErr
		}
		if idemKey != "" {
			if _, txErr := repo.CreateIdempotency(tx, userID, convID, idemKey, msg.ID, s.IdempotencyTTL); txErr != nil {
				return txErr
			}
		}
		if txErr := repo.SetLastMessage(tx, convID, &msg.ID, msg.CreatedAt); txErr != nil {
			return txErr
		}
		return repo.SetUnread(tx, conv, conv.Other(userID), true)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// Concurrent retry won the insert; return its message.
		if rec, recErr := repo.GetIdempotency(ctx, s.DB, userID, convID, idemKey, now); recErr == nil {
			return repo.GetMessage(ctx, s.DB, rec.ResultID)
		}
		return nil, apperr.Internal("send message failed", err)
	}
	if err != nil {
		return nil, apperr.Internal("send message failed", err)
	}

	peer := conv.Other(userID)
	go s.Notifier.Notify(context.WithoutCancel(ctx), peer, notify.EventMessageReceived, map[string]any{
		"conversationGroupId": convID,
		"messageId":           msg.ID,
	})
	s.Realtime.Invalidate(ctx, realtime.ConversationTopic(convID))
	s.Realtime.Invalidate(ctx, realtime.InboxTopic(peer))

	return msg, nil
}

// Page returns a page of the conversation's messages, newest first, each
// enriched with a compact sender projection. The presentation layer
// reverses the page for bottom-anchored rendering; "load older" passes the
// returned cursor back in, which anchors on (createdAt, id) so concurrent
// sends never shift, duplicate, or skip already-fetched rows. Fetching the
// first page marks the conversation read for the caller.
func (s *MessageService) Page(ctx context.Context, userID, convID, cur string, limit int) (*Page[MessageItem], error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Page",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.id", convID),
			attribute.Int("page.limit", limit),
		),
	)
	defer span.End()

	if err := guard.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	conv, err := s.loadParticipant(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	after, err := cursor.Decode(cur)
	if err != nil {
		return nil, err
	}
	limit = clampPageSize(limit)

	raw, err := repo.MessagesPage(ctx, s.DB, convID, after, limit+1)
	if err != nil {
		return nil, apperr.Internal("messages query failed", err)
	}
	rows, done, cont := pageOf(raw, limit, func(m domain.Message) cursor.Key {
		return cursor.Key{T: m.CreatedAt, ID: m.ID}
	})

	senderIDs := []string{conv.User1ID, conv.User2ID}
	senders, err := repo.GetUsers(ctx, s.DB, senderIDs)
	if err != nil {
		return nil, apperr.Internal("sender lookup failed", err)
	}

	now := s.Now().UTC()
	items := make([]MessageItem, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		item := MessageItem{
			MessageID:           m.ID,
			ConversationGroupID: m.ConversationID,
			SenderID:            m.SenderID,
			Type:                m.Type,
			Content:             m.Content,
			ReplyParentID:       m.ReplyParentID,
			CreatedAt:           m.CreatedAt,
			IsRead:              m.ReadAt != nil,
		}
		// The overfetched row serves as the last message's older neighbor.
		var older time.Time
		if i+1 < len(raw) {
			older = raw[i+1].CreatedAt
		}
		if chattime.ShowSeparator(m.CreatedAt, older) {
			item.ShowTimeSeparator = true
			item.TimeSeparatorLabel = chattime.Label(m.CreatedAt, now)
		}
		if m.ImageKey != nil {
			item.ImageURL = s.Profiles.PictureURL(*m.ImageKey)
		}
		if u, ok := senders[m.SenderID]; ok {
			item.Sender = &MessageSender{
				UserID:         u.ID,
				Name:           u.Name,
				ProfilePicture: s.Profiles.PictureURL(u.ProfilePicture),
			}
		}
		items = append(items, item)
	}

	// Opening the conversation clears the caller's unread state. Reads stay
	// non-blocking; a failure here only delays the badge.
	if cur == "" && conv.UnreadFor(userID) {
		if err := repo.MarkMessagesRead(ctx, s.DB, convID, userID, now); err == nil {
			_ = repo.SetUnread(s.DB.WithContext(ctx), conv, userID, false)
		}
	}

	return &Page[MessageItem]{Page: items, IsDone: done, ContinueCursor: cont}, nil
}

// Delete removes a message permanently. Only the sender may delete. When
// the deleted row was the conversation's newest, the last-message pointer
// is recomputed from the remaining rows instead of dangling.
func (s *MessageService) Delete(ctx context.Context, userID, messageID string) error {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return err
	}

	msg, err := repo.GetMessage(ctx, s.DB, messageID)
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("message not found")
	}
	if err != nil {
		return apperr.Internal("message lookup failed", err)
	}
	if msg.SenderID != userID {
		return apperr.NotAuthorized("only the sender can delete a message")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, txErr := repo.GetConversation(ctx, tx, msg.ConversationID)
		if txErr != nil {
			return txErr
		}
		if txErr := repo.DeleteMessage(tx, msg.ID); txErr != nil {
			return txErr
		}
		if conv.LastMessageID == nil || *conv.LastMessageID != msg.ID {
			return nil
		}
		newest, txErr := repo.NewestMessage(tx, conv.ID)
		if txErr != nil {
			return txErr
		}
		if newest == nil {
			return repo.SetLastMessage(tx, conv.ID, nil, conv.CreatedAt)
		}
		return repo.SetLastMessage(tx, conv.ID, &newest.ID, newest.CreatedAt)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("message not found")
	}
	if err != nil {
		return apperr.Internal("delete message failed", err)
	}

	s.Realtime.Invalidate(ctx, realtime.ConversationTopic(msg.ConversationID))
	return nil
}

// loadParticipant fetches a conversation and verifies the caller belongs to
// it.
func (s *MessageService) loadParticipant(ctx context.Context, userID, convID string) (*domain.Conversation, error) {
	conv, err := repo.GetConversation(ctx, s.DB, convID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return nil, apperr.Internal("conversation lookup failed", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.NotAuthorized("not a participant of this conversation")
	}
	return conv, nil
}
