// ConversationService owns the conversation lifecycle: idempotent creation
// under the canonical pair identity, the recency-ordered inbox listing with
// peer and last-message enrichment, read-state, and whole-conversation
// deletion.

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
	"github.com/Bashy-Codes/wf-server/internal/cursor"
	"github.com/Bashy-Codes/wf-server/internal/domain"
	"github.com/Bashy-Codes/wf-server/internal/guard"
	"github.com/Bashy-Codes/wf-server/internal/profile"
	"github.com/Bashy-Codes/wf-server/internal/realtime"
	"github.com/Bashy-Codes/wf-server/internal/repo"
)

// ConversationItem is one inbox row: the conversation plus the peer's
// projection and a preview of the newest message.
type ConversationItem struct {
	ConversationGroupID string       `json:"conversationGroupId"`
	CreatedAt           time.Time    `json:"createdAt"`
	LastMessageAt       time.Time    `json:"lastMessageTime"`
	HasUnreadMessages   bool         `json:"hasUnreadMessages"`
	OtherUser           profile.Card `json:"otherUser"`
	LastMessage         *MessageItem `json:"lastMessage,omitempty"`
}

// ConversationService coordinates the guard, conversation/message
// repositories, and the realtime invalidation channel.
type ConversationService struct {
	DB       *gorm.DB
	Guard    *guard.Guard
	Profiles profile.Resolver
	Realtime realtime.Publisher

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

// NewConversationService constructs a ConversationService with the real
// clock.
func NewConversationService(db *gorm.DB, g *guard.Guard, res profile.Resolver, rt realtime.Publisher) *ConversationService {
	return &ConversationService{DB: db, Guard: g, Profiles: res, Realtime: rt, Now: time.Now}
}

// Create ensures the conversation between userID and otherID exists and
// returns it. The canonical pair id makes the operation idempotent: calling
// it twice, in either direction, yields the same single record.
func (s *ConversationService) Create(ctx context.Context, userID, otherID string) (*domain.Conversation, error) {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	if otherID == "" || otherID == userID {
		return nil, apperr.Validation("otherUserId", "invalid conversation partner")
	}
	if _, err := repo.GetUser(ctx, s.DB, otherID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("user lookup failed", err)
	}
	if err := s.Guard.RequireFriends(ctx, userID, otherID); err != nil {
		return nil, err
	}

	// LastMessageAt feeds the keyset cursor; keep it at the cursor's
	// millisecond precision.
	conv, err := repo.EnsureConversation(s.DB.WithContext(ctx), userID, otherID, s.Now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return nil, apperr.Internal("create conversation failed", err)
	}
	return conv, nil
}

// List returns a page of the caller's conversations ordered by last-message
// recency, each enriched with the peer's projection and a last-message
// preview. A non-empty search narrows the fetched page to peers whose name
// contains the query, compared case-folded. The filter applies after the
// page is cut, so a searching client can receive an empty page with a
// continuation cursor and isDone=false; keep paging until isDone.
func (s *ConversationService) List(ctx context.Context, userID, cur string, limit int, search string) (*Page[ConversationItem], error) {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return nil, err
	}
	after, err := cursor.Decode(cur)
	if err != nil {
		return nil, err
	}
	limit = clampPageSize(limit)

	rows, err := repo.ConversationsPage(ctx, s.DB, userID, after, limit+1)
	if err != nil {
		return nil, apperr.Internal("conversations query failed", err)
	}
	rows, done, cont := pageOf(rows, limit, func(c domain.Conversation) cursor.Key {
		return cursor.Key{T: c.LastMessageAt, ID: c.ID}
	})

	// Batch the peer and preview lookups over the page's distinct ids.
	peerIDs := make([]string, 0, len(rows))
	msgIDs := make([]string, 0, len(rows))
	for _, c := range rows {
		peerIDs = append(peerIDs, c.Other(userID))
		if c.LastMessageID != nil {
			msgIDs = append(msgIDs, *c.LastMessageID)
		}
	}
	peers, err := repo.GetUsers(ctx, s.DB, peerIDs)
	if err != nil {
		return nil, apperr.Internal("peer lookup failed", err)
	}
	previews, err := repo.GetMessages(ctx, s.DB, msgIDs)
	if err != nil {
		return nil, apperr.Internal("preview lookup failed", err)
	}

	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(search))

	now := s.Now().UTC()
	items := make([]ConversationItem, 0, len(rows))
	for _, c := range rows {
		peer, ok := peers[c.Other(userID)]
		if !ok {
			continue
		}
		if query != "" && !strings.Contains(fold.String(peer.Name), query) {
			continue
		}
		item := ConversationItem{
			ConversationGroupID: c.ID,
			CreatedAt:           c.CreatedAt,
			LastMessageAt:       c.LastMessageAt,
			HasUnreadMessages:   c.UnreadFor(userID),
			OtherUser:           s.Profiles.Card(peer, now),
		}
		if c.LastMessageID != nil {
			if m, ok := previews[*c.LastMessageID]; ok {
				mi := s.messageItem(m)
				item.LastMessage = &mi
			}
		}
		items = append(items, item)
	}
	return &Page[ConversationItem]{Page: items, IsDone: done, ContinueCursor: cont}, nil
}

// MarkRead clears the caller's unread flag and stamps the peer's messages
// as read.
func (s *ConversationService) MarkRead(ctx context.Context, userID, convID string) error {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return err
	}
	conv, err := s.loadParticipant(ctx, userID, convID)
	if err != nil {
		return err
	}
	now := s.Now().UTC()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if txErr := repo.MarkMessagesRead(ctx, tx, convID, userID, now); txErr != nil {
			return txErr
		}
		return repo.SetUnread(tx, conv, userID, false)
	})
	if err != nil {
		return apperr.Internal("mark read failed", err)
	}
	return nil
}

// Delete removes the conversation and all of its messages in one
// transaction. Either participant may delete; both inboxes get an
// invalidation signal afterwards.
func (s *ConversationService) Delete(ctx context.Context, userID, convID string) error {
	if err := guard.RequireAuthenticated(userID); err != nil {
		return err
	}
	conv, err := s.loadParticipant(ctx, userID, convID)
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.DeleteConversation(tx, convID)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("conversation not found")
	}
	if err != nil {
		return apperr.Internal("delete conversation failed", err)
	}

	s.Realtime.Invalidate(ctx, realtime.InboxTopic(conv.User1ID))
	s.Realtime.Invalidate(ctx, realtime.InboxTopic(conv.User2ID))
	return nil
}

// messageItem builds the preview projection without sender enrichment.
func (s *ConversationService) messageItem(m *domain.Message) MessageItem {
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
	if m.ImageKey != nil {
		item.ImageURL = s.Profiles.PictureURL(*m.ImageKey)
	}
	return item
}

// loadParticipant fetches a conversation and verifies the caller belongs to
// it.
func (s *ConversationService) loadParticipant(ctx context.Context, userID, convID string) (*domain.Conversation, error) {
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
