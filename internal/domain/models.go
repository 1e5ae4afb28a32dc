// Package domain defines the persistence models for the communication core:
// users, friendships, letters with their delivery jobs, conversations, and
// messages. These types are mapped with GORM and shared by the repository
// and service layers.
package domain

import "time"

// LetterStatus is the delivery state of a letter. Transitions are
// one-directional: pending -> delivered. There is no edge back to pending.
type LetterStatus string

const (
	// LetterPending means the letter exists but is not yet visible to its
	// recipient. A pending letter always owns exactly one DeliveryJob.
	LetterPending LetterStatus = "pending"
	// LetterDelivered means the trigger time has passed and the recipient
	// may read the letter. A delivered letter never holds a job reference.
	LetterDelivered LetterStatus = "delivered"
)

// MessageType discriminates chat message payloads.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

// User holds the public profile fields that enrich letter and conversation
// query results. Identity resolution itself happens upstream; this table is
// only read while building projections, never during writes.
//
// ProfilePicture stores an object-storage key, resolved to a fetchable URL
// by the profile resolver at query time.
type User struct {
	ID             string    `json:"userId"      gorm:"type:char(36);primaryKey"`
	Name           string    `json:"name"        gorm:"type:varchar(64);not null"`
	ProfilePicture string    `json:"-"           gorm:"type:varchar(255)"`
	Gender         string    `json:"gender"      gorm:"type:varchar(16)"`
	BirthDate      time.Time `json:"-"`
	Country        string    `json:"country"     gorm:"type:varchar(64)"`
	ActiveBadge    string    `json:"activeBadge" gorm:"type:varchar(64)"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Friendship records a symmetric friend relation as a canonical unordered
// pair: UserLowID < UserHighID lexicographically. The unique index makes the
// relation direction-independent, the same trick used for conversation pair
// identity.
type Friendship struct {
	ID         string `gorm:"type:char(36);primaryKey"`
	UserLowID  string `gorm:"type:char(36);not null;uniqueIndex:ux_friend_pair,priority:1"`
	UserHighID string `gorm:"type:char(36);not null;uniqueIndex:ux_friend_pair,priority:2"`
	CreatedAt  time.Time
}

// TableName returns the database table name for Friendship.
func (Friendship) TableName() string { return "friendships" }

// Letter is a deferred message: created now, visible to the recipient only
// after its delivery job fires. Rows are deleted physically; there is no
// soft-delete state.
//
// Invariants:
//   - Status only ever moves pending -> delivered.
//   - ScheduledJobID is non-nil iff Status == LetterPending.
type Letter struct {
	ID             string       `json:"letterId"    gorm:"type:char(36);primaryKey"`
	SenderID       string       `json:"senderId"    gorm:"type:char(36);not null;index:idx_letters_sender,priority:1"`
	RecipientID    string       `json:"recipientId" gorm:"type:char(36);not null;index:idx_letters_recipient_status,priority:1"`
	Title          string       `json:"title"       gorm:"type:varchar(100);not null"`
	Content        string       `json:"content"     gorm:"type:text;not null"`
	Status         LetterStatus `json:"status"      gorm:"type:varchar(16);not null;index:idx_letters_recipient_status,priority:2;check:status IN ('pending','delivered')"`
	ScheduledJobID *string      `json:"-"           gorm:"type:char(36)"`
	CreatedAt      time.Time    `json:"createdAt"   gorm:"index:idx_letters_sender,priority:2;index:idx_letters_recipient_status,priority:3"`
	UpdatedAt      time.Time    `json:"-"`
}

// TableName returns the database table name for Letter.
func (Letter) TableName() string { return "letters" }

// DeliveryJob is a durable delayed-task row owned by exactly one pending
// letter. The background scheduler polls this table by FireAt. A job is
// destroyed when it fires or when its letter is cancelled or deleted, always
// in the same transaction as the owning letter's change.
type DeliveryJob struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	LetterID  string    `gorm:"type:char(36);not null;uniqueIndex"`
	FireAt    time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName returns the database table name for DeliveryJob.
func (DeliveryJob) TableName() string { return "delivery_jobs" }

// Conversation is the single chat record for a pair of users. Its primary
// key is the canonical pair id (see PairID), so creating a conversation from
// either direction resolves to the same row. User1ID/User2ID are stored in
// canonical (sorted) order.
type Conversation struct {
	ID            string    `json:"conversationGroupId" gorm:"type:varchar(80);primaryKey"`
	User1ID       string    `json:"-" gorm:"type:char(36);not null;index"`
	User2ID       string    `json:"-" gorm:"type:char(36);not null;index"`
	LastMessageID *string   `json:"lastMessageId,omitempty" gorm:"type:char(36)"`
	LastMessageAt time.Time `json:"lastMessageTime" gorm:"index"`
	User1Unread   bool      `json:"-" gorm:"not null;default:false"`
	User2Unread   bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"-"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// HasParticipant reports whether userID is one of the two members.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other returns the peer of userID in this conversation. It assumes userID
// is a participant.
func (c *Conversation) Other(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// UnreadFor reports the unread flag of the given participant.
func (c *Conversation) UnreadFor(userID string) bool {
	if c.User1ID == userID {
		return c.User1Unread
	}
	return c.User2Unread
}

// Message is a single chat utterance. Rows are append-only: after creation
// only ReadAt changes, and deletion removes the row permanently.
type Message struct {
	ID             string      `json:"messageId" gorm:"type:char(36);primaryKey"`
	ConversationID string      `json:"conversationGroupId" gorm:"type:varchar(80);not null;index:idx_conv_msgs,priority:1"`
	SenderID       string      `json:"senderId" gorm:"type:char(36);not null"`
	Type           MessageType `json:"type" gorm:"type:varchar(8);not null;check:type IN ('text','image')"`
	Content        string      `json:"content" gorm:"type:text"`
	ImageKey       *string     `json:"-" gorm:"type:varchar(255)"`
	ReplyParentID  *string     `json:"replyParentId,omitempty" gorm:"type:char(36)"`
	CreatedAt      time.Time   `json:"createdAt" gorm:"index:idx_conv_msgs,priority:2"`
	ReadAt         *time.Time  `json:"readAt,omitempty"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
