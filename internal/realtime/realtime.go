// Package realtime is the push/invalidation channel: after a write commits,
// the service publishes a bare "refetch" signal on a per-conversation topic
// and interested clients re-run their queries. The transactional core stays
// transport-agnostic; this channel carries no data, only the hint.
package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
)

const refetchSignal = "refetch"

// Publisher emits an invalidation signal on a topic. Like notifications,
// publish failures are logged and swallowed.
type Publisher interface {
	Invalidate(ctx context.Context, topic string)
}

// ConversationTopic names the invalidation channel of one conversation.
func ConversationTopic(conversationID string) string {
	return "conversation:" + conversationID
}

// InboxTopic names the invalidation channel of one user's conversation list.
func InboxTopic(userID string) string {
	return "inbox:" + userID
}

// Valkey publishes signals over valkey pub/sub.
type Valkey struct {
	client valkey.Client
}

// NewValkey connects and pings the server; callers fall back to Nop when it
// is unavailable.
func NewValkey(addr, password string) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return &Valkey{client: client}, nil
}

// Invalidate publishes the refetch signal. Errors are logged, never
// returned.
func (v *Valkey) Invalidate(ctx context.Context, topic string) {
	err := v.client.Do(ctx, v.client.B().Publish().Channel(topic).Message(refetchSignal).Build()).Error()
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("invalidation publish failed")
	}
}

// Close releases the underlying client.
func (v *Valkey) Close() { v.client.Close() }

// Nop drops every signal. Used when no valkey address is configured and in
// tests.
type Nop struct{}

// Invalidate implements Publisher.
func (Nop) Invalidate(context.Context, string) {}
