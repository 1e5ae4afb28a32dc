// Package friends abstracts the friend-graph lookup the authorization guard
// consults before letter and conversation creation. Two implementations are
// provided: a local one over the friendships table, and an HTTP client for
// deployments where the friend graph lives in a separate service.
package friends

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"

	"github.com/Bashy-Codes/wf-server/internal/repo"
)

// Checker answers the single question the guard asks: are these two users
// friends? The relation is symmetric; implementations must not care about
// argument order.
type Checker interface {
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

// Store checks friendship against the local friendships table.
type Store struct {
	DB *gorm.DB
}

// AreFriends implements Checker over the canonical pair index.
func (s *Store) AreFriends(ctx context.Context, a, b string) (bool, error) {
	return repo.AreFriends(ctx, s.DB, a, b)
}

// HTTP checks friendship against a remote friend-graph service.
type HTTP struct {
	client  *resty.Client
	baseURL string
}

// NewHTTP builds an HTTP checker with retries and a bounded timeout.
func NewHTTP(baseURL, authKey string, timeout time.Duration) *HTTP {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json")
	if authKey != "" {
		client.SetHeader("x-wf-auth-key", authKey)
	}
	return &HTTP{client: client, baseURL: baseURL}
}

type checkResponse struct {
	Friends bool `json:"friends"`
}

// AreFriends implements Checker by calling GET {base}/friends/check.
func (h *HTTP) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var out checkResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"a": a, "b": b}).
		SetResult(&out).
		Get(h.baseURL + "/friends/check")
	if err != nil {
		return false, fmt.Errorf("friend-graph request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("friend-graph status %d", resp.StatusCode())
	}
	return out.Friends, nil
}
