// Package services implements the application layer of the communication
// core: letter scheduling and queries, conversations, and messages. Services
// run the authorization guard before every mutation, execute each mutation
// in a single transaction, and build the enriched projections the client
// consumes.
package services

import "github.com/Bashy-Codes/wf-server/internal/cursor"

// Pagination bounds shared by all list endpoints.
const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// Page is the client pagination envelope. ContinueCursor is opaque; clients
// pass it back verbatim to fetch the next page.
type Page[T any] struct {
	Page           []T    `json:"page"`
	IsDone         bool   `json:"isDone"`
	ContinueCursor string `json:"continueCursor,omitempty"`
}

// clampPageSize normalizes a requested page size to [1, maxPageSize].
func clampPageSize(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// pageOf trims an over-fetched slice (limit+1 rows) to the page size and
// derives the continuation state from the keyFn of the last kept row.
func pageOf[T any](rows []T, limit int, keyFn func(T) cursor.Key) ([]T, bool, string) {
	if len(rows) <= limit {
		return rows, true, ""
	}
	rows = rows[:limit]
	return rows, false, cursor.Encode(keyFn(rows[len(rows)-1]))
}
