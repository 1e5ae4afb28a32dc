package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Bashy-Codes/wf-server/internal/domain"
	"github.com/Bashy-Codes/wf-server/internal/friends"
	"github.com/Bashy-Codes/wf-server/internal/guard"
	"github.com/Bashy-Codes/wf-server/internal/notify"
	"github.com/Bashy-Codes/wf-server/internal/profile"
	"github.com/Bashy-Codes/wf-server/internal/realtime"
	"github.com/Bashy-Codes/wf-server/internal/repo"
)

// testEnv is the wired service stack over a throwaway database: local
// friend graph, no-op notifier and realtime channel, and a controllable
// clock shared by every service.
type testEnv struct {
	db      *gorm.DB
	letters *LetterService
	convs   *ConversationService
	msgs    *MessageService
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Friendship{},
		&domain.Letter{}, &domain.DeliveryJob{},
		&domain.Conversation{}, &domain.Message{},
		&domain.Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	env := &testEnv{
		db:  db,
		now: time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	g := guard.New(&friends.Store{DB: db})
	res := profile.Resolver{}

	env.letters = NewLetterService(db, g, res, notify.Nop{})
	env.letters.Now = func() time.Time { return env.now }
	env.convs = NewConversationService(db, g, res, realtime.Nop{})
	env.convs.Now = func() time.Time { return env.now }
	env.msgs = NewMessageService(db, res, notify.Nop{}, realtime.Nop{}, time.Hour)
	env.msgs.Now = func() time.Time { return env.now }
	return env
}

// seedUser inserts a profile row.
func (e *testEnv) seedUser(t *testing.T, id, name string) {
	t.Helper()
	u := &domain.User{ID: id, Name: name, Country: "NL"}
	if err := repo.CreateUser(context.Background(), e.db, u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

// befriend records the symmetric friendship.
func (e *testEnv) befriend(t *testing.T, a, b string) {
	t.Helper()
	if err := repo.AddFriendship(context.Background(), e.db, a, b); err != nil {
		t.Fatalf("befriend %s/%s: %v", a, b, err)
	}
}

// seedPair seeds two befriended users.
func (e *testEnv) seedPair(t *testing.T, a, b string) {
	t.Helper()
	e.seedUser(t, a, a)
	e.seedUser(t, b, b)
	e.befriend(t, a, b)
}
