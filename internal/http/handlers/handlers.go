package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Bashy-Codes/wf-server/internal/http/middleware"
	"github.com/Bashy-Codes/wf-server/internal/scheduler"
	"github.com/Bashy-Codes/wf-server/internal/services"
)

// Handlers bundles the application services behind the HTTP endpoints.
type Handlers struct {
	letters *services.LetterService
	convs   *services.ConversationService
	msgs    *services.MessageService
	sched   *scheduler.Scheduler
}

// New wires the services into a Handlers value ready for route registration.
func New(letters *services.LetterService, convs *services.ConversationService, msgs *services.MessageService, sched *scheduler.Scheduler) *Handlers {
	return &Handlers{letters: letters, convs: convs, msgs: msgs, sched: sched}
}

// userID returns the authenticated caller id set by the auth middleware.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}
