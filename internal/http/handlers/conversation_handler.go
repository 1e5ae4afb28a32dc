// Conversation HTTP handlers.
//
// This file exposes REST endpoints for the conversation lifecycle:
//   - POST   /conversations            (create or return the pair's conversation)
//   - GET    /conversations            (caller's inbox, recency ordered)
//   - POST   /conversations/{id}/read  (clear the caller's unread state)
//   - DELETE /conversations/{id}       (delete the conversation and its messages)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bashy-Codes/wf-server/internal/utils"
)

// CreateConversationRequest is the JSON payload for opening a conversation.
type CreateConversationRequest struct {
	// OtherUserID is the friend to converse with.
	OtherUserID string `json:"otherUserId" binding:"required" example:"user456"`
}

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a conversation
// @Description Creates the conversation with a friend, or returns the existing one. The pair identity is direction-independent, so repeated calls from either side converge on the same record.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                              true  "Authenticated user ID"  example(user123)
// @Param       body       body    handlers.CreateConversationRequest  true  "Conversation payload"
//
// @Success     200  {object}  domain.Conversation
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid partner"
// @Failure     403  {object}  handlers.ErrorResponse  "Partner is not a friend"
// @Failure     404  {object}  handlers.ErrorResponse  "Partner not found"
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "otherUserId is required")
		return
	}

	conv, err := h.convs.Create(c.Request.Context(), userID(c), req.OtherUserID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations
// @Description Returns the caller's conversations ordered by last-message recency, each with the peer's profile and a preview of the newest message. An optional search narrows the page to peers whose name matches.
// @Tags        Conversations
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Authenticated user ID"  example(user123)
// @Param       cursor     query   string  false  "Opaque continuation cursor from a previous page"
// @Param       limit      query   int     false  "Page size"  minimum(1) maximum(50) default(10)
// @Param       search     query   string  false  "Case-insensitive peer name filter"
//
// @Success     200  {object}  services.Page[services.ConversationItem]
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed cursor"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	page, err := h.convs.List(c.Request.Context(), userID(c), c.Query("cursor"), limit, c.Query("search"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// MarkConversationRead godoc
// @ID          markConversationRead
// @Summary     Mark a conversation read
// @Description Clears the caller's unread flag and stamps the peer's unread messages as read.
// @Tags        Conversations
//
// @Param       X-User-ID  header  string  true  "Authenticated user ID"   example(user123)
// @Param       id         path    string  true  "Conversation group ID"   example(user123_user456)
//
// @Success     204  "Marked read"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id}/read [post]
func (h *Handlers) MarkConversationRead(c *gin.Context) {
	if err := h.convs.MarkRead(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Permanently deletes the conversation and every message in it, for both participants.
// @Tags        Conversations
//
// @Param       X-User-ID  header  string  true  "Authenticated user ID"   example(user123)
// @Param       id         path    string  true  "Conversation group ID"   example(user123_user456)
//
// @Success     204  "Deleted"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	if err := h.convs.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
