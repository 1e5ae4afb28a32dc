// Message HTTP handlers.
//
// This file exposes REST endpoints for chat messages:
//   - POST   /conversations/{id}/messages  (send a text or image message)
//   - GET    /conversations/{id}/messages  (paginated history, newest first)
//   - DELETE /messages/{id}                (sender deletes a message)
//
// Idempotency: a client may supply an Idempotency-Key header on sends. A
// retry carrying the same key returns the originally created message and
// sets `Idempotency-Replayed: true` instead of appending a duplicate.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bashy-Codes/wf-server/internal/domain"
	"github.com/Bashy-Codes/wf-server/internal/services"
	"github.com/Bashy-Codes/wf-server/internal/utils"
)

// headerIdempotencyKey names the retry-deduplication header on sends.
const headerIdempotencyKey = "Idempotency-Key"

// SendMessageRequest is the JSON payload for sending a message.
type SendMessageRequest struct {
	// Type selects the message kind: "text" or "image".
	Type string `json:"type" binding:"required" example:"text"`
	// Content is the text body; required for text messages.
	Content string `json:"content" example:"See you at the festival!"`
	// ImageKey is the storage key of an uploaded image; required for image messages.
	ImageKey string `json:"imageKey" example:"uploads/3f2a.jpg"`
	// ReplyParentID optionally references a message in the same conversation.
	ReplyParentID string `json:"replyParentId" example:"a1b2c3"`
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message
// @Description Appends a message to the conversation. Supports idempotency via the Idempotency-Key header (same key in the same conversation returns the same message).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string                       true   "Authenticated user ID"  example(user123)
// @Param       Idempotency-Key  header  string                       false  "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string                       true   "Conversation group ID"  example(user123_user456)
// @Param       body             body    handlers.SendMessageRequest  true   "Message payload"
//
// @Success     201  {object}  domain.Message
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type is required")
		return
	}

	in := services.SendInput{
		Type:           domain.MessageType(req.Type),
		Content:        req.Content,
		ImageKey:       req.ImageKey,
		ReplyParentID:  req.ReplyParentID,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(headerIdempotencyKey)),
	}

	reqStart := time.Now().UTC()
	msg, err := h.msgs.Send(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		failErr(c, err)
		return
	}

	// A replay hands back a row created before this request.
	if in.IdempotencyKey != "" && msg.CreatedAt.Before(reqStart) {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, msg)
		return
	}
	ok(c, http.StatusCreated, msg)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a conversation
// @Description Returns a page of messages, newest first. Clients render pages bottom-anchored and pass the cursor back to load older history; concurrent sends never duplicate or skip rows across pages. Fetching the first page marks the conversation read.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Authenticated user ID"  example(user123)
// @Param       id         path    string  true   "Conversation group ID"  example(user123_user456)
// @Param       cursor     query   string  false  "Opaque continuation cursor from a previous page"
// @Param       limit      query   int     false  "Page size"  minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  services.Page[services.MessageItem]
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed cursor"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	page, err := h.msgs.Page(c.Request.Context(), userID(c), c.Param("id"), c.Query("cursor"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a message
// @Description Permanently deletes a message. Only the sender may delete; the conversation's last-message preview is recomputed when needed.
// @Tags        Messages
//
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Param       id         path    string  true  "Message ID (UUID)"      format(uuid)
//
// @Success     204  "Deleted"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not the sender"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found"
// @Router      /messages/{id} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	if err := h.msgs.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
