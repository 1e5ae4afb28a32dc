// Letter HTTP handlers.
//
// This file exposes REST endpoints for the deferred-letter lifecycle:
//   - POST   /letters           (schedule a letter for future delivery)
//   - GET    /letters/received  (delivered letters addressed to the caller)
//   - GET    /letters/sent      (letters the caller has written)
//   - GET    /letters/{id}      (read one letter, role rules apply)
//   - DELETE /letters/{id}      (delete a letter, role rules apply)
//
// Handlers are transport-thin: they bind and forward inputs, delegate every
// rule to LetterService, and translate application errors into the standard
// envelope.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bashy-Codes/wf-server/internal/utils"
)

// ScheduleLetterRequest is the JSON payload for scheduling a letter.
type ScheduleLetterRequest struct {
	// RecipientID is the friend the letter is addressed to.
	RecipientID string `json:"recipientId" binding:"required" example:"user456"`
	// Title of the letter, 1-100 characters after trimming.
	Title string `json:"title" binding:"required" example:"A year from now"`
	// Content of the letter, 100-2000 characters after trimming.
	Content string `json:"content" binding:"required"`
	// DeliverInDays is the delivery delay in whole days, 1-30.
	DeliverInDays int `json:"deliverInDays" binding:"required" example:"7"`
}

// ScheduleLetter godoc
// @ID          scheduleLetter
// @Summary     Schedule a letter
// @Description Creates a letter that stays hidden from the recipient until its delivery time, 1-30 days from now.
// @Tags        Letters
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                          true  "Authenticated user ID"  example(user123)
// @Param       body       body    handlers.ScheduleLetterRequest  true  "Letter payload"
//
// @Success     201  {object}  domain.Letter                 "Scheduled letter"
// @Failure     400  {object}  handlers.ErrorResponse        "Validation failure"
// @Failure     403  {object}  handlers.ErrorResponse        "Recipient is not a friend"
// @Failure     404  {object}  handlers.ErrorResponse        "Recipient not found"
// @Router      /letters [post]
func (h *Handlers) ScheduleLetter(c *gin.Context) {
	var req ScheduleLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipientId, title, content and deliverInDays are required")
		return
	}

	letter, err := h.letters.Schedule(c.Request.Context(), userID(c), req.RecipientID, req.Title, req.Content, req.DeliverInDays)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, letter)
}

// ReceivedLetters godoc
// @ID          receivedLetters
// @Summary     List received letters
// @Description Returns delivered letters addressed to the caller, newest first. Pending letters never appear.
// @Tags        Letters
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Authenticated user ID"  example(user123)
// @Param       cursor     query   string  false  "Opaque continuation cursor from a previous page"
// @Param       limit      query   int     false  "Page size"  minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  services.Page[services.LetterItem]
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed cursor"
// @Router      /letters/received [get]
func (h *Handlers) ReceivedLetters(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	page, err := h.letters.Received(c.Request.Context(), userID(c), c.Query("cursor"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// SentLetters godoc
// @ID          sentLetters
// @Summary     List sent letters
// @Description Returns letters the caller has written, newest first, pending and delivered alike.
// @Tags        Letters
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Authenticated user ID"  example(user123)
// @Param       cursor     query   string  false  "Opaque continuation cursor from a previous page"
// @Param       limit      query   int     false  "Page size"  minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  services.Page[services.LetterItem]
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed cursor"
// @Router      /letters/sent [get]
func (h *Handlers) SentLetters(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	page, err := h.letters.Sent(c.Request.Context(), userID(c), c.Query("cursor"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// GetLetter godoc
// @ID          getLetter
// @Summary     Read one letter
// @Description Returns a letter for its sender or recipient. Recipients cannot read a letter before delivery.
// @Tags        Letters
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Param       id         path    string  true  "Letter ID (UUID)"       format(uuid)
//
// @Success     200  {object}  services.LetterDetail
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is neither sender nor recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Letter not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Letter not yet delivered"
// @Router      /letters/{id} [get]
func (h *Handlers) GetLetter(c *gin.Context) {
	detail, err := h.letters.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, detail)
}

// DeleteLetter godoc
// @ID          deleteLetter
// @Summary     Delete a letter
// @Description Deletes a letter. Senders may delete at any time (cancelling pending delivery); recipients only after delivery.
// @Tags        Letters
//
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Param       id         path    string  true  "Letter ID (UUID)"       format(uuid)
//
// @Success     204  "Deleted"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is neither sender nor recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Letter not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Recipient cannot delete a pending letter"
// @Router      /letters/{id} [delete]
func (h *Handlers) DeleteLetter(c *gin.Context) {
	if err := h.letters.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
