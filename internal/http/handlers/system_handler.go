// Operational endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SchedulerStatus godoc
// @ID          schedulerStatus
// @Summary     Delivery scheduler status
// @Description Returns the delivery worker's run counters and next poll time.
// @Tags        System
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
//
// @Success     200  {object}  scheduler.Status
// @Router      /scheduler/status [get]
func (h *Handlers) SchedulerStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.sched.GetStatus())
}
