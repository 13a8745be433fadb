package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roomwise/services/calendar"
	"roomwise/utils"
)

// ListEventsHandler lists the caller's upcoming calendar events.
func ListEventsHandler(svc calendar.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.UpcomingEvents(c.Request.Context(), currentUserID(c))
		if err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
