package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"roomwise/services/availability"
	"roomwise/utils"
)

// DailyAvailabilityHandler returns the free slots of every suitable room
// for one day. Query params: date (YYYY-MM-DD, default today) and
// min_capacity (default 1).
func DailyAvailabilityHandler(engine availability.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := time.Now()
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
			if err != nil {
				utils.JSONError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", "")
				return
			}
			date = parsed
		}

		minCapacity := 1
		if raw := c.Query("min_capacity"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				utils.JSONError(c, http.StatusBadRequest, "invalid min_capacity", "")
				return
			}
			minCapacity = parsed
		}

		avails, err := engine.DailyAvailability(c.Request.Context(), date, minCapacity)
		if err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"date":         date.Format("2006-01-02"),
			"availability": avails,
		})
	}
}
