package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roomwise/models"
	"roomwise/services/dialogue"
	"roomwise/utils"
)

// ChatMessageHandler runs one dialogue turn and streams the reply as
// newline-delimited JSON records: deltas while text is generated, then at
// most one action or error record.
func ChatMessageHandler(svc dialogue.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		message := strings.TrimSpace(input.Message)
		if message == "" {
			utils.JSONError(c, http.StatusBadRequest, "message must not be empty", "")
			return
		}

		c.Writer.Header().Set("Content-Type", "application/x-ndjson")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.WriteHeader(http.StatusOK)

		flusher, _ := c.Writer.(http.Flusher)
		encoder := json.NewEncoder(c.Writer)

		emit := func(record models.StreamRecord) error {
			if err := encoder.Encode(record); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		}

		if err := svc.ProcessMessage(c.Request.Context(), currentUserID(c), message, emit); err != nil {
			// Headers are already out; the dropped connection is all
			// we can do for the client at this point.
			utils.GetLogger().Error("chat turn aborted mid-stream", zap.Error(err))
		}
	}
}

// SetLastBookingHandler records a confirmed booking in the caller's
// dialogue context so chat follow-ups can refer to it.
func SetLastBookingHandler(svc dialogue.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BookingID string `json:"booking_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		if err := svc.SetLastBooking(c.Request.Context(), currentUserID(c), input.BookingID); err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "recorded", "booking_id": input.BookingID})
	}
}

// ResetContextHandler drops the caller's dialogue state so the next
// message starts a fresh conversation.
func ResetContextHandler(svc dialogue.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.ClearContext(c.Request.Context(), currentUserID(c)); err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "context cleared"})
	}
}
