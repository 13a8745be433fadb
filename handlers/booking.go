package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roomwise/services/booking"
	"roomwise/services/dialogue"
	"roomwise/utils"
)

// currentUserID reads the authenticated user set by the auth middleware.
func currentUserID(c *gin.Context) string {
	id, _ := c.Get("userID")
	userID, _ := id.(string)
	return userID
}

type bookingInput struct {
	RoomID    string    `json:"room_id" binding:"required"`
	Start     time.Time `json:"start_time" binding:"required"`
	End       time.Time `json:"end_time" binding:"required"`
	Title     string    `json:"title"`
	Attendees int       `json:"attendees"`
	EventID   string    `json:"event_id"`
}

// CreateBookingHandler reserves a room for the authenticated user. A
// successful creation is also recorded in the dialogue context so chat
// follow-ups can refer to "my last booking".
func CreateBookingHandler(svc booking.Service, chat dialogue.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input bookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		userID := currentUserID(c)
		created, err := svc.Create(c.Request.Context(), userID, booking.CreateRequest{
			RoomID:    input.RoomID,
			Start:     input.Start,
			End:       input.End,
			Title:     input.Title,
			Attendees: input.Attendees,
			EventID:   input.EventID,
		})
		if err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		if err := chat.SetLastBooking(c.Request.Context(), userID, created.ID); err != nil {
			utils.GetLogger().Warn("failed to record last booking in dialogue context",
				zap.String("bookingID", created.ID), zap.Error(err))
		}
		c.JSON(http.StatusCreated, created)
	}
}

type bookingUpdateInput struct {
	RoomID    *string    `json:"room_id"`
	Start     *time.Time `json:"start_time"`
	End       *time.Time `json:"end_time"`
	Title     *string    `json:"title"`
	Attendees *int       `json:"attendees"`
}

// UpdateBookingHandler reschedules or moves an existing booking.
func UpdateBookingHandler(svc booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input bookingUpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		updated, err := svc.Update(c.Request.Context(), currentUserID(c), c.Param("id"), booking.UpdateRequest{
			RoomID:    input.RoomID,
			Start:     input.Start,
			End:       input.End,
			Title:     input.Title,
			Attendees: input.Attendees,
		})
		if err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// CancelBookingHandler cancels one booking owned by the caller.
func CancelBookingHandler(svc booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Cancel(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled", "booking_id": c.Param("id")})
	}
}

// CancelAllHandler cancels every upcoming booking of the caller.
func CancelAllHandler(svc booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := svc.CancelAll(c.Request.Context(), currentUserID(c))
		if err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled", "count": count})
	}
}

// MyBookingsHandler lists the caller's upcoming bookings.
func MyBookingsHandler(svc booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := svc.UserBookings(c.Request.Context(), currentUserID(c))
		if err != nil {
			utils.JSONServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": bookings})
	}
}
