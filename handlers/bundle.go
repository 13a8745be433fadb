package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct so routes can
// be registered from a single place.
type HandlerBundle struct {
	// Room endpoints
	ListRoomsHandler gin.HandlerFunc

	// Availability endpoints
	DailyAvailabilityHandler gin.HandlerFunc

	// Booking endpoints
	CreateBookingHandler gin.HandlerFunc
	UpdateBookingHandler gin.HandlerFunc
	CancelBookingHandler gin.HandlerFunc
	CancelAllHandler     gin.HandlerFunc
	MyBookingsHandler    gin.HandlerFunc

	// Calendar endpoints
	ListEventsHandler gin.HandlerFunc

	// Chat endpoints
	ChatMessageHandler    gin.HandlerFunc
	ResetContextHandler   gin.HandlerFunc
	SetLastBookingHandler gin.HandlerFunc
}
