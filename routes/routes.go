package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"roomwise/handlers"
	"roomwise/middleware"
	"roomwise/utils"
)

// RegisterRoomRoutes registers room catalog and availability endpoints.
func RegisterRoomRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/rooms")
	{
		api.Use(middleware.DevAuthMiddleware())
		api.GET("", hb.ListRoomsHandler)
	}
	avail := r.Group("/api/availability")
	{
		avail.Use(middleware.DevAuthMiddleware())
		avail.GET("", hb.DailyAvailabilityHandler)
	}
}

// RegisterBookingRoutes registers the booking ledger endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.DevAuthMiddleware())
		api.POST("", hb.CreateBookingHandler)
		api.GET("/mine", hb.MyBookingsHandler)
		api.PUT("/:id", hb.UpdateBookingHandler)
		api.DELETE("/:id", hb.CancelBookingHandler)
		api.DELETE("", hb.CancelAllHandler)
	}
}

// RegisterCalendarRoutes registers the calendar endpoints.
func RegisterCalendarRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/calendar")
	{
		api.Use(middleware.DevAuthMiddleware())
		api.GET("/events", hb.ListEventsHandler)
	}
}

// RegisterChatRoutes registers the dialogue endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.Use(middleware.DevAuthMiddleware())
		api.POST("/message", hb.ChatMessageHandler)
		api.DELETE("/context", hb.ResetContextHandler)
		api.POST("/context/last_booking", hb.SetLastBookingHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		health := utils.GetHealthStatus()
		status := "ok"
		if !health.CheckedAt.IsZero() && !health.Healthy() {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "health": health})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())
	r.Use(utils.ErrorHandler())

	RegisterHealthRoute(r)
	RegisterRoomRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterCalendarRoutes(r, hb)
	RegisterChatRoutes(r, hb)
}
