package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomwise/config"
	"roomwise/database"
	bookingRepoPkg "roomwise/database/repository/booking"
	eventRepoPkg "roomwise/database/repository/event"
	roomRepoPkg "roomwise/database/repository/room"
	"roomwise/handlers"
	"roomwise/routes"
	"roomwise/services/availability"
	"roomwise/services/booking"
	"roomwise/services/calendar"
	"roomwise/services/dialogue"
	"roomwise/services/nlp"
	"roomwise/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Repositories.
	roomRepo := roomRepoPkg.NewMongoRoomRepo()
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	eventRepo := eventRepoPkg.NewMongoEventRepo()

	// Services.
	engine := &availability.DefaultEngine{
		Rooms:    roomRepo,
		Bookings: bookingRepo,
		Opts: availability.Options{
			WorkingHoursStart:         config.AppConfig.WorkingHoursStart,
			WorkingHoursEnd:           config.AppConfig.WorkingHoursEnd,
			GoodFitCapacityMultiplier: config.AppConfig.GoodFitCapacityMultiplier,
			GoodFitMinCapacity:        config.AppConfig.GoodFitMinCapacity,
			CoherenceMultiplier:       config.AppConfig.CoherenceMultiplier,
			CoherenceMinCapacity:      config.AppConfig.CoherenceMinCapacity,
		},
	}

	bookingService := &booking.DefaultService{
		Repo:   bookingRepo,
		Rooms:  roomRepo,
		Events: eventRepo,
		Rules: booking.Rules{
			WorkingHoursStart:       config.AppConfig.WorkingHoursStart,
			WorkingHoursEnd:         config.AppConfig.WorkingHoursEnd,
			SingleUserCapacityLimit: config.AppConfig.SingleUserCapacityLimit,
		},
	}

	calendarService := &calendar.DefaultService{Events: eventRepo}

	ctxStore := dialogue.NewRedisContextStore(
		utils.GetContextCacheClient(),
		time.Duration(config.AppConfig.ContextTTLMinutes)*time.Minute,
	)
	nlpClient := nlp.NewGeminiClient(config.AppConfig.GeminiAPIKey)
	dialogueRouter := &dialogue.Router{
		Engine:   engine,
		Bookings: bookingService,
		Calendar: calendarService,
		Rooms:    roomRepo,
	}
	dialogueService := dialogue.NewDefaultService(ctxStore, nlpClient, dialogueRouter)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ListRoomsHandler:         handlers.ListRoomsHandler(roomRepo),
		DailyAvailabilityHandler: handlers.DailyAvailabilityHandler(engine),

		CreateBookingHandler: handlers.CreateBookingHandler(bookingService, dialogueService),
		UpdateBookingHandler: handlers.UpdateBookingHandler(bookingService),
		CancelBookingHandler: handlers.CancelBookingHandler(bookingService),
		CancelAllHandler:     handlers.CancelAllHandler(bookingService),
		MyBookingsHandler:    handlers.MyBookingsHandler(bookingService),

		ListEventsHandler: handlers.ListEventsHandler(calendarService),

		ChatMessageHandler:    handlers.ChatMessageHandler(dialogueService),
		ResetContextHandler:   handlers.ResetContextHandler(dialogueService),
		SetLastBookingHandler: handlers.SetLastBookingHandler(dialogueService),
	}

	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(database.MongoClient, utils.GetAuthCacheClient(), utils.GetContextCacheClient())

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
