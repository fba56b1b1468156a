package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/auction-api/internal/auth"
	"github.com/ksred/auction-api/internal/bidding"
	"github.com/ksred/auction-api/internal/catalog"
	"github.com/ksred/auction-api/internal/config"
	"github.com/ksred/auction-api/internal/database"
	"github.com/ksred/auction-api/internal/events"
	"github.com/ksred/auction-api/internal/live"
	"github.com/ksred/auction-api/internal/registration"
	"github.com/ksred/auction-api/internal/sweeper"
	"github.com/ksred/auction-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the auction API server with graceful shutdown
// support. It sets up the database, services, the live feed and the status
// sweeper, then serves the API routes.
func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestCustomerAPIKey, auth.TestCustomerAPISecret, "CUST-TEST", auth.RoleCustomer)
	authService.RegisterAPICredentials(auth.TestAdminAPIKey, auth.TestAdminAPISecret, "ADMIN-TEST", auth.RoleAdmin)

	// Event sinks: the live websocket hub always, NATS when configured
	hub := live.NewHub()
	publishers := events.Fanout{hub}
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Close()

		natsPublisher, err := events.NewNATSPublisher(nc)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Failed to initialize NATS publisher")
		}
		publishers = append(publishers, natsPublisher)
	}

	registrationService := registration.NewService(db)
	registrationHandlers := registration.NewGinHandlers(registrationService)

	biddingService := bidding.NewService(db, registrationService, publishers)
	biddingHandlers := bidding.NewGinHandlers(biddingService)

	catalogService := catalog.NewService(db)
	catalogHandlers := catalog.NewGinHandlers(catalogService)

	sweeperService := sweeper.NewService(db)
	sweeperHandlers := sweeper.NewGinHandlers(sweeperService)

	// Create and start the status sweeper
	sweepProcessor := sweeper.NewProcessor(sweeperService, cfg.SweepInterval)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go sweepProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWTSecret, authHandlers, biddingHandlers, catalogHandlers, registrationHandlers, sweeperHandlers, hub)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Lot routes: Protected by JWT authentication
// - Admin routes: Protected by JWT authentication plus an admin role claim
// - Internal routes: Protected by internal network authentication
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	biddingHandlers *bidding.GinHandlers,
	catalogHandlers *catalog.GinHandlers,
	registrationHandlers *registration.GinHandlers,
	sweeperHandlers *sweeper.GinHandlers,
	hub *live.Hub,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Lot and bidding routes
		lots := v1.Group("/lots")
		lots.Use(middleware.JWTAuth(jwtSecret))
		{
			lots.GET("", catalogHandlers.ListLotsHandler())
			lots.GET("/:lot_id", catalogHandlers.GetLotHandler())
			lots.GET("/:lot_id/price", biddingHandlers.GetPriceHandler())
			lots.GET("/:lot_id/history", biddingHandlers.GetHistoryHandler())
			lots.POST("/:lot_id/bids", biddingHandlers.PlaceBidHandler())
		}

		stores := v1.Group("/stores")
		stores.Use(middleware.JWTAuth(jwtSecret))
		{
			stores.GET("", catalogHandlers.ListStoresHandler())
			stores.POST("/:store_id/registrations", registrationHandlers.SubmitRequestHandler())
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(jwtSecret), middleware.AdminAuth())
		{
			admin.POST("/stores", catalogHandlers.CreateStoreHandler())
			admin.POST("/lots", catalogHandlers.CreateLotHandler())
			admin.PUT("/lots/:lot_id", catalogHandlers.UpdateLotHandler())
			admin.DELETE("/lots/:lot_id", catalogHandlers.DeleteLotHandler())
			admin.POST("/lots/:lot_id/reset", biddingHandlers.ResetLotHandler())
			admin.POST("/lots/:lot_id/bids", biddingHandlers.AdminPlaceBidHandler())
			admin.POST("/registrations/:request_id/review", registrationHandlers.ReviewRequestHandler())
			admin.GET("/deposits/reconciliation", registrationHandlers.ReconciliationHandler())
		}

		// Internal routes (should be protected by internal network)
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(jwtSecret))
		{
			internal.POST("/sweep", sweeperHandlers.SweepHandler())
			internal.POST("/deposits/callback", registrationHandlers.DepositCallbackHandler())
		}
	}

	// Live bid feed and metrics
	router.GET("/ws/lots/:lot_id", hub.ServeHandler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
