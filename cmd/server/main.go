package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/generalexpress/booking-backend/internal/config"
	"github.com/generalexpress/booking-backend/internal/database"
	"github.com/generalexpress/booking-backend/internal/handlers"
	"github.com/generalexpress/booking-backend/internal/middleware"
	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/generalexpress/booking-backend/internal/services"
	"github.com/generalexpress/booking-backend/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting General Express Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories below need *sqlx.DB for transactions
	sqlxDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	tripRepo := database.NewTripRepository(sqlxDB.DB)
	bookingRepo := database.NewBookingRepository(sqlxDB.DB)
	paymentRepo := database.NewPaymentRepository(sqlxDB.DB)
	auditRepo := database.NewPaymentAuditRepository(sqlxDB.DB, logger)
	userRepo := database.NewUserRepository(db)

	flutterwaveService := services.NewFlutterwaveService(&cfg.Flutterwave, logger)
	if !flutterwaveService.IsConfigured() {
		logger.Warn("Flutterwave gateway not configured, payments will fail")
	}

	bookingService := services.NewBookingService(tripRepo, bookingRepo, logger)
	ticketService := services.NewTicketService(bookingRepo, paymentRepo, logger)
	reconciliationService := services.NewReconciliationService(
		flutterwaveService,
		paymentRepo,
		bookingRepo,
		auditRepo,
		logger,
	)
	authService := services.NewAuthService(userRepo, jwtService, cfg.Security.BcryptCost, logger)

	logger.Info("Services initialized")

	// Initialize handlers
	tripHandler := handlers.NewTripHandler(bookingService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, ticketService, logger)
	paymentHandler := handlers.NewPaymentHandler(reconciliationService, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)

			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.GET("/profile", authHandler.GetProfile)
			}
		}

		// Trip inventory (public)
		trips := v1.Group("/trips")
		{
			trips.GET("", tripHandler.ListTrips)
			trips.GET("/:id", tripHandler.GetTrip)
		}

		// Booking routes
		bookings := v1.Group("/bookings")
		{
			// Guests can book and look up by reference; a valid token
			// binds the booking to the account
			bookings.POST("", middleware.OptionalAuthMiddleware(jwtService), bookingHandler.CreateBooking)

			bookingsProtected := bookings.Group("")
			bookingsProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				bookingsProtected.GET("/my-bookings", bookingHandler.ListMyBookings)
				bookingsProtected.PUT("/:reference/cancel", bookingHandler.CancelBooking)
			}

			bookings.GET("/:reference", middleware.OptionalAuthMiddleware(jwtService), bookingHandler.GetBooking)
			bookings.GET("/:reference/ticket", middleware.OptionalAuthMiddleware(jwtService), bookingHandler.DownloadTicket)
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			payments.POST("/initialize", middleware.OptionalAuthMiddleware(jwtService), paymentHandler.InitializePayment)
			payments.POST("/verify", middleware.OptionalAuthMiddleware(jwtService), paymentHandler.VerifyPayment)
			payments.POST("/webhook", paymentHandler.Webhook)
			payments.GET("/status/:reference", paymentHandler.GetPaymentStatus)

			// Reconciliation review, staff only
			review := payments.Group("")
			review.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(string(models.RoleStaff), string(models.RoleAdmin)))
			{
				review.GET("/audits/:reference", paymentHandler.GetAuditTrail)
				review.GET("/mismatches", paymentHandler.ListAmountMismatches)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
