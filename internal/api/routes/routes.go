package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/api/handlers"
	"github.com/arenahq/arena/backend/internal/api/middleware"
	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/metrics"
	"github.com/arenahq/arena/backend/internal/models"
	"github.com/arenahq/arena/backend/internal/services"
)

// Services bundles the wired service layer so the scheduler and tests can
// share the instances the routes use.
type Services struct {
	Events        *services.EventService
	Flags         *services.FlagService
	IPCheck       *services.IPService
	Anomalies     *services.AnomalyService
	Verifications *services.VerificationService
	Auth          *services.AuthService
	Wallets       *services.WalletService
	Notifications *services.NotificationService
}

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) (*Services, error) {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.Match{},
		&models.SecurityEvent{},
		&models.ScreenshotVerification{},
		&models.FlaggedAccount{},
		&models.FlagReview{},
		&models.RelatedAccount{},
		&models.Notification{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	notificationService := services.NewNotificationService(db, cfg.NotifyURLs)
	eventService := services.NewEventService(db)
	flagService := services.NewFlagService(db, cfg.Security, eventService, notificationService)
	ipService := services.NewIPService(db, cfg.Security, eventService, flagService)
	anomalyService := services.NewAnomalyService(db, cfg.Security, eventService, flagService)
	verificationService := services.NewVerificationService(db, cfg.Security, eventService)
	authService := services.NewAuthService(db, cfg, ipService)
	walletService := services.NewWalletService(db)

	router.GET("/api/v1/health", handlers.HealthHandler)

	api := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(authService)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("/")
	authed.Use(middleware.Auth(authService))

	authed.GET("/auth/me", authHandler.Me)

	tournamentHandler := handlers.NewTournamentHandler(db)
	authed.GET("/tournaments", tournamentHandler.List)
	authed.GET("/tournaments/:id", tournamentHandler.Get)

	matchHandler := handlers.NewMatchHandler(db, anomalyService, verificationService)
	authed.GET("/matches/:id", matchHandler.Get)
	authed.POST("/matches/:id/results", matchHandler.SubmitResult)

	walletHandler := handlers.NewWalletHandler(walletService)
	authed.GET("/wallet", walletHandler.Balance)

	notificationHandler := handlers.NewNotificationHandler(notificationService)
	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
	authed.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

	admin := api.Group("/")
	admin.Use(middleware.Auth(authService), middleware.AdminOnly())

	admin.POST("/wallet/credit", walletHandler.Credit)
	admin.POST("/wallet/debit", walletHandler.Debit)

	securityHandler := handlers.NewSecurityHandler(eventService, flagService, verificationService)
	securityHandler.RegisterRoutes(authed, admin)

	return &Services{
		Events:        eventService,
		Flags:         flagService,
		IPCheck:       ipService,
		Anomalies:     anomalyService,
		Verifications: verificationService,
		Auth:          authService,
		Wallets:       walletService,
		Notifications: notificationService,
	}, nil
}
