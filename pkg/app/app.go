// Package app assembles and runs the PetCove credits API server.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/petcove/petcove-api/internal/api"
	"github.com/petcove/petcove-api/internal/config"
	"github.com/petcove/petcove-api/internal/services/auth"
	"github.com/petcove/petcove-api/internal/services/database"
	"github.com/petcove/petcove-api/internal/services/donations"
	"github.com/petcove/petcove-api/internal/services/gdpr"
	"github.com/petcove/petcove-api/internal/services/gifts"
	"github.com/petcove/petcove-api/internal/services/middleware"
	"github.com/petcove/petcove-api/internal/services/payments"
	"github.com/petcove/petcove-api/internal/services/wallet"
	"github.com/petcove/petcove-api/pkg/builder"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// App represents a PetCove API server instance.
type App struct {
	config  *config.Config
	app     *fiber.App
	redis   *redis.Client
	db      *database.DB
	builder *builder.Builder

	giftWorker       *gifts.Worker
	giftSweeper      *gifts.PendingSweeper
	gdprWorker       *gdpr.Worker
	cleanupScheduler *gdpr.CleanupScheduler
}

type appServices struct {
	wallets    *wallet.Service
	purchases  *wallet.PurchaseService
	donations  *donations.Service
	stripe     *payments.StripeService
	gifts      *gifts.Service
	giftWorker *gifts.Worker
	gdpr       *gdpr.Service
	gdprWorker *gdpr.Worker
}

// New creates a new App instance with the given configuration.
// The cfg parameter is required and must not be nil.
func New(cfg *config.Config) *App {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() or the builder to create config")
	}

	return &App{
		config: cfg,
	}
}

// NewWithBuilder creates a new App instance from a configuration builder.
// This allows full control over middlewares and rate limiting.
func NewWithBuilder(b *builder.Builder) *App {
	return &App{
		config:  b.Build(),
		builder: b,
	}
}

// Run starts the API server and blocks until shutdown.
func (a *App) Run() error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(a.config)

	port := a.config.Server.Port
	if port == "" {
		port = "8080"
	}
	listenAddr := ":" + port

	a.app = createFiberApp(a.config)

	// === Infrastructure Setup ===
	redisClient, err := createRedisClient(a.config)
	if err != nil {
		return fmt.Errorf("failed to create Redis client: %w", err)
	}
	a.redis = redisClient

	db, err := database.New(*a.config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	a.db = db
	fiberlog.Infof("Database (%s) initialized successfully", db.DriverName())

	if a.config.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		fiberlog.Info("Database migrations completed successfully")
	}

	if a.redis != nil {
		defer func() {
			if err := a.redis.Close(); err != nil {
				fiberlog.Errorf("Failed to close Redis client: %v", err)
			}
		}()
	}
	defer func() {
		if err := a.db.Close(); err != nil {
			fiberlog.Errorf("Failed to close database connection: %v", err)
		}
	}()

	// === Services Initialization ===
	services := initializeServices(a.db, a.redis, a.config)
	a.giftWorker = services.giftWorker
	a.gdprWorker = services.gdprWorker

	cleanupInterval := time.Duration(a.config.GDPR.CleanupIntervalMinutes) * time.Minute
	a.cleanupScheduler = gdpr.NewCleanupScheduler(services.gdpr, cleanupInterval)

	// Requeues gifts stranded in pending by dropped tasks or a restart.
	a.giftSweeper = gifts.NewPendingSweeper(services.gifts, services.giftWorker, 1*time.Minute, 1*time.Minute)

	// === Middleware Setup ===
	setupMiddleware(a.app, a.config, a.builder)

	// === Routes Setup ===
	if err := setupRoutes(a.app, a.config, a.redis, a.db, services); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	a.app.Get("/", welcomeHandler())

	fmt.Printf("PetCove API starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", a.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.cleanupScheduler.Start(ctx)
	go a.giftSweeper.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := a.app.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		fiberlog.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	case err := <-serverErrChan:
		a.stopBackground()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		fiberlog.Info("Context cancelled, starting shutdown...")
	}

	fiberlog.Info("Server shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	shutdownErrChan := make(chan error, 1)
	go func() {
		shutdownErrChan <- a.app.ShutdownWithTimeout(30 * time.Second)
	}()

	select {
	case err := <-shutdownErrChan:
		if err != nil {
			a.stopBackground()
			return fmt.Errorf("shutdown error: %w", err)
		}
	case <-shutdownCtx.Done():
		a.stopBackground()
		return fmt.Errorf("shutdown timeout exceeded")
	}

	// Drain background work after the listener stops accepting requests.
	a.stopBackground()
	fiberlog.Info("Server shutdown completed successfully")

	return nil
}

func (a *App) stopBackground() {
	if a.cleanupScheduler != nil {
		a.cleanupScheduler.Stop()
	}
	if a.giftSweeper != nil {
		a.giftSweeper.Stop()
	}
	if a.giftWorker != nil {
		a.giftWorker.Stop()
	}
	if a.gdprWorker != nil {
		a.gdprWorker.Stop()
	}
}

func initializeServices(db *database.DB, redisClient *redis.Client, cfg *config.Config) *appServices {
	walletSvc := wallet.NewService(db.DB, cfg.Credits.CentsPerCredit)
	purchaseSvc := wallet.NewPurchaseService(db.DB, walletSvc)
	donationSvc := donations.NewService(db.DB)

	dedup := payments.NewEventDeduper(redisClient)
	stripeSvc := payments.NewStripeService(cfg.Stripe, purchaseSvc, donationSvc, dedup)

	giftSvc := gifts.NewService(db.DB, walletSvc)
	giftWorker := gifts.NewWorker(giftSvc, cfg.Workers.PoolSize, cfg.Workers.BufferSize)

	exportTTL := time.Duration(cfg.GDPR.ExportTTLHours) * time.Hour
	gdprSvc := gdpr.NewService(db.DB, exportTTL)
	gdprWorker := gdpr.NewWorker(gdprSvc, cfg.Workers.PoolSize, cfg.Workers.BufferSize)

	return &appServices{
		wallets:    walletSvc,
		purchases:  purchaseSvc,
		donations:  donationSvc,
		stripe:     stripeSvc,
		gifts:      giftSvc,
		giftWorker: giftWorker,
		gdpr:       gdprSvc,
		gdprWorker: gdprWorker,
	}
}

func setupRoutes(app *fiber.App, cfg *config.Config, redisClient *redis.Client, db *database.DB, services *appServices) error {
	healthHandler := api.NewHealthHandler(db, redisClient)
	app.Get("/health", healthHandler.HealthCheck)

	// Webhooks sit outside the authenticated group; each verifies its own
	// signature.
	stripeWebhookHandler := api.NewStripeWebhookHandler(services.stripe)
	app.Post("/webhooks/stripe", stripeWebhookHandler.HandleWebhook)

	if cfg.Auth.Clerk != nil && cfg.Auth.Clerk.WebhookSecret != "" {
		clerkWebhookHandler := api.NewClerkWebhookHandler(
			cfg.Auth.Clerk.WebhookSecret,
			cfg.Credits.WelcomeBonusCredits,
			services.wallets,
			services.gdprWorker,
		)
		app.Post("/webhooks/clerk", clerkWebhookHandler.HandleWebhook)
	}

	authProvider, err := auth.NewProvider(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth provider initialization failed: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authProvider, nil)

	apiGroup := app.Group("/api")
	apiGroup.Use(authMiddleware.RequireAuth())

	creditsHandler := api.NewCreditsHandler(services.wallets, services.purchases)
	creditsGroup := apiGroup.Group("/credits")
	creditsGroup.Get("/balance", creditsHandler.GetBalance)
	creditsGroup.Get("/transactions", creditsHandler.ListTransactions)
	creditsGroup.Get("/bundles", creditsHandler.ListBundles)

	purchasesHandler := api.NewPurchasesHandler(services.stripe, services.purchases)
	creditsGroup.Post("/purchase", purchasesHandler.CreatePurchase)
	creditsGroup.Get("/purchases", purchasesHandler.ListPurchases)
	creditsGroup.Get("/purchases/:id", purchasesHandler.GetPurchase)

	giftsHandler := api.NewGiftsHandler(services.gifts, services.giftWorker)
	giftsGroup := apiGroup.Group("/gifts")
	giftsGroup.Get("/types", giftsHandler.ListGiftTypes)
	giftsGroup.Post("/", giftsHandler.SendGift)
	giftsGroup.Get("/", giftsHandler.ListGifts)
	giftsGroup.Get("/:id", giftsHandler.GetGift)

	donationsHandler := api.NewDonationsHandler(services.stripe, services.donations)

	// Anonymous donations need no account, so creation is also mounted
	// outside the authenticated group.
	app.Post("/donations", donationsHandler.CreateDonation)

	donationsGroup := apiGroup.Group("/donations")
	donationsGroup.Post("/", donationsHandler.CreateDonation)
	donationsGroup.Get("/", donationsHandler.ListDonations)

	gdprHandler := api.NewGDPRHandler(services.gdpr, services.gdprWorker)
	gdprGroup := apiGroup.Group("/gdpr")
	gdprGroup.Post("/exports", gdprHandler.RequestExport)
	gdprGroup.Get("/exports/:id", gdprHandler.GetExport)

	return nil
}

func welcomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "Welcome to the PetCove API",
			"version":    "1.0.0",
			"go_version": runtime.Version(),
			"status":     "running",
			"endpoints": fiber.Map{
				"credits":   "/api/credits",
				"gifts":     "/api/gifts",
				"donations": "/api/donations",
				"gdpr":      "/api/gdpr",
				"health":    "/health",
			},
		})
	}
}
