package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hugsndnugs/Sentinel-Shop/internal/config"
	"github.com/hugsndnugs/Sentinel-Shop/internal/discord"
	"github.com/hugsndnugs/Sentinel-Shop/internal/handler"
	"github.com/hugsndnugs/Sentinel-Shop/internal/limiter"
	"github.com/hugsndnugs/Sentinel-Shop/internal/middleware"
	"github.com/hugsndnugs/Sentinel-Shop/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.WebhookConfigured() {
		log.Println("[server] WEBHOOK_URL is not configured; orders will be rejected until it is set")
	}

	// Services
	lim := limiter.New(limiter.Config{
		GlobalRate: cfg.GlobalRatePerSec,
		DestRate:   cfg.WebhookRate,
		DestWindow: cfg.WebhookWindow(),
		MaxWaiting: cfg.MaxDeliveryQueue,
		Enabled:    cfg.RateLimitEnabled,
	})
	probe := discord.NewTokenProbe(cfg.ProbeDiscordToken)
	webhookSvc := service.NewWebhookService(cfg.WebhookURL, cfg.RedactBulkConfig, lim, probe)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    64 * 1024, // an order form is small
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())

	// Shop page, when a built one is deployed alongside the service
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	// Health
	healthH := handler.NewHealthHandler(webhookSvc)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	orderH := handler.NewOrderHandler(webhookSvc)
	v1.Post("/orders", middleware.RateLimit(5, time.Minute), orderH.Submit)
	v1.Post("/orders/validate", middleware.RateLimit(30, time.Minute), orderH.Validate)

	// Admin
	admin := v1.Group("/admin", middleware.AdminKey(cfg.AdminKey))
	adminH := handler.NewAdminHandler(orderH, lim)
	admin.Get("/stats", adminH.Stats)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Sentinel Shop order service running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	log.Println("Server stopped")
}
