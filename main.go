package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reflection-garden/config"
	"reflection-garden/events"
	"reflection-garden/handlers"
	"reflection-garden/metrics"
	"reflection-garden/middleware"
	"reflection-garden/repository"
	"reflection-garden/services"
	"reflection-garden/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}
	repo := repository.NewGormRepository(db)
	if err := services.SeedReferenceData(ctx, repo); err != nil {
		log.Fatal("failed to seed reference data:", err)
	}

	var assets utils.AssetResolver = utils.StaticAssets{BaseURL: cfg.CDNBaseURL}
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Assets(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		assets = r2
		log.Printf("✅ Serving garden images from R2 bucket %s", cfg.R2.Bucket)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	hub := events.NewHub(cfg.SubscriberBuffer, func(topic, name string) {
		collector.EventDropped(name)
		log.Printf("⚠️ [Hub] slow subscriber on %s missed %s", topic, name)
	})
	defer hub.Close()

	svc := services.New(services.Options{
		Repo:      repo,
		Publisher: hub,
		Assets:    assets,
		Metrics:   collector,
		Location:  cfg.Location,

		PromptRotationHour: cfg.PromptRotationHour,
	})

	sched, err := svc.Prompts.StartPromptScheduler()
	if err != nil {
		log.Fatal("failed to start prompt scheduler:", err)
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("⚠️ [Scheduler] shutdown: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// 🔐 Only Gateway requests allowed, except probes and scrapes
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-User-ID, X-User-Name",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(registry)))

	handlers.Setup(app, handlers.Deps{Services: svc, Hub: hub, Metrics: collector})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ CORS configured for origins: %v", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	hub.Close()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
