package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shams-vision/internal/adapters/http/middleware"
	"shams-vision/internal/adapters/http/routes"
	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/config"

	"cloud.google.com/go/storage"
	"github.com/gofiber/fiber/v2"

	_ "shams-vision/docs" // Swagger docs
)

// @title Shams Vision API
// @version 1.0
// @description Field workforce management API: routes, store visits, work sessions, points and leaves.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@shams-vision.sa

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.shams-vision.sa
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed admin account and sample master data
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Object storage client, optional (uploads return 503 without it)
	var storageClient *storage.Client
	if cfg.Storage.Enabled {
		storageClient, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalf("❌ Failed to create storage client: %v", err)
		}
		defer storageClient.Close()
	} else {
		log.Println("⚠️ Object storage disabled, file uploads unavailable")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Shams Vision API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	scheduler := routes.Setup(app, db, storageClient, cfg)

	// Start scheduler (auto-checkout sweep, token cleanup)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
