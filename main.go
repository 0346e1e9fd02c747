package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"accounts/internal/handlers"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/services"
	"accounts/pkg/rabbitmq"
)

// Config is the immutable process configuration, loaded once at startup and
// passed by injection. The JWT secret never has a default; it must come
// from the environment.
type Config struct {
	AppPort     string
	DatabaseDSN string
	JWTSecret   string
	Env         string
	RabbitMQURL string
}

// loadConfig reads configuration from environment variables via Viper.
func loadConfig() Config {
	viper.SetDefault("APP_PORT", ":3333")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	return Config{
		AppPort:     viper.GetString("APP_PORT"),
		DatabaseDSN: viper.GetString("DATABASE_DSN"),
		JWTSecret:   viper.GetString("JWT_SECRET"),
		Env:         viper.GetString("APP_ENV"),
		RabbitMQURL: viper.GetString("RABBITMQ_URL"),
	}
}

// openDatabase connects to the configured store and migrates the schema.
// A postgres-looking DSN selects the postgres driver, any other non-empty
// DSN is treated as a SQLite path, and an empty DSN yields an in-memory
// SQLite database for local development.
func openDatabase(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case dsn == "":
		dialector = sqlite.Open("file::memory:?cache=shared")
	case strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, err
	}
	return db, nil
}

// NewApp wires repositories, services and handlers into a Fiber app. The
// RabbitMQ client may be nil, in which case account events are disabled.
func NewApp(cfg Config, db *gorm.DB, mqClient *rabbitmq.Client) *fiber.App {
	userRepo := repositories.NewGORMUserRepository(db)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, mqClient)
	userService := services.NewUserService(userRepo, mqClient)
	userHandler := handlers.NewUserHandler(authService, userService, cfg.Env == "production")

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(logger.New())
	app.Use(cors.New())

	api := app.Group("/api")
	userHandler.RegisterRoutes(api)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}

func main() {
	cfg := loadConfig()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Account events are optional: no broker URL means no events.
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()

		go func() {
			log.Println("Starting RabbitMQ consumer for account events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received account event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeUserEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	app := NewApp(cfg, db, mqClient)

	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
