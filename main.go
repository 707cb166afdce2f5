package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	applog "catalog/internal/logger"
	"catalog/internal/metrics"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := applog.New(applog.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// --- Initialize RabbitMQ Client (optional) ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()

		if err := mqClient.ConsumeProductEvents(logProductEvent(zlog)); err != nil {
			zlog.Error("Failed to start RabbitMQ consumer", zap.Error(err))
		}
	} else {
		zlog.Info("RABBITMQ_URL not set, product events disabled")
	}

	var publisher services.EventPublisher
	if mqClient != nil {
		publisher = mqClient
	}

	app, err := NewApp(cfg, zlog, publisher)
	if err != nil {
		zlog.Fatal("Failed to create app", zap.Error(err))
	}

	// --- Start HTTP Server ---
	zlog.Info("Starting server", zap.String("port", cfg.AppPort), zap.String("store", cfg.StoreDriver))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			zlog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("Error during Fiber shutdown", zap.Error(err))
	}
	zlog.Info("Server gracefully stopped")
}

// NewApp wires the store, service and handlers into a Fiber app. publisher
// may be nil.
func NewApp(cfg *config.Config, zlog *zap.Logger, publisher services.EventPublisher) (*fiber.App, error) {
	productRepo, err := newProductRepository(cfg)
	if err != nil {
		return nil, err
	}
	if err := productRepo.Load(); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	m := metrics.New(cfg.ServiceName)

	opts := []services.Option{
		services.WithLogger(zlog),
		services.WithRecorder(m),
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	productService := services.NewProductService(productRepo, opts...)
	productHandler := handlers.NewProductHandler(productService, zlog)

	app := fiber.New(fiber.Config{
		AppName: cfg.ServiceName,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New()) // Request logger
	app.Use(m.Middleware())

	// --- Health Check and Metrics ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"store":  cfg.StoreDriver,
			"events": publisher != nil,
		})
	})
	app.Get("/metrics", m.Handler())

	// --- API Routes ---
	productHandler.RegisterRoutes(app)

	return app, nil
}

func newProductRepository(cfg *config.Config) (repositories.ProductRepository, error) {
	if cfg.StoreDriver == config.DriverFile {
		return repositories.NewJSONProductRepository(cfg.StorePath), nil
	}
	db, err := database.Open(cfg.StoreDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	return repositories.NewGORMProductRepository(db), nil
}

// logProductEvent handles deliveries from the product events queue.
func logProductEvent(zlog *zap.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.ProductEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("invalid product event: %w", err)
		}
		zlog.Info("Received product event",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.String("type", event.Type),
			zap.String("product_id", event.ProductID),
			zap.String("sku", event.SKU))
		return nil
	}
}
