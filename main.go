package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/mailer"
	"storefront/pkg/mongodb"
	"storefront/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// --- Document store ---
	client, err := mongodb.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongodb.Disconnect(client); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	db := client.Database(cfg.MongoDB)

	// --- RabbitMQ (optional side channel) ---
	// Order submission must keep working when the broker is down, so a
	// failed connection only disables event publishing.
	var mqClient *rabbitmq.Client
	mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("RabbitMQ unavailable, order events disabled: %v", err)
		mqClient = nil
	} else {
		defer mqClient.Close()
	}

	// --- Mailer (optional side channel) ---
	var mail *mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.New(mailer.Config{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			User:       cfg.SMTPUser,
			Pass:       cfg.SMTPPass,
			From:       cfg.EmailFrom,
			AdminEmail: cfg.AdminEmail,
		})
	} else {
		log.Println("SMTP not configured, email notifications disabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewMongoUserRepository(db)
	orderRepo := repositories.NewMongoOrderRepository(db)
	productRepo := repositories.NewMongoProductRepository(db)

	// --- Services ---
	var notifier services.OrderNotifier
	var publisher services.EventPublisher
	if mail != nil {
		notifier = mail
	}
	if mqClient != nil {
		publisher = mqClient
	}
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	orderService := services.NewOrderService(orderRepo, userRepo, notifier, publisher)
	productService := services.NewProductService(productRepo)

	// --- Handlers ---
	var resetMailer handlers.ResetMailer
	if mail != nil {
		resetMailer = mail
	}
	authHandler := handlers.NewAuthHandler(authService, resetMailer)
	orderHandler := handlers.NewOrderHandler(orderService)
	productHandler := handlers.NewProductHandler(productService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New())

	auth := middleware.AuthRequired(authService)
	admin := middleware.AdminRequired()

	api := app.Group("/api")
	authHandler.RegisterRoutes(api, auth)
	orderHandler.RegisterRoutes(api, auth, admin)
	productHandler.RegisterRoutes(api, auth, admin)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Order event consumer ---
	// Downstream processing hook; currently logs each order event.
	if mqClient != nil {
		go func() {
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on %s", cfg.AppPort)

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
