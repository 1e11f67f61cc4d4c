package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	orderRepository "github.com/greenmart/storefront/internal/order/repository"
	orderService "github.com/greenmart/storefront/internal/order/service"
	"github.com/greenmart/storefront/internal/payment/paypal"
	"github.com/greenmart/storefront/internal/payment/stripe"
	"github.com/greenmart/storefront/internal/pricing"
	productRepository "github.com/greenmart/storefront/internal/product/repository"
	productService "github.com/greenmart/storefront/internal/product/service"
	"github.com/greenmart/storefront/internal/transport/http"
	"github.com/greenmart/storefront/internal/transport/http/handler"
	"github.com/greenmart/storefront/pkg/config"
	"github.com/greenmart/storefront/pkg/db"
	"github.com/greenmart/storefront/pkg/kafka"
	outboxRepository "github.com/greenmart/storefront/pkg/outbox/repository"
	"github.com/greenmart/storefront/pkg/outbox/worker"
	"github.com/greenmart/storefront/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "storefront-service")
	if err != nil {
		log.Fatalf("Failed to init trace: %v", err)
	}

	cfg := config.MustLoad()

	loggerCfg := config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	}
	logger, err := config.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}()

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})

	orderRepo := orderRepository.NewOrderRepository(pool, logger)
	productRepo := productRepository.NewProductRepository(pool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	paypalClient := paypal.NewClient(cfg.PayPal.BaseURL, cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, logger)
	stripeClient := stripe.NewClient(cfg.Stripe.BaseURL, cfg.Stripe.SecretKey, logger)

	calc := pricing.NewCalculator(nil)

	orders := orderService.NewOrderService(pool, logger, orderRepo, outboxRepo, calc, paypalClient, stripeClient)
	orders = orderService.NewCachedOrderService(orders, redisClient)

	products := productService.NewProductService(productRepo, logger)
	products = productService.NewCachedProductService(products, redisClient)

	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	app := fiber.New()

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 5 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &http.Handlers{
		Order:    handler.NewOrderHandler(orders, logger),
		Product:  handler.NewProductHandler(products, logger),
		Checkout: handler.NewCheckoutHandler(orders, cfg.Checkout.SiteURL, logger),
	}

	http.RegisterRoutes(app, handlers, cfg.Auth.JWTSecret)

	logger.Info("Storefront service started!")

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := tp.Shutdown(shutdownContext); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing redis client: %v\n", err)
	}

	pool.Close()
}
