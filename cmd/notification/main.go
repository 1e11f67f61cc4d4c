package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenmart/storefront/internal/notification/email"
	"github.com/greenmart/storefront/internal/notification/service"
	"github.com/greenmart/storefront/internal/notification/transport/kafka"
	"github.com/greenmart/storefront/pkg/config"
	"github.com/greenmart/storefront/pkg/db"
	"github.com/greenmart/storefront/pkg/utils"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "notification-service")
	if err != nil {
		log.Fatalf("Error starting telemetry: %v", err)
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
		log.Fatalf("error creating postgres db: %v", err)
	}

	emailSender := email.NewSMTPSender(cfg.SMTP, cfg.Checkout.SiteURL, logger)
	notificationService := service.NewNotificationService(emailSender, logger, pool)

	consumer := kafka.NewConsumer(notificationService, cfg.Kafka.OrderTopic, logger)

	consumer.Start(ctx, cfg.Kafka.Brokers)

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error closing telemetry: %v\n", err)
	} else {
		log.Printf("Closed telemetry successfully")
	}

	pool.Close()
	log.Println("Postgres pool closed")
}
