package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-payments/internal/auth"
	"ms-payments/internal/config"
	"ms-payments/internal/database/migrations"
	"ms-payments/internal/events"
	"ms-payments/internal/events/events_api"
	"ms-payments/internal/kafka"
	"ms-payments/internal/logger"
	"ms-payments/internal/mailer"
	"ms-payments/internal/order"
	"ms-payments/internal/order/db"
	"ms-payments/internal/order/order_api"
	rediswrap "ms-payments/internal/order/redis"
	"ms-payments/internal/payment/paystack"
	"ms-payments/internal/payment/stripe"
	"ms-payments/internal/sse"
	"ms-payments/internal/tickets/qr"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Payments Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	httpClient := &http.Client{
		Timeout: time.Second * 10,
	}

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	migrationRunner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := migrationRunner.MigrateUp(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("DATABASE", "Schema migrations applied")

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		log.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{cfg.Kafka.Topics.OrderCompleted}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, order events will not be published")
	}

	paystackClient := paystack.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL, httpClient, log)

	stripeService, err := stripe.NewService(cfg.Stripe.SecretKey, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Stripe initialization failed: %v", err))
	}

	qrGenerator := qr.NewGenerator(cfg.Platform.VerificationBaseURL)
	ticketMailer := mailer.NewMailer(cfg.Email, qrGenerator, log)
	orderEmitter := sse.NewOrderEventEmitter()

	dbLayer := &db.DB{Bun: bunDB}

	// kafkaProducer stays nil when disabled; the service treats a nil
	// publisher as a no-op.
	var publisher order.KafkaPublisher
	if kafkaProducer != nil {
		publisher = kafkaProducer
	}

	orderService := order.NewOrderService(
		dbLayer,
		rediswrap.NewRedis(redisClient),
		publisher,
		ticketMailer,
		paystackClient,
		stripeService,
		orderEmitter,
		cfg,
		log,
	)
	eventService := events.NewEventService(dbLayer, cfg.Platform, log)

	orderHandler := order_api.NewHandler(orderService, log)
	eventHandler := events_api.NewHandler(eventService, log)
	sseHandler := order_api.NewSSEHandler(log, orderEmitter)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	// Webhooks authenticate by signature, verification by order-id knowledge.
	r.Post("/api/payments/webhook/paystack", orderHandler.PaystackWebhook)
	r.Post("/api/payments/webhook/stripe", orderHandler.StripeWebhook)
	r.Get("/api/orders/verify", orderHandler.VerifyTicket)
	log.Info("ROUTER", "Webhook and verification endpoints registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		log.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", orderHandler.InitiateCheckout)
			})
			log.Info("ROUTER", "Checkout routes registered under /api/checkout")

			r.Route("/orders", func(r chi.Router) {
				r.Get("/{orderId}", orderHandler.GetOrder)
			})
			log.Info("ROUTER", "Order routes registered under /api/orders")

			r.Route("/events", func(r chi.Router) {
				r.Post("/", eventHandler.CreateEvent)
				r.Put("/{eventId}", eventHandler.UpdateEvent)
				r.Post("/{eventId}/publish", eventHandler.PublishEvent)
				r.Get("/{eventId}/orders/stream", sseHandler.HandleEventOrders)
			})
			log.Info("ROUTER", "Event routes registered under /api/events")
		})
	})

	// WriteTimeout stays unset so the SSE stream is not cut off.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Payments Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Payments Service shutdown complete")
	}

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Producer close failed: %v", err))
		}
	}
}
