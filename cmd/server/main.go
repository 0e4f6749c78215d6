package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olosevents/backend/docs"
	"github.com/olosevents/backend/internal/audit"
	"github.com/olosevents/backend/internal/config"
	"github.com/olosevents/backend/internal/consumer"
	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/handlers"
	mW "github.com/olosevents/backend/internal/middleware"
	"github.com/olosevents/backend/internal/notifications"
	"github.com/olosevents/backend/internal/observability"
	"github.com/olosevents/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Olos Events API
// @version 1.0
// @description Olos token ledger and event reservation API
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.statement_timeout", "DATABASE_STATEMENT_TIMEOUT")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("rabbitmq.url", "RABBITMQ_URL")
	viper.BindEnv("rabbitmq.exchange", "RABBITMQ_EXCHANGE")
	viper.BindEnv("rabbitmq.ledger_exchange", "RABBITMQ_LEDGER_EXCHANGE")
	viper.BindEnv("rabbitmq.ledger_queue", "RABBITMQ_LEDGER_QUEUE")
	viper.BindEnv("otel.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	viper.BindEnv("otel.sample_ratio", "OTEL_SAMPLE_RATIO")
	viper.BindEnv("app.env", "APP_ENV")
	viper.BindEnv("port", "PORT")

	viper.SetDefault("rabbitmq.exchange", "olos.reservations")
	viper.SetDefault("rabbitmq.ledger_exchange", "olos.ledger")
	viper.SetDefault("rabbitmq.ledger_queue", "olos.ledger.commands")
	viper.SetDefault("otel.sample_ratio", 1.0)
	viper.SetDefault("app.env", "development")
	viper.SetDefault("port", "8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	cfg, err := config.LoadReservationConfig()
	if err != nil {
		log.Fatalf("Invalid reservation config: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Olos Events API"
	docs.SwaggerInfo.Description = "Olos token ledger and event reservation API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:" + viper.GetString("port")
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName:    "olos-backend",
		ServiceVersion: docs.SwaggerInfo.Version,
		Environment:    viper.GetString("app.env"),
		Endpoint:       viper.GetString("otel.endpoint"),
		SampleRatio:    viper.GetFloat64("otel.sample_ratio"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditLogger := audit.NewLogger()
	uow := database.NewTxManager(db)
	ledgerService := services.NewLedgerService(db, uow, cfg, auditLogger)

	deps := services.ReservationServiceDeps{
		DB:          db,
		UnitOfWork:  uow,
		Ledger:      ledgerService,
		Capacity:    services.NewCapacityTracker(db),
		Store:       services.NewReservationStore(db),
		Events:      services.NewPostgresEventReader(),
		Users:       services.NewPostgresUserReader(),
		Notifier:    notifications.LogNotifier{},
		RateLimiter: services.NewJoinRateLimiter(redisClient, cfg.JoinRateLimit, cfg.JoinRateWindow),
		Config:      cfg,
		Audit:       auditLogger,
	}

	if url := viper.GetString("rabbitmq.url"); url != "" {
		publisher, err := notifications.NewRabbitPublisher(url, viper.GetString("rabbitmq.exchange"))
		if err != nil {
			log.Printf("RabbitMQ unavailable, host notifications will only be logged: %v", err)
		} else {
			defer publisher.Close()
			deps.Notifier = notifications.NewHostNotifier(publisher)
			log.Println("RabbitMQ publisher connected")
		}
	}
	if redisClient != nil {
		deps.Chat = notifications.NewChatOutbox(redisClient)
	}

	// Standalone credits and debits (bonuses, purchases) arrive as commands.
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if url := viper.GetString("rabbitmq.url"); url != "" {
		source, err := consumer.NewRabbitConsumer(url, viper.GetString("rabbitmq.ledger_exchange"),
			viper.GetString("rabbitmq.ledger_queue"), consumer.LedgerKeys)
		if err != nil {
			log.Printf("RabbitMQ ledger consumer unavailable: %v", err)
		} else {
			defer source.Close()
			if err := consumer.NewLedgerConsumer(ledgerService, source).Run(consumerCtx); err != nil {
				log.Printf("Failed to start ledger consumer: %v", err)
			}
		}
	}

	reservationService := services.NewReservationService(deps)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	reservationHandler := handlers.NewReservationHandler(reservationService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(mW.NewStructuredLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil))))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.AuthMiddleware)

		r.Get("/ledger/balance", ledgerHandler.GetBalance)
		r.Get("/ledger/transactions", ledgerHandler.GetTransactions)
		r.Get("/ledger/reconciliation", ledgerHandler.Reconcile)

		r.Get("/reservations", reservationHandler.ListReservations)
		r.Get("/events/{eventId}/capacity", reservationHandler.GetCapacity)
		r.Post("/events/{eventId}/reservations", reservationHandler.JoinEvent)
		r.Post("/events/{eventId}/reservations/cancel", reservationHandler.CancelReservation)
	})

	port := viper.GetString("port")

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopConsumer()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := reservationService.WaitForSideEffects(shutdownCtx); err != nil {
		log.Printf("Pending side effects abandoned: %v", err)
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("Tracer shutdown failed: %v", err)
	}

	log.Println("Server stopped")
}
