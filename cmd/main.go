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

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_booking"
	getTenantConfigHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_tenant_config"
	inboundMessageHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/inbound_message"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/config"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/cache"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/messagelog"
	bookingRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	conversationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/conversation"
	customerRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/customer"
	holdRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/hold"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/migrations"
	packagesRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/packages"
	subscriptionsRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/subscriptions"
	tenantRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/tenant"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/tasks"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/messaging"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/notifier"
	availabilityService "github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/benefits"
	bookingsService "github.com/m04kA/SMC-ReservationEngine/internal/service/bookings"
	holdsService "github.com/m04kA/SMC-ReservationEngine/internal/service/holds"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/reservation"
	tenantsService "github.com/m04kA/SMC-ReservationEngine/internal/service/tenants"
	createBookingUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/get_available_slots"
	processMessageUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/process_message"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/keymutex"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/obs"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

// database общий интерфейс *sql.DB и *dbmetrics.DB для репозиториев и менеджера транзакций
type database interface {
	dbmetrics.DBExecutor
	txmanager.Beginner
}

func main() {
	configPath := os.Getenv("BOOKING_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationEngine...")
	log.Info("Configuration loaded from %s", configPath)

	defaultLoc, err := time.LoadLocation(cfg.Engine.DefaultTimezone)
	if err != nil {
		log.Fatal("Failed to load default timezone %s: %v", cfg.Engine.DefaultTimezone, err)
	}

	// Трассировка (если включена)
	if cfg.Tracing.Enabled {
		shutdownTracer, err := obs.InitTracer(context.Background(), obs.Config{
			ServiceName: cfg.Metrics.ServiceName,
			Environment: cfg.Tracing.Environment,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			log.Fatal("Failed to initialize tracer: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				log.Error("Failed to flush traces: %v", err)
			}
		}()
		log.Info("Tracing enabled (endpoint=%s, ratio=%.2f)", cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
	}

	// Доменные счетчики; endpoint и middleware подключаются только при metrics.enabled
	metricsCollector := metrics.New(cfg.Metrics.ServiceName)
	stopMetricsCh := make(chan struct{})

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(context.Background(), db); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
		log.Info("Database migrations applied")
	}

	var store database = db
	if cfg.Metrics.Enabled {
		store = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")
	}
	txMgr := txmanager.NewTransactionManager(store)

	// Redis: журнал входящих сообщений и брокер отложенных задач
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis is not reachable at %s, message log will fall back to conversation state: %v", cfg.Redis.Addr, err)
	}
	pingCancel()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	taskClient := asynq.NewClient(redisOpt)
	defer taskClient.Close()

	// Публикация уведомлений
	var bookingEvents createBookingUC.Notifier
	if cfg.RabbitMQ.Enabled {
		publisher, err := notifier.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		bookingEvents = publisher
		log.Info("Booking events are published to exchange %s", cfg.RabbitMQ.Exchange)
	} else {
		bookingEvents = notifier.NewLogPublisher(log)
		log.Info("RabbitMQ disabled, booking events are only logged")
	}

	// Инициализируем репозитории
	bookingRepository := bookingRepo.NewRepository(store)
	catalogRepository := catalogRepo.NewRepository(store)
	conversationRepository := conversationRepo.NewRepository(store)
	customerRepository := customerRepo.NewRepository(store)
	holdRepository := holdRepo.NewRepository(store)
	packagesRepository := packagesRepo.NewRepository(store)
	subscriptionsRepository := subscriptionsRepo.NewRepository(store)
	tenantRepository := tenantRepo.NewRepository(store)

	tenantCache, err := cache.NewTenantCache(
		tenantRepository,
		cfg.Cache.MaxCost,
		time.Duration(cfg.Cache.TenantTTLSeconds)*time.Second,
	)
	if err != nil {
		log.Fatal("Failed to initialize tenant cache: %v", err)
	}
	defer tenantCache.Close()

	// Инициализируем сервисы
	clock := &createBookingUC.RealTimeProvider{}
	locks := keymutex.New()

	tenantSvc := tenantsService.NewService(tenantCache)
	availabilitySvc := availabilityService.NewService(
		catalogRepository,
		bookingRepository,
		holdRepository,
		clock,
		defaultLoc,
		log,
	)
	reservationSvc := reservation.NewService(
		bookingRepository,
		catalogRepository,
		locks,
		txMgr,
		metricsCollector,
		clock,
		log,
	)
	benefitResolver := benefits.NewResolver(packagesRepository, subscriptionsRepository, clock, log)
	benefitLedger := benefits.NewLedger(packagesRepository, subscriptionsRepository, txMgr, log)
	holdSvc := holdsService.NewService(
		holdRepository,
		bookingRepository,
		catalogRepository,
		tasks.NewScheduler(taskClient),
		locks,
		txMgr,
		clock,
		cfg.Engine.HoldTTL(),
		log,
	)
	bookingSvc := bookingsService.NewService(bookingRepository, benefitLedger, txMgr, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		tenantSvc,
		catalogRepository,
		customerRepository,
		benefitResolver,
		reservationSvc,
		benefitLedger,
		bookingEvents,
		metricsCollector,
		clock,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(tenantSvc, availabilitySvc, log)
	processMessageUseCase := processMessageUC.NewUseCase(
		tenantSvc,
		messagelog.New(redisClient, cfg.Engine.MessageLogTTL()),
		conversationRepository,
		catalogRepository,
		availabilitySvc,
		holdSvc,
		createBookingUseCase,
		locks,
		metricsCollector,
		clock,
		processMessageUC.Config{
			IdleTimeout:     cfg.Engine.ConversationIdleTimeout(),
			MaxOfferedSlots: cfg.Engine.MaxOfferedSlots,
			DefaultLocation: defaultLoc,
		},
		log,
	)

	// Воркер отложенных задач: истечение удержаний
	taskServer := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Engine.WorkerConcurrency,
	})
	if err := taskServer.Start(tasks.NewHandler(holdSvc, log).Mux()); err != nil {
		log.Fatal("Failed to start task worker: %v", err)
	}
	log.Info("Task worker started (concurrency=%d)", cfg.Engine.WorkerConcurrency)

	// Интеграционный клиент провайдера сообщений
	messagingClient := messaging.NewClient(
		cfg.Messaging.URL,
		cfg.Messaging.Token,
		time.Duration(cfg.Messaging.Timeout)*time.Second,
		log,
	)
	log.Info("Messaging client initialized (url=%s timeout=%ds)", cfg.Messaging.URL, cfg.Messaging.Timeout)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(tenantSvc, bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(tenantSvc, bookingSvc, log)
	getTenantConfig := getTenantConfigHandler.NewHandler(tenantSvc, log)
	inboundMessage := inboundMessageHandler.NewHandler(processMessageUseCase, messagingClient, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Доступность и настройки арендатора ---
	api.HandleFunc("/tenants/{tenant}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenant}/config", getTenantConfig.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	api.HandleFunc("/tenants/{tenant}/bookings", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/tenants/{tenant}/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenant}/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// --- Вебхук провайдера сообщений (с ограничением частоты по IP) ---
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	webhooks := api.PathPrefix("/webhooks").Subrouter()
	webhooks.Use(limiter.Middleware(log))
	webhooks.HandleFunc("/messaging/{tenant}", inboundMessage.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	taskServer.Shutdown()
	log.Info("Task worker stopped")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
