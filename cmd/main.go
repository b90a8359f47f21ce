package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	acquireSlotHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/acquire_slot"
	cancelBookingHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/cancel_booking"
	confirmBookingHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/create_booking"
	createOverrideHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/create_override"
	deleteOverrideHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/delete_override"
	getBookingHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_booking"
	getDaySlotsHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_day_slots"
	getFacilityBookingsHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_facility_bookings"
	getScheduleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_schedule"
	getUserBookingsHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_user_bookings"
	releaseSlotHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/release_slot"
	renewSlotHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/renew_slot"
	updateScheduleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/update_schedule"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/config"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/broadcast"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lockstore"
	bookingRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	courtServiceClient "github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	bookingsService "github.com/m04kA/SMC-AvailabilityService/internal/service/bookings"
	locksService "github.com/m04kA/SMC-AvailabilityService/internal/service/locks"
	scheduleService "github.com/m04kA/SMC-AvailabilityService/internal/service/schedule"
	createBookingUC "github.com/m04kA/SMC-AvailabilityService/internal/usecase/create_booking"
	getDaySlotsUC "github.com/m04kA/SMC-AvailabilityService/internal/usecase/get_day_slots"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
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

	log.Info("Starting SMC-AvailabilityService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

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

	// Подключаемся к Redis (блокировки слотов и pub/sub дельт)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatal("Failed to ping redis: %v", err)
	}
	pingCancel()
	log.Info("Successfully connected to redis (addr=%s, db=%d)", cfg.Redis.Addr, cfg.Redis.DB)

	// Инициализируем интеграционного клиента
	courtClient := courtServiceClient.NewClient(
		cfg.CourtService.URL,
		time.Duration(cfg.CourtService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration client initialized (CourtService=%s timeout=%ds)",
		cfg.CourtService.URL, cfg.CourtService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository  *bookingRepo.Repository
		scheduleRepository *scheduleRepo.Repository
	)

	// Интерфейс transaction manager, общий для usecases и сервисов
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		scheduleRepository = scheduleRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		scheduleRepository = scheduleRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем инфраструктуру блокировок и рассылки дельт
	lockStore := lockstore.New(redisClient)
	broadcaster := broadcast.New(redisClient, metricsCollector, log)

	// Наблюдатель истечения блокировок: публикует available, когда TTL ключа истёк,
	// чтобы подписчики не видели locked до полного перечитывания дня
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	expiryWatcher := lockstore.NewExpiryWatcher(redisClient, cfg.Redis.DB, broadcaster, log)
	go func() {
		if err := expiryWatcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Lock expiry watcher stopped: %v", err)
		}
	}()

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		courtClient,
		broadcaster,
		log,
	)
	scheduleSvc := scheduleService.NewService(
		scheduleRepository,
		courtClient,
		txMgr,
		log,
	)
	lockSvc := locksService.NewService(
		lockStore,
		scheduleRepository,
		bookingRepository,
		courtClient,
		broadcaster,
		metricsCollector,
		log,
		time.Duration(cfg.Lock.DefaultTTLSeconds)*time.Second,
		time.Duration(cfg.Lock.MaxTTLSeconds)*time.Second,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		scheduleRepository,
		lockStore,
		courtClient,
		broadcaster,
		txMgr,
		log,
	)

	getDaySlotsUseCase := getDaySlotsUC.NewUseCase(
		bookingRepository,
		scheduleRepository,
		lockStore,
		courtClient,
		log,
	)

	// Инициализируем handlers
	getDaySlots := getDaySlotsHandler.NewHandler(getDaySlotsUseCase, log)
	acquireSlot := acquireSlotHandler.NewHandler(lockSvc, log)
	releaseSlot := releaseSlotHandler.NewHandler(lockSvc, log)
	renewSlot := renewSlotHandler.NewHandler(lockSvc, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	confirmBooking := confirmBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getFacilityBookings := getFacilityBookingsHandler.NewHandler(bookingSvc, log)
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	updateSchedule := updateScheduleHandler.NewHandler(scheduleSvc, log)
	createOverride := createOverrideHandler.NewHandler(scheduleSvc, log)
	deleteOverride := deleteOverrideHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth)

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Слоты площадки на день: сетка + блокировки + бронирования
	api.HandleFunc("/facilities/{facilityId}/day-slots", getDaySlots.Handle).Methods(http.MethodGet)

	// Недельное расписание площадки с переопределениями
	api.HandleFunc("/facilities/{facilityId}/schedule", getSchedule.Handle).Methods(http.MethodGet)

	// --- Удержания слотов (анонимный чекаут разрешён, держателя идентифицирует holderId) ---
	api.HandleFunc("/slots/acquire", acquireSlot.Handle).Methods(http.MethodPost)
	api.HandleFunc("/slots/release", releaseSlot.Handle).Methods(http.MethodPost)
	api.HandleFunc("/slots/renew", renewSlot.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	// --- Бронирования ---
	api.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPatch)

	// История бронирований пользователя
	api.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Управление площадкой (для менеджеров) ---
	api.HandleFunc("/facilities/{facilityId}/bookings", getFacilityBookings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/facilities/{facilityId}/schedule", updateSchedule.Handle).Methods(http.MethodPut)
	api.HandleFunc("/facilities/{facilityId}/overrides", createOverride.Handle).Methods(http.MethodPost)
	api.HandleFunc("/facilities/{facilityId}/overrides/{date}", deleteOverride.Handle).Methods(http.MethodDelete)

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

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
