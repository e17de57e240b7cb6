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

	cancelBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_booking"
	checkDuplicateHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/check_duplicate"
	checkSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/check_slot"
	createBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_booking"
	getAvailabilityHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_booking"
	getCustomerBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_customer_bookings"
	listOfferingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_offerings"
	lookupCustomerBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/lookup_customer_bookings"
	reconcileSinkHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/reconcile_sink"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/cache/busyintervals"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/bookingfile"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/jobsink"
	bookingsService "github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	"github.com/m04kA/SMC-AppointmentService/internal/service/conflicts"
	offeringsService "github.com/m04kA/SMC-AppointmentService/internal/service/offerings"
	createBookingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	getAvailabilityUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_availability"
	reconcileSinkUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_sink"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// bookingStore общий набор методов PostgreSQL и файлового хранилища
type bookingStore interface {
	Create(ctx context.Context, record *domain.BookingRecord) (*domain.BookingRecord, error)
	GetByID(ctx context.Context, id string) (*domain.BookingRecord, error)
	FindByResourceAndDate(ctx context.Context, resourceID string, date time.Time) ([]*domain.BookingRecord, error)
	FindByResourceInRange(ctx context.Context, resourceID string, from, to time.Time) ([]*domain.BookingRecord, error)
	FindByCustomerEmailAndDate(ctx context.Context, email string, date time.Time, timeOfDay *types.TimeString) ([]*domain.BookingRecord, error)
	FindByCustomerEmailInRange(ctx context.Context, email string, from, to time.Time) ([]*domain.BookingRecord, error)
	FindByCustomerEmail(ctx context.Context, email string) ([]*domain.BookingRecord, error)
	FindPendingForward(ctx context.Context, lease time.Duration, limit int) ([]*domain.BookingRecord, error)
	ClaimForward(ctx context.Context, id string, lease time.Duration) (bool, error)
	Cancel(ctx context.Context, id string, requestingEmail string) (bool, error)
	MarkForwarded(ctx context.Context, id string, externalJobID string) error
	MarkForwardFailed(ctx context.Context, id string, reason string) error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load(config.DefaultPath)
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

	log.Info("Starting SMC-AppointmentService...")

	hours, err := cfg.BusinessHours()
	if err != nil {
		log.Fatal("Invalid business hours: %v", err)
	}
	offeringItems, err := cfg.ServiceOfferings()
	if err != nil {
		log.Fatal("Invalid offerings: %v", err)
	}
	catalog, err := offeringsService.NewService(offeringItems)
	if err != nil {
		log.Fatal("Failed to build offerings catalog: %v", err)
	}
	clock := &calendar.RealTimeProvider{}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище бронирований
	var (
		store bookingStore
		txMgr createBookingUC.TransactionManager
	)

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		store = bookingRepo.NewRepository(wrappedDB, clock)
		txMgr = txmanager.NewTransactionManager(wrappedDB)

	case config.StorageDriverFile:
		fileStore, err := bookingfile.Open(cfg.Storage.FilePath, clock)
		if err != nil {
			log.Fatal("Failed to open booking file %s: %v", cfg.Storage.FilePath, err)
		}
		store = fileStore
		txMgr = txmanager.NewNoop()
		log.Info("Using file booking store at %s", cfg.Storage.FilePath)
	}

	// Внешняя система заявок и кеш занятости (опционально)
	var (
		sink      createBookingUC.JobSink
		external  getAvailabilityUC.ExternalBusySource
		busyCache createBookingUC.BusyCache
	)

	if cfg.JobSink.Enabled {
		sinkClient := jobsink.NewClient(jobsink.Config{
			BaseURL:       cfg.JobSink.URL,
			Token:         cfg.JobSink.Token,
			Timeout:       time.Duration(cfg.JobSink.Timeout) * time.Second,
			RatePerSecond: cfg.JobSink.RatePerSecond,
			Burst:         cfg.JobSink.Burst,
			Location:      hours.Location,
		}, log)
		sink = sinkClient
		external = sinkClient
		log.Info("Job sink enabled (url=%s, timeout=%ds)", cfg.JobSink.URL, cfg.JobSink.Timeout)

		if cfg.Redis.Enabled {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			rdb, err := busyintervals.NewClient(ctx, busyintervals.Config{
				Addr:     cfg.Redis.Addr,
				DB:       cfg.Redis.DB,
				Password: cfg.Redis.Password,
			})
			cancel()
			if err != nil {
				log.Warn("Redis unavailable, busy intervals are not cached: %v", err)
			} else {
				defer rdb.Close()
				cache := busyintervals.New(rdb, sinkClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second, log)
				external = cache
				busyCache = cache
				log.Info("Busy interval cache enabled (addr=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTLSeconds)
			}
		}
	}

	// Сервисы
	cal := calendar.New(hours, clock)
	detector := conflicts.NewDetector(store, hours)
	duplicateGuard := conflicts.NewDuplicateGuard(store, hours)

	bookingSvc := bookingsService.NewService(
		store,
		detector,
		duplicateGuard,
		catalog,
		cfg.Business.DefaultResourceID,
		log,
	)

	// Use cases
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		cal,
		catalog,
		detector,
		external,
		metricsCollector,
		cfg.Business.DefaultResourceID,
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(createBookingUC.Deps{
		BookingRepo:       store,
		Slots:             detector,
		Duplicates:        duplicateGuard,
		Offerings:         catalog,
		Calendar:          cal,
		Sink:              sink,
		BusyCache:         busyCache,
		TxManager:         txMgr,
		Metrics:           metricsCollector,
		SinkTimeout:       time.Duration(cfg.JobSink.Timeout) * time.Second,
		DefaultResourceID: cfg.Business.DefaultResourceID,
		Logger:            log,
	})

	reconcileUseCase := reconcileSinkUC.NewUseCase(
		store,
		sink,
		busyCache,
		metricsCollector,
		time.Duration(cfg.JobSink.Timeout)*time.Second,
		log,
	)

	// Handlers
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, hours.Location, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	checkDuplicate := checkDuplicateHandler.NewHandler(bookingSvc, log)
	checkSlot := checkSlotHandler.NewHandler(bookingSvc, hours.Location, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	getCustomerBookings := getCustomerBookingsHandler.NewHandler(bookingSvc, log)
	lookupCustomerBookings := lookupCustomerBookingsHandler.NewHandler(bookingSvc, hours.Location, log)
	listOfferings := listOfferingsHandler.NewHandler(catalog, log)
	reconcile := reconcileSinkHandler.NewHandler(reconcileUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES
	// ============================================================

	api.HandleFunc("/offerings", listOfferings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/check-duplicate", checkDuplicate.Handle).Methods(http.MethodPost)
	api.Handle("/bookings/check-slot", middleware.OptionalAuth(http.HandlerFunc(checkSlot.Handle))).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (X-Customer-Email от провайдера идентификации)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/customers/me/bookings", getCustomerBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/customers/me/bookings/lookup", lookupCustomerBookings.Handle).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES (X-Admin-Token)
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminToken(cfg.Admin.Token))
	admin.HandleFunc("/reconcile", reconcile.Handle).Methods(http.MethodPost)

	// Фоновая сверка с job sink
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	if cfg.Reconcile.Enabled {
		worker := reconcileSinkUC.NewWorker(
			reconcileUseCase,
			time.Duration(cfg.Reconcile.IntervalSeconds)*time.Second,
			cfg.Reconcile.BatchSize,
			log,
		)
		go worker.Run(workerCtx)
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	stopWorker()
	close(stopMetricsCh)

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
