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
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelReservationHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/cancel_reservation"
	completeReservationHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/complete_reservation"
	createInvoiceHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/create_invoice"
	createReservationHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/create_reservation"
	getAvailableWindowsHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/get_available_windows"
	getInvoiceHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/get_invoice"
	getReservationHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/get_reservation"
	getScheduleHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/get_schedule"
	getUserReservationsHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/get_user_reservations"
	listReservationsHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/list_reservations"
	manageParticipantsHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/manage_participants"
	settleInvoiceHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/settle_invoice"
	stripeWebhookHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/stripe_webhook"
	updateScheduleHandler "github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers/update_schedule"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/config"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/events"
	creditRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/credit"
	invoiceRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/invoice"
	outboxRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/outbox"
	reservationRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/reservation"
	scheduleRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/schedule"
	catalogServiceClient "github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/catalogservice"
	checkoutClient "github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/checkout"
	studentServiceClient "github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/studentservice"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/jobs"
	availabilityService "github.com/m04kA/SMC-DrivingSchoolService/internal/service/availability"
	invoicesService "github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
	reservationsService "github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations"
	scheduleService "github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule"
	cancelReservationUC "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/cancel_reservation"
	createReservationUC "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/create_reservation"
	publishEventsUC "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/publish_events"
	sweepExpiredHoldsUC "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/sweep_expired_holds"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/metrics"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	configPath := "config.toml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
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

	log.Info("Starting SMC-DrivingSchoolService...")
	log.Info("Configuration loaded from %s", configPath)

	// Метрики; nil коллектор означает, что метрики выключены
	var metricsCollector *metrics.Metrics
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

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Репозитории и менеджер транзакций (с метриками или без)
	var (
		executor  dbmetrics.DBExecutor = db
		txBeginer dbmetrics.TxBeginner = dbmetrics.SQLDB{DB: db}
	)
	if cfg.Metrics.Enabled {
		wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		executor, txBeginer = wrappedDB, wrappedDB
		log.Info("Database metrics collection started")
	}

	scheduleRepository := scheduleRepo.NewRepository(executor)
	reservationRepository := reservationRepo.NewRepository(executor)
	invoiceRepository := invoiceRepo.NewRepository(executor)
	creditRepository := creditRepo.NewRepository(executor)
	outboxRepository := outboxRepo.NewRepository(executor)
	txMgr := txmanager.NewTransactionManager(txBeginer, txmanager.WithMaxRetries(cfg.Database.SerializableRetries))

	// Интеграционные клиенты
	studentClient := studentServiceClient.NewClient(
		cfg.StudentService.URL,
		time.Duration(cfg.StudentService.Timeout)*time.Second,
		log,
	)
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (StudentService=%s timeout=%ds, CatalogService=%s timeout=%ds)",
		cfg.StudentService.URL, cfg.StudentService.Timeout, cfg.CatalogService.URL, cfg.CatalogService.Timeout)

	// Stripe Checkout; интерфейс остается nil, если онлайн-оплата выключена
	var (
		stripeClient *checkoutClient.Client
		hostedPay    invoicesService.CheckoutClient
	)
	if cfg.Stripe.Enabled {
		stripeClient = checkoutClient.NewClient(checkoutClient.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
		}, log)
		hostedPay = stripeClient
		log.Info("Stripe Checkout enabled")
	}

	// Шина событий
	var publisher events.Publisher
	if cfg.NATS.Enabled {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS: %v", err)
		}
		publisher = natsPublisher
		log.Info("NATS publisher connected (url=%s, prefix=%s)", cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	} else {
		publisher = events.NewLogPublisher(cfg.NATS.SubjectPrefix, log)
		log.Warn("NATS disabled, domain events are written to the log")
	}
	defer publisher.Close()

	// Сервисы
	resolver := availabilityService.NewResolver(scheduleRepository, reservationRepository, log)
	scheduleSvc := scheduleService.NewService(scheduleRepository, txMgr, log)
	reservationSvc := reservationsService.NewService(reservationRepository, outboxRepository, txMgr, log)
	invoiceSvc := invoicesService.NewService(
		invoiceRepository,
		reservationRepository,
		reservationSvc,
		creditRepository,
		outboxRepository,
		studentClient,
		hostedPay,
		txMgr,
		metricsCollector,
		invoicesService.Config{
			HoldMinutes:      cfg.Payments.HoldMinutes,
			OverdueAfterDays: cfg.Payments.OverdueAfterDays,
			Currency:         cfg.Payments.Currency,
		},
		log,
	)

	// Use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		reservationRepository,
		outboxRepository,
		resolver,
		catalogClient,
		txMgr,
		metricsCollector,
		log,
	)
	cancelReservationUseCase := cancelReservationUC.NewUseCase(reservationSvc, invoiceSvc, txMgr, log)
	sweepUseCase := sweepExpiredHoldsUC.NewUseCase(
		invoiceRepository,
		invoiceSvc,
		txMgr,
		metricsCollector,
		cfg.Sweeper.BatchSize,
		log,
	)
	publishUseCase := publishEventsUC.NewUseCase(
		outboxRepository,
		publisher,
		txMgr,
		metricsCollector,
		cfg.Sweeper.BatchSize,
		log,
	)

	// Фоновые задачи
	var scheduler *jobs.Scheduler
	if cfg.Sweeper.Enabled {
		scheduler = newScheduler(cfg, log, metricsCollector, sweepUseCase, publishUseCase)
		scheduler.Start()
		log.Info("Background jobs started")
	}

	// Handlers
	getAvailableWindows := getAvailableWindowsHandler.NewHandler(resolver, log)
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	listReservations := listReservationsHandler.NewHandler(reservationSvc, log)
	getUserReservations := getUserReservationsHandler.NewHandler(reservationSvc, log)
	cancelReservation := cancelReservationHandler.NewHandler(cancelReservationUseCase, log)
	completeReservation := completeReservationHandler.NewHandler(reservationSvc, log)
	manageParticipants := manageParticipantsHandler.NewHandler(reservationSvc, log)
	createInvoice := createInvoiceHandler.NewHandler(invoiceSvc, log)
	getInvoice := getInvoiceHandler.NewHandler(invoiceSvc, log)
	settleInvoice := settleInvoiceHandler.NewHandler(invoiceSvc, log)
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	updateSchedule := updateScheduleHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (гость или клиент, X-User-ID необязателен)
	// ============================================================

	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.Identify)

	public.HandleFunc("/availability", getAvailableWindows.Handle).Methods(http.MethodGet)
	public.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	public.HandleFunc("/reservations/{reservationId}/participants", manageParticipants.Add).Methods(http.MethodPost)

	public.HandleFunc("/invoices", createInvoice.Handle).Methods(http.MethodPost)
	public.HandleFunc("/invoices/{invoiceId}", getInvoice.Handle).Methods(http.MethodGet)
	public.HandleFunc("/invoices/{invoiceId}/checkout", settleInvoice.Checkout).Methods(http.MethodPost)
	public.HandleFunc("/invoices/{invoiceId}/settle-credit", settleInvoice.SettleCredit).Methods(http.MethodPost)
	public.HandleFunc("/invoices/{invoiceId}/pay-on-location", settleInvoice.PayOnLocation).Methods(http.MethodPost)

	// Подпись проверяется самим handler
	if stripeClient != nil {
		stripeWebhook := stripeWebhookHandler.NewHandler(stripeClient, invoiceSvc, log)
		api.HandleFunc("/webhooks/stripe", stripeWebhook.Handle).Methods(http.MethodPost)
	}

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/users/{identity}/reservations", getUserReservations.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/users/{identity}/invoices", getInvoice.ListByPayer).Methods(http.MethodGet)

	// ============================================================
	// STAFF ROUTES (X-User-Role: staff | admin)
	// ============================================================

	staff := api.PathPrefix("").Subrouter()
	staff.Use(middleware.RequireStaff)

	staff.HandleFunc("/reservations", listReservations.Handle).Methods(http.MethodGet)
	staff.HandleFunc("/reservations/{reservationId}/complete", completeReservation.Handle).Methods(http.MethodPost)
	staff.HandleFunc("/participants/{participantId}/move", manageParticipants.Move).Methods(http.MethodPost)

	staff.HandleFunc("/invoices/{invoiceId}/confirm-instant-mobile", settleInvoice.ConfirmInstantMobile).Methods(http.MethodPost)
	staff.HandleFunc("/invoices/{invoiceId}/confirm-on-location", settleInvoice.ConfirmOnLocation).Methods(http.MethodPost)
	staff.HandleFunc("/invoices/{invoiceId}/decline", settleInvoice.Decline).Methods(http.MethodPost)

	staff.HandleFunc("/schedule", getSchedule.Handle).Methods(http.MethodGet)
	staff.HandleFunc("/schedule/templates", updateSchedule.ReplaceTemplates).Methods(http.MethodPut)
	staff.HandleFunc("/schedule/blocked", updateSchedule.AddBlockedRange).Methods(http.MethodPost)
	staff.HandleFunc("/schedule/blocked/{id}", updateSchedule.RemoveBlockedRange).Methods(http.MethodDelete)
	staff.HandleFunc("/schedule/extra", updateSchedule.AddExtraWindow).Methods(http.MethodPost)
	staff.HandleFunc("/schedule/extra/{id}", updateSchedule.RemoveExtraWindow).Methods(http.MethodDelete)

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

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Error("Background jobs did not stop in time: %v", err)
		}
	}

	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
