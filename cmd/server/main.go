package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/worklance/worklance-backend/internal/config"
	"github.com/worklance/worklance-backend/internal/db"
	"github.com/worklance/worklance-backend/internal/escrow"
	httpHandlers "github.com/worklance/worklance-backend/internal/http/handlers"
	httpRouter "github.com/worklance/worklance-backend/internal/http/router"
	"github.com/worklance/worklance-backend/internal/logger"
	"github.com/worklance/worklance-backend/internal/repository"
	"github.com/worklance/worklance-backend/internal/service"
	"github.com/worklance/worklance-backend/internal/storage"
	"github.com/worklance/worklance-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	deliverableStorage, err := storage.NewDeliverableStorage(cfg.DeliverableStorage, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	tradeRepo := repository.NewTradeRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn)
	earningRepo := repository.NewEarningRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	deliverableRepo := repository.NewDeliverableRepository(dbConn)

	// Сервис уведомлений и вебсокеты. Хаб — единственная точка записи
	// уведомлений: он и сохраняет их, и доставляет в открытые соединения.
	notificationService := service.NewNotificationService(notificationRepo)
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()
	notifier := service.NewBroadcastNotifier(hub)

	// Доменные сервисы.
	var escrowAdapter escrow.Adapter
	if cfg.EscrowContract != "" {
		escrowAdapter = escrow.NewStaticAdapter(cfg.EscrowContract, cfg.EscrowReleaseFunc)
	}

	authService := service.NewAuthService(userRepo, tokenManager)
	jobService := service.NewJobService(jobRepo, tradeRepo, notifier, cfg.ChainID)
	milestoneService := service.NewMilestoneService(milestoneRepo, jobRepo, tradeRepo, escrowAdapter, notifier)
	ledgerService := service.NewLedgerService(earningRepo)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, notifier)
	// Цикл сверки запускается только внешним планировщиком через
	// POST /internal/reconciler/run, собственных таймеров у движка нет.
	reconcilerService := service.NewReconcilerService(milestoneRepo, milestoneService, notifier)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	jobHandler := httpHandlers.NewJobHandler(jobService)
	bidHandler := httpHandlers.NewBidHandler(jobService)
	milestoneHandler := httpHandlers.NewMilestoneHandler(milestoneService)
	ledgerHandler := httpHandlers.NewLedgerHandler(ledgerService)
	withdrawalHandler := httpHandlers.NewWithdrawalHandler(withdrawalService)
	reconcilerHandler := httpHandlers.NewReconcilerHandler(reconcilerService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	deliverableHandler := httpHandlers.NewDeliverableHandler(deliverableRepo, deliverableStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		jobHandler,
		bidHandler,
		milestoneHandler,
		ledgerHandler,
		withdrawalHandler,
		reconcilerHandler,
		notificationHandler,
		deliverableHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
