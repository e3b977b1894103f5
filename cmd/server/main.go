package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/freelance-marketplace/internal/config"
	"github.com/ignatzorin/freelance-marketplace/internal/db"
	"github.com/ignatzorin/freelance-marketplace/internal/goroutine"
	httpHandlers "github.com/ignatzorin/freelance-marketplace/internal/http/handlers"
	"github.com/ignatzorin/freelance-marketplace/internal/http/middleware"
	httpRouter "github.com/ignatzorin/freelance-marketplace/internal/http/router"
	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/mailer"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/outbox"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
	"github.com/ignatzorin/freelance-marketplace/internal/security"
	"github.com/ignatzorin/freelance-marketplace/internal/service"
	"github.com/ignatzorin/freelance-marketplace/internal/storage"
	"github.com/ignatzorin/freelance-marketplace/internal/validation"
	"github.com/ignatzorin/freelance-marketplace/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPool)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	redisClient := connectRedis(ctx, cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		logger.Log.Fatalf("main: ошибка инициализации rate limiter: %v", err)
	}

	images, err := storage.NewImageStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	validation.RegisterJSONTagNames()

	// Websocket хаб живёт до отмены ctx.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Репозитории.
	users := repository.NewUserRepository(dbConn)
	freelances := repository.NewFreelanceRepository(dbConn)
	projects := repository.NewProjectRepository(dbConn)
	reviews := repository.NewReviewRepository(dbConn)
	payments := repository.NewPaymentRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	activityRepo := repository.NewActivityRepository(dbConn)
	categories := repository.NewCategoryRepository(dbConn)
	stats := repository.NewStatsRepository(dbConn)
	outboxRepo := repository.NewOutboxRepository(dbConn)

	// Сервисы.
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	notifications := service.NewNotificationService(notificationRepo, hub)
	activities := service.NewActivityService(activityRepo)
	events := service.NewEvents(notifications, activities, freelances)

	authService := service.NewAuthService(users, freelances, tokens, cfg.FrontendURL)
	freelanceService := service.NewFreelanceService(freelances, images)
	projectService := service.NewProjectService(projects, events)
	reviewService := service.NewReviewService(reviews, freelances, projects, events)
	paymentService := service.NewPaymentService(payments, freelances, events, cfg.Payment.AutoValidate)
	catalogCache := service.NewCacheService(redisClient)
	goroutine.SafeGoWithContext(ctx, catalogCache.Run)
	catalogService := service.NewCatalogService(categories, freelances, stats, catalogCache)

	if cfg.Payment.AutoValidate {
		logger.Log.Warn("main: платежи подтверждаются автоматически (PAYMENT_AUTO_VALIDATE)")
	}

	// Фоновая доставка писем.
	dispatcher := outbox.NewDispatcher(outboxRepo, int(cfg.Outbox.BatchSize), int(cfg.Outbox.MaxAttempts))
	dispatcher.Handle(models.OutboxKindVerifyEmail, outbox.VerifyEmailHandler(mailer.New(cfg.SMTP)))
	scheduler := outbox.NewScheduler(dispatcher, cfg.Outbox.Schedule)
	if err := scheduler.Start(); err != nil {
		logger.Log.Fatalf("main: ошибка запуска планировщика outbox: %v", err)
	}

	router := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Freelance:    httpHandlers.NewFreelanceHandler(freelanceService, images.MaxUploadBytes()),
		Project:      httpHandlers.NewProjectHandler(projectService),
		Review:       httpHandlers.NewReviewHandler(reviewService),
		Payment:      httpHandlers.NewPaymentHandler(paymentService),
		Notification: httpHandlers.NewNotificationHandler(notifications),
		Activity:     httpHandlers.NewActivityHandler(activities),
		Catalog:      httpHandlers.NewCatalogHandler(catalogService),
		Dashboard:    httpHandlers.NewDashboardHandler(catalogService),
		Health:       httpHandlers.NewHealthHandler(dbConn),
		WS:           httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins),
	}, httpRouter.Deps{
		Tokens:       tokens,
		Webhooks:     security.NewWebhookVerifier(cfg.Payment.WebhookSecret, cfg.Payment.WebhookTolerance),
		LimiterStore: limiterStore,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		scheduler.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки сервера")
		}
	})

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: сервер запущен")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: ошибка сервера: %v", err)
	}
	logger.Log.Info("main: сервер остановлен")
}

// connectRedis возвращает клиента или nil, если REDIS_URL не задан или недоступен.
// Без redis лимиты считаются в памяти процесса.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Log.WithError(err).Warn("main: некорректный REDIS_URL, используем память процесса")
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Log.WithError(err).Warn("main: redis недоступен, используем память процесса")
		_ = client.Close()
		return nil
	}
	return client
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
