package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/app"
	"github.com/ignatzorin/marketplace-backend/internal/config"
	"github.com/ignatzorin/marketplace-backend/internal/db"
	"github.com/ignatzorin/marketplace-backend/internal/goroutine"
	httpRouter "github.com/ignatzorin/marketplace-backend/internal/http/router"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/marketplace-backend/internal/interface/http/handler"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/service"
	"github.com/ignatzorin/marketplace-backend/internal/usecase/project"
	"github.com/ignatzorin/marketplace-backend/internal/ws"
	"github.com/ignatzorin/marketplace-backend/migrations"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}

	// Хранилище.
	var (
		repos  app.Repositories
		pinger handler.Pinger
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		repos = app.MemoryRepositories(memory.NewStore())
		logger.Log.Warn("main: используется хранилище в памяти, данные не переживут перезапуск")
	default:
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if cfg.AutoMigrate {
			applied, err := db.RunMigrations(ctx, dbConn, migrationsFS(cfg.MigrationsPath))
			if err != nil {
				log.Fatalf("main: ошибка миграций: %v", err)
			}
			logger.Log.WithField("applied", applied).Info("main: миграции применены")
		}

		repos = app.PostgresRepositories(dbConn)
		pinger = dbConn
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Платёжный шлюз.
	var gateway project.PaymentGateway
	if cfg.PaymentGatewayURL != "" {
		gateway = payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentToken, cfg.PaymentReturnURL, cfg.PaymentTimeout)
	} else {
		logger.Log.Warn("main: PAYMENT_GATEWAY_URL не задан, платежи идут через песочницу")
		gateway = payment.SandboxGateway{BaseURL: cfg.PaymentReturnURL}
	}

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.GoWithContext(ctx, "ws.hub", hub.Run)

	services := app.NewServices(repos, gateway, project.WithNotifier(ws.NewNotifier(hub)))
	handlers := app.NewHandlers(services, app.HandlerDeps{
		Tokens:         tokenManager,
		Hub:            hub,
		DB:             pinger,
		Storage:        cfg.StorageDriver,
		WebhookSecret:  cfg.PaymentWebhookSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// migrationsFS возвращает каталог миграций на диске или встроенный набор.
func migrationsFS(path string) fs.FS {
	if path == "" {
		return migrations.FS
	}
	return os.DirFS(path)
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
