package main

import (
	"context"
	"flag"
	"fmt"
	"identity-token-service/config"
	_ "identity-token-service/docs"
	"identity-token-service/internal/handler"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/metrics"
	"identity-token-service/internal/notifier"
	"identity-token-service/internal/ports"
	"identity-token-service/internal/repository"
	"identity-token-service/internal/security"
	"identity-token-service/internal/service"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Identity token service
// @version 1.0
// @description REST API выдачи и проверки токенов

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "путь к config.yaml")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	if err != nil {
		log.Fatalf("Ошибка настройки логгера: %v", err)
	}
	slog.SetDefault(logger.Slog())

	metrics.InitMetrics()

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error(ctx, "ошибка при закрытии БД", "error", err)
		}
	}()

	if cfg.DatabaseConfig.MigrateOnStart {
		if err := repository.RunMigrations(ctx, db); err != nil {
			log.Fatalf("Ошибка миграций: %v", err)
		}
	}

	tokenRepo, closeStore, err := setupTokenStore(cfg, db)
	if err != nil {
		log.Fatalf("Ошибка настройки хранилища токенов: %v", err)
	}
	defer closeStore()

	mailer, err := notifier.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Ошибка настройки уведомлений: %v", err)
	}

	codec := security.NewTokenCodec([]byte(cfg.JWT.SecretKey), cfg.JWT.Issuer, security.SystemClock{})
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	userRepo := repository.NewUserRepository(db)

	tokenService := service.NewTokenService(codec, tokenRepo, &cfg.JWT, logger)
	userService := service.NewUserService(userRepo, tokenService, hasher, logger)
	authService := service.NewAuthenticationService(tokenService, userRepo, hasher, mailer, logger)

	authHandler := handler.NewAuthenticationHandler(authService, tokenService, userService, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	srv, router := config.SetupServer(&cfg.ServerConfig)

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(metrics.Middleware)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	handler.Routes(router, authHandler, userHandler, security.JWTMiddleware(tokenService, logger))

	runServer(ctx, srv, cfg.ServerConfig, logger)
}

// setupTokenStore выбирает движок хранилища refresh/reset/verify токенов
func setupTokenStore(cfg *config.AppConfig, db *config.Database) (ports.TokenRepository, func(), error) {
	switch cfg.TokenStore.Driver {
	case config.TokenStorePostgres:
		return repository.NewTokenRepository(db), func() {}, nil
	case config.TokenStoreRedis:
		redisClient, err := config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		closeRedis := func() {
			if err := redisClient.Close(); err != nil {
				slog.Error("ошибка при закрытии Redis", "error", err)
			}
		}
		return repository.NewRedisTokenRepository(redisClient, cfg.TokenStore.Retention), closeRedis, nil
	default:
		return nil, nil, fmt.Errorf("неизвестный драйвер %q", cfg.TokenStore.Driver)
	}
}

func runServer(ctx context.Context, server *http.Server, cfg config.ServerConfig, logger logging.Logger) {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(ctx, "сервер запущен", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "ошибка работы сервера", "error", err)
			return
		}
	case sig := <-signalChannel:
		logger.Info(ctx, "получен сигнал остановки работы сервера", "signal", sig.String())
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		logger.Error(ctx, "ошибка при остановке сервера", "error", err)
	} else {
		logger.Info(ctx, "сервер успешно остановлен")
	}
}
