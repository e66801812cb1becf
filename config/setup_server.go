package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"

	NotifierLog     = "log"
	NotifierWebhook = "webhook"
	NotifierS3      = "s3"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig   `yaml:"databaseConfig"`
	RedisConfig    RedisConfig      `yaml:"redisConfig"`
	ServerConfig   ServerConfig     `yaml:"serverConfig"`
	S3Config       S3Config         `yaml:"s3Config"`
	JWT            JWTConfig        `yaml:"jwt"`
	TokenStore     TokenStoreConfig `yaml:"tokenStore"`
	Notifier       NotifierConfig   `yaml:"notifier"`
	CORS           CORSConfig       `yaml:"cors"`
	Logging        LoggingConfig    `yaml:"logging"`
	Security       SecurityConfig   `yaml:"security"`
}

// DefaultConfig : значения для локальной разработки, секрет не задан намеренно
func DefaultConfig() *AppConfig {
	return &AppConfig{
		ServerConfig: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		RedisConfig: RedisConfig{Addr: "localhost:6379"},
		JWT: JWTConfig{
			Issuer:                "identity-token-service",
			AccessTokenTTL:        30 * time.Minute,
			RefreshTokenTTL:       30 * 24 * time.Hour,
			ResetPasswordTokenTTL: 10 * time.Minute,
			VerifyEmailTokenTTL:   10 * time.Minute,
		},
		TokenStore: TokenStoreConfig{
			Driver:    TokenStorePostgres,
			Retention: 24 * time.Hour,
		},
		Notifier: NotifierConfig{
			Driver:  NotifierLog,
			Timeout: 5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig : defaults -> yaml-файл -> .env и переменные окружения.
// Пустой path означает конфигурацию только из окружения.
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет то, без чего сервис не может выдавать токены
func (c *AppConfig) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key не задан")
	}

	ttls := map[string]time.Duration{
		"access_token_ttl":         c.JWT.AccessTokenTTL,
		"refresh_token_ttl":        c.JWT.RefreshTokenTTL,
		"reset_password_token_ttl": c.JWT.ResetPasswordTokenTTL,
		"verify_email_token_ttl":   c.JWT.VerifyEmailTokenTTL,
	}
	for name, ttl := range ttls {
		// exp в JWT хранится в секундах, более короткий ttl токен не выпустит
		if ttl < time.Second {
			return fmt.Errorf("jwt.%s должен быть не меньше 1s, получено %s", name, ttl)
		}
	}

	switch c.TokenStore.Driver {
	case TokenStorePostgres, TokenStoreRedis:
	default:
		return fmt.Errorf("неизвестный tokenStore.driver: %q", c.TokenStore.Driver)
	}

	switch c.Notifier.Driver {
	case NotifierLog:
	case NotifierWebhook:
		if c.Notifier.WebhookURL == "" {
			return errors.New("notifier.webhook_url обязателен для драйвера webhook")
		}
	case NotifierS3:
		if c.S3Config.Bucket == "" {
			return errors.New("s3Config.bucket обязателен для драйвера s3")
		}
	default:
		return fmt.Errorf("неизвестный notifier.driver: %q", c.Notifier.Driver)
	}

	return nil
}

func SetupServer(cfg *ServerConfig) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, router
}

func SetupDatabase(dsn string) (*Database, error) {
	return NewDatabaseConnection("postgres", dsn)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
