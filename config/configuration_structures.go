package config

import "time"

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	DSN            string `yaml:"dsn" env:"DATABASE_DSN"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"DATABASE_MIGRATE_ON_START"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket" env:"S3_BUCKET"`
	Prefix   string `yaml:"prefix" env:"S3_PREFIX"`
	Region   string `yaml:"region" env:"S3_REGION"`
	Endpoint string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Local    bool   `yaml:"local" env:"S3_LOCAL"`
}

// JWTConfig : секрет подписи читается один раз при старте и дальше не меняется
type JWTConfig struct {
	SecretKey             string        `yaml:"secret_key" env:"JWT_SECRET"`
	Issuer                string        `yaml:"issuer" env:"JWT_ISSUER"`
	AccessTokenTTL        time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TOKEN_TTL"`
	RefreshTokenTTL       time.Duration `yaml:"refresh_token_ttl" env:"JWT_REFRESH_TOKEN_TTL"`
	ResetPasswordTokenTTL time.Duration `yaml:"reset_password_token_ttl" env:"JWT_RESET_PASSWORD_TOKEN_TTL"`
	VerifyEmailTokenTTL   time.Duration `yaml:"verify_email_token_ttl" env:"JWT_VERIFY_EMAIL_TOKEN_TTL"`
}

// TokenStoreConfig : где хранятся refresh/reset/verify токены.
// Retention - сколько Redis держит запись после истечения токена.
type TokenStoreConfig struct {
	Driver    string        `yaml:"driver" env:"TOKEN_STORE_DRIVER"`
	Retention time.Duration `yaml:"retention" env:"TOKEN_STORE_RETENTION"`
}

// NotifierConfig : доставка писем со ссылками сброса пароля и подтверждения почты
type NotifierConfig struct {
	Driver     string        `yaml:"driver" env:"NOTIFIER_DRIVER"`
	WebhookURL string        `yaml:"webhook_url" env:"NOTIFIER_WEBHOOK_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"NOTIFIER_TIMEOUT"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type SecurityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}
