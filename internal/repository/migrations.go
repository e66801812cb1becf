package repository

import (
	"context"
	"database/sql"
	"fmt"
	"identity-token-service/config"
	"identity-token-service/internal/migrations"

	"github.com/pressly/goose/v3"
)

// gooseUpContext подменяется в тестах
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations применяет встроенные миграции к БД
func RunMigrations(ctx context.Context, database *config.Database) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("ошибка выбора диалекта goose: %w", err)
	}

	if err := gooseUpContext(ctx, database.DB.DB, "."); err != nil {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return nil
}
