package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"identity-token-service/config"
	"identity-token-service/internal/common"
	"identity-token-service/internal/model"
	"identity-token-service/internal/util"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const userColumns = `uuid, email, password_hash, first_name, last_name, grade, province, syllabus,
	school_name, role, is_email_verified, created_at, updated_at`

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет нового пользователя, занятый email дает common.ErrEmailTaken
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.UUID == "" {
		user.UUID = uuid.New().String()
	}

	query := `
	INSERT INTO users (uuid, email, password_hash, first_name, last_name, grade, province, syllabus, school_name, role)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING ` + userColumns

	createdUser := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query,
		user.UUID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Grade,
		user.Province,
		user.Syllabus,
		user.SchoolName,
		user.Role,
	).StructScan(createdUser)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("[UserRepo] %s: %w", user.Email, common.ErrEmailTaken)
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByUUID : ищет пользователя по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, userUUID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1`

	var user model.User
	if err := r.DB.GetContext(ctx, &user, query, userUUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("[UserRepo] пользователь %s: %w", userUUID, common.ErrNotFound)
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// FindByEmail : ищет пользователя по email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user model.User
	if err := r.DB.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("[UserRepo] пользователь с таким email: %w", common.ErrNotFound)
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по email", err)
	}
	return &user, nil
}

// UpdatePassword : меняет хэш пароля пользователя
func (r *UserRepository) UpdatePassword(ctx context.Context, userUUID, newPasswordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE uuid = $1`
	return r.execOne(ctx, "не удалось обновить пароль", query, userUUID, newPasswordHash)
}

// SetEmailVerified : отмечает email пользователя подтвержденным
func (r *UserRepository) SetEmailVerified(ctx context.Context, userUUID string) error {
	query := `UPDATE users SET is_email_verified = TRUE, updated_at = NOW() WHERE uuid = $1`
	return r.execOne(ctx, "не удалось подтвердить email", query, userUUID)
}

func (r *UserRepository) execOne(ctx context.Context, message, query string, args ...any) error {
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return util.LogError("[UserRepo] "+message, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[UserRepo] "+message, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("[UserRepo] %s: %w", message, common.ErrNotFound)
	}
	return nil
}
