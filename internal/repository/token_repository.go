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
)

// TokenRepository : хранилище refresh/reset/verify токенов в Postgres.
// Инвалидацией считается удаление строки, а не флаг.
type TokenRepository struct {
	*config.Database
}

func NewTokenRepository(database *config.Database) *TokenRepository {
	return &TokenRepository{database}
}

// Save сохраняет токен. Если UUID пустой, он генерируется.
func (r *TokenRepository) Save(ctx context.Context, token *model.Token) (string, error) {
	if token.UUID == "" {
		token.UUID = uuid.New().String()
	}

	query := `INSERT INTO tokens (uuid, user_uuid, type, issued_at, expires_at, blacklisted)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING created_at`

	err := r.DB.QueryRowContext(ctx, query,
		token.UUID,
		token.UserUUID,
		string(token.Type),
		token.IssuedAt,
		token.ExpiresAt,
		token.Blacklisted,
	).Scan(&token.CreatedAt)
	if err != nil {
		return "", util.LogError("[TokenRepo] ошибка вставки токена в БД", err)
	}

	return token.UUID, nil
}

// FindActive ищет запись нужного типа, не попавшую в черный список
func (r *TokenRepository) FindActive(ctx context.Context, tokenUUID string, tokenType model.TokenType) (*model.Token, error) {
	query := `SELECT uuid, user_uuid, type, issued_at, expires_at, blacklisted, created_at
				FROM tokens
				WHERE uuid = $1 AND type = $2 AND blacklisted = FALSE`

	token := &model.Token{}
	err := r.DB.GetContext(ctx, token, query, tokenUUID, string(tokenType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("[TokenRepo] токен %s: %w", tokenUUID, common.ErrNotFound)
		}
		return nil, util.LogError("[TokenRepo] ошибка поиска токена", err)
	}

	return token, nil
}

// DeleteByID удаляет запись. Из двух параллельных вызовов успешен только один,
// второй получает common.ErrNotFound.
func (r *TokenRepository) DeleteByID(ctx context.Context, tokenUUID string) error {
	query := `DELETE FROM tokens WHERE uuid = $1 AND blacklisted = FALSE`

	result, err := r.DB.ExecContext(ctx, query, tokenUUID)
	if err != nil {
		return util.LogError("[TokenRepo] не удалось удалить токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[TokenRepo] не удалось проверить, удален ли токен", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("[TokenRepo] токен %s уже удален: %w", tokenUUID, common.ErrNotFound)
	}

	return nil
}

// DeleteAllByScope удаляет все токены типа tokenType пользователя и возвращает их количество
func (r *TokenRepository) DeleteAllByScope(ctx context.Context, userUUID string, tokenType model.TokenType) (int64, error) {
	query := `DELETE FROM tokens WHERE user_uuid = $1 AND type = $2`

	result, err := r.DB.ExecContext(ctx, query, userUUID, string(tokenType))
	if err != nil {
		return 0, util.LogError("[TokenRepo] не удалось удалить токены пользователя", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("[TokenRepo] не удалось получить число удаленных токенов", err)
	}

	return rowsAffected, nil
}

// Blacklist помечает токен как непригодный навсегда
func (r *TokenRepository) Blacklist(ctx context.Context, tokenUUID string) error {
	query := `UPDATE tokens SET blacklisted = TRUE WHERE uuid = $1 AND blacklisted = FALSE`

	result, err := r.DB.ExecContext(ctx, query, tokenUUID)
	if err != nil {
		return util.LogError("[TokenRepo] не удалось заблокировать токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[TokenRepo] не удалось проверить блокировку токена", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("[TokenRepo] токен %s: %w", tokenUUID, common.ErrNotFound)
	}

	return nil
}
