package ports

import (
	"context"
	"identity-token-service/internal/model"
	"time"
)

// TokenCodec : подпись и разбор токенов
type TokenCodec interface {
	Mint(subject string, tokenType model.TokenType, ttl time.Duration) (string, *model.Token, error)
	Decode(raw string) (*model.Token, error)
}

// TokenRepository : хранилище persisted-токенов (REFRESH, RESET_PASSWORD, VERIFY_EMAIL).
// Все методы атомарны в пределах одного вызова.
type TokenRepository interface {
	Save(ctx context.Context, token *model.Token) (string, error)
	FindActive(ctx context.Context, tokenUUID string, tokenType model.TokenType) (*model.Token, error)
	DeleteByID(ctx context.Context, tokenUUID string) error
	DeleteAllByScope(ctx context.Context, userUUID string, tokenType model.TokenType) (int64, error)
	Blacklist(ctx context.Context, tokenUUID string) error
}

// TokenService : жизненный цикл токенов
type TokenService interface {
	GenerateAuthTokens(ctx context.Context, userUUID string) (*model.AuthTokens, error)
	GenerateResetPasswordToken(ctx context.Context, userUUID string) (*model.IssuedToken, error)
	GenerateVerifyEmailToken(ctx context.Context, userUUID string) (*model.IssuedToken, error)
	VerifyToken(ctx context.Context, raw string, expected model.TokenType) (*model.Token, error)
	ConsumeRefreshToken(ctx context.Context, raw string) (string, error)
	ConsumeSingleUseToken(ctx context.Context, raw string, tokenType model.TokenType) (string, error)
	RevokeRefreshToken(ctx context.Context, raw string) error
	BlacklistToken(ctx context.Context, raw string, tokenType model.TokenType, ownerUUID string) error
}
