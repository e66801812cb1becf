package service

import (
	"context"
	"fmt"
	"identity-token-service/config"
	"identity-token-service/internal/common"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/metrics"
	"identity-token-service/internal/model"
	"identity-token-service/internal/ports"
	"time"
)

// TokenService выпускает, проверяет и гасит токены.
// Ошибки возвращаются точными: common.ErrInvalidSignature, common.ErrTokenExpired,
// common.ErrWrongTokenType, common.ErrNotFound. Сворачивает их AuthenticationService.
type TokenService struct {
	codec  ports.TokenCodec
	repo   ports.TokenRepository
	cfg    *config.JWTConfig
	logger logging.Logger
}

func NewTokenService(codec ports.TokenCodec, repo ports.TokenRepository, cfg *config.JWTConfig, logger logging.Logger) *TokenService {
	return &TokenService{
		codec:  codec,
		repo:   repo,
		cfg:    cfg,
		logger: logger.With("component", "token_service"),
	}
}

// GenerateAuthTokens выпускает пару access + refresh. Refresh сохраняется в хранилище.
func (s *TokenService) GenerateAuthTokens(ctx context.Context, userUUID string) (*model.AuthTokens, error) {
	access, err := s.issue(ctx, userUUID, model.TokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.issue(ctx, userUUID, model.TokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &model.AuthTokens{
		Access:  *access,
		Refresh: *refresh,
	}, nil
}

// GenerateResetPasswordToken : предыдущие reset-токены не трогаются, их гасит использование любого из них
func (s *TokenService) GenerateResetPasswordToken(ctx context.Context, userUUID string) (*model.IssuedToken, error) {
	return s.issue(ctx, userUUID, model.TokenTypeResetPassword, s.cfg.ResetPasswordTokenTTL)
}

func (s *TokenService) GenerateVerifyEmailToken(ctx context.Context, userUUID string) (*model.IssuedToken, error) {
	return s.issue(ctx, userUUID, model.TokenTypeVerifyEmail, s.cfg.VerifyEmailTokenTTL)
}

func (s *TokenService) issue(ctx context.Context, userUUID string, tokenType model.TokenType, ttl time.Duration) (*model.IssuedToken, error) {
	raw, token, err := s.codec.Mint(userUUID, tokenType, ttl)
	if err != nil {
		return nil, fmt.Errorf("ошибка выпуска %s токена: %w", tokenType, err)
	}

	if tokenType.Persisted() {
		if _, err := s.repo.Save(ctx, token); err != nil {
			return nil, fmt.Errorf("не удалось сохранить %s токен: %w", tokenType, err)
		}
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(tokenType)).Inc()
	s.logger.Debug(ctx, "токен выпущен", "type", tokenType, "user_uuid", userUUID, "token_uuid", token.UUID)

	return &model.IssuedToken{Token: raw, Expires: token.ExpiresAt}, nil
}

// VerifyToken : подпись и срок проверяются до обращения к хранилищу, поэтому
// просроченный, но еще не удаленный токен дает ErrTokenExpired, а не ErrNotFound.
func (s *TokenService) VerifyToken(ctx context.Context, raw string, expected model.TokenType) (*model.Token, error) {
	token, err := s.verify(ctx, raw, expected)
	metrics.TokenVerificationsTotal.WithLabelValues(string(expected), metrics.ResultLabel(err)).Inc()
	return token, err
}

func (s *TokenService) verify(ctx context.Context, raw string, expected model.TokenType) (*model.Token, error) {
	decoded, err := s.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	if decoded.Type != expected {
		return nil, fmt.Errorf("%w: ожидался %s, получен %s", common.ErrWrongTokenType, expected, decoded.Type)
	}

	if !expected.Persisted() {
		return decoded, nil
	}

	stored, err := s.repo.FindActive(ctx, decoded.UUID, expected)
	if err != nil {
		return nil, err
	}
	if stored.UserUUID != decoded.UserUUID {
		return nil, fmt.Errorf("%w: запись токена %s принадлежит другому пользователю", common.ErrNotFound, decoded.UUID)
	}

	return stored, nil
}

// ConsumeRefreshToken удаляет refresh-токен и возвращает владельца.
// Повторное использование того же токена, в том числе параллельное, дает ErrNotFound.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, raw string) (string, error) {
	token, err := s.VerifyToken(ctx, raw, model.TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	if err := s.repo.DeleteByID(ctx, token.UUID); err != nil {
		return "", err
	}

	metrics.TokensRevokedTotal.WithLabelValues(string(model.TokenTypeRefresh), "consumed").Inc()
	return token.UserUUID, nil
}

// ConsumeSingleUseToken гасит предъявленный reset/verify токен и все остальные токены
// того же типа у пользователя. Удаление самого токена условное, поэтому из двух
// параллельных потребителей успешен ровно один.
func (s *TokenService) ConsumeSingleUseToken(ctx context.Context, raw string, tokenType model.TokenType) (string, error) {
	if !tokenType.SingleUse() {
		return "", fmt.Errorf("%w: %s не является одноразовым", common.ErrWrongTokenType, tokenType)
	}

	token, err := s.VerifyToken(ctx, raw, tokenType)
	if err != nil {
		return "", err
	}

	if err := s.repo.DeleteByID(ctx, token.UUID); err != nil {
		return "", err
	}

	siblings, err := s.repo.DeleteAllByScope(ctx, token.UserUUID, tokenType)
	if err != nil {
		return "", fmt.Errorf("не удалось удалить остальные %s токены: %w", tokenType, err)
	}

	metrics.TokensRevokedTotal.WithLabelValues(string(tokenType), "consumed").Add(float64(siblings + 1))
	s.logger.Debug(ctx, "одноразовый токен использован", "type", tokenType, "user_uuid", token.UserUUID, "siblings", siblings)

	return token.UserUUID, nil
}

// RevokeRefreshToken : выход из сессии. Уже невалидный токен дает ошибку, а не тихий успех.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, raw string) error {
	token, err := s.VerifyToken(ctx, raw, model.TokenTypeRefresh)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, token.UUID); err != nil {
		return err
	}

	metrics.TokensRevokedTotal.WithLabelValues(string(model.TokenTypeRefresh), "logout").Inc()
	return nil
}

// BlacklistToken навсегда блокирует persisted-токен владельца
func (s *TokenService) BlacklistToken(ctx context.Context, raw string, tokenType model.TokenType, ownerUUID string) error {
	if !tokenType.Persisted() {
		return fmt.Errorf("%w: %s не хранится и не может быть заблокирован", common.ErrWrongTokenType, tokenType)
	}

	token, err := s.VerifyToken(ctx, raw, tokenType)
	if err != nil {
		return err
	}

	if token.UserUUID != ownerUUID {
		return fmt.Errorf("%w: токен принадлежит другому пользователю", common.ErrForbidden)
	}

	if err := s.repo.Blacklist(ctx, token.UUID); err != nil {
		return err
	}

	metrics.TokensRevokedTotal.WithLabelValues(string(tokenType), "blacklisted").Inc()
	return nil
}
