package service

import (
	"context"
	"errors"
	"fmt"
	"identity-token-service/internal/common"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/metrics"
	"identity-token-service/internal/model"
	"identity-token-service/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
)

// dummyPassword хэшируется один раз и проверяется, когда email не найден,
// чтобы время ответа не выдавало существование аккаунта.
const dummyPassword = "dummy-password-for-unknown-accounts"

type AuthenticationService struct {
	tokens   ports.TokenService
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	notifier ports.Notifier
	logger   logging.Logger

	dummyHash string
}

func NewAuthenticationService(
	tokens ports.TokenService,
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	notifier ports.Notifier,
	logger logging.Logger,
) *AuthenticationService {
	s := &AuthenticationService{
		tokens:   tokens,
		users:    users,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger.With("component", "authentication_service"),
	}

	// хэш готов до первого запроса, иначе первый вход с неизвестным email
	// считал бы bcrypt дважды
	hash, err := hasher.Hash(dummyPassword)
	if err != nil {
		s.logger.Error(context.Background(), "не удалось подготовить dummy-хэш", "error", err)
	}
	s.dummyHash = hash

	return s
}

// Login проверяет email и пароль. Неизвестный email и неверный пароль
// неотличимы для вызывающего: оба дают common.ErrInvalidCredentials.
func (s *AuthenticationService) Login(ctx context.Context, email, password string) (user *model.User, err error) {
	defer observe("login", &err)

	user, err = s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
		}
		s.hasher.Verify(s.dummyHash, password)
		s.logger.Info(ctx, "вход с неизвестным email")
		return nil, common.ErrInvalidCredentials
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.Info(ctx, "неверный пароль", "user_uuid", user.UUID)
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// Logout гасит refresh-токен. Повторный logout тем же токеном дает common.ErrNotFound.
func (s *AuthenticationService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer observe("logout", &err)

	if err = s.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		if common.IsTokenFailure(err) {
			s.logger.Info(ctx, "logout: токен отклонен", "error", err)
			return common.ErrNotFound
		}
		return fmt.Errorf("ошибка выхода: %w", err)
	}

	return nil
}

// Refresh : ротация refresh-токена. Причина отказа наружу не выдается.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (tokens *model.AuthTokens, err error) {
	defer observe("refresh", &err)

	userUUID, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, s.collapse(ctx, "refresh", err)
	}

	tokens, err = s.tokens.GenerateAuthTokens(ctx, userUUID)
	if err != nil {
		return nil, s.collapse(ctx, "refresh", err)
	}

	return tokens, nil
}

// ResetPassword гасит все reset-токены пользователя и меняет пароль.
// Пароль хэшируется до использования токена: отвергнутый пароль токен не сжигает.
func (s *AuthenticationService) ResetPassword(ctx context.Context, resetToken, newPassword string) (err error) {
	defer observe("reset_password", &err)

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Warn(ctx, "reset_password: не удалось захэшировать пароль", "error", err)
		return common.ErrUnauthenticated
	}

	userUUID, err := s.tokens.ConsumeSingleUseToken(ctx, resetToken, model.TokenTypeResetPassword)
	if err != nil {
		return s.collapse(ctx, "reset_password", err)
	}

	user, err := s.users.FindByUUID(ctx, userUUID)
	if err != nil {
		return s.collapse(ctx, "reset_password", err)
	}

	if err := s.users.UpdatePassword(ctx, user.UUID, hash); err != nil {
		return s.collapse(ctx, "reset_password", err)
	}

	s.logger.Info(ctx, "пароль изменен", "user_uuid", user.UUID)
	return nil
}

// VerifyEmail гасит все verify-токены пользователя и отмечает email подтвержденным
func (s *AuthenticationService) VerifyEmail(ctx context.Context, verifyToken string) (err error) {
	defer observe("verify_email", &err)

	userUUID, err := s.tokens.ConsumeSingleUseToken(ctx, verifyToken, model.TokenTypeVerifyEmail)
	if err != nil {
		return s.collapse(ctx, "verify_email", err)
	}

	if err := s.users.SetEmailVerified(ctx, userUUID); err != nil {
		return s.collapse(ctx, "verify_email", err)
	}

	s.logger.Info(ctx, "email подтвержден", "user_uuid", userUUID)
	return nil
}

// ForgotPassword выпускает reset-токен и отправляет его. Ответ не зависит от того,
// есть ли такой email: сбой выпуска или доставки только логируется.
// Недоступность хранилища пользователей ошибка для любого email.
func (s *AuthenticationService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer observe("forgot_password", &err)

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info(ctx, "forgot_password: email не найден")
			return nil
		}
		return fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if err := s.sendResetToken(ctx, user); err != nil {
		s.logger.Error(ctx, "forgot_password: письмо не отправлено", "user_uuid", user.UUID, "error", err)
		metrics.AuthOperationsTotal.WithLabelValues("forgot_password_delivery", metrics.ResultLabel(err)).Inc()
	}

	return nil
}

func (s *AuthenticationService) sendResetToken(ctx context.Context, user *model.User) error {
	issued, err := s.tokens.GenerateResetPasswordToken(ctx, user.UUID)
	if err != nil {
		return err
	}

	return s.notify(ctx, model.NotificationResetPassword, user, issued)
}

func (s *AuthenticationService) SendVerificationEmail(ctx context.Context, userUUID string) (err error) {
	defer observe("send_verification_email", &err)

	user, err := s.users.FindByUUID(ctx, userUUID)
	if err != nil {
		return err
	}

	issued, err := s.tokens.GenerateVerifyEmailToken(ctx, user.UUID)
	if err != nil {
		return err
	}

	return s.notify(ctx, model.NotificationVerifyEmail, user, issued)
}

// BlacklistToken : отказ проверки токена наружу выглядит как common.ErrNotFound
func (s *AuthenticationService) BlacklistToken(ctx context.Context, ownerUUID, raw string, tokenType model.TokenType) (err error) {
	defer observe("blacklist", &err)

	if err = s.tokens.BlacklistToken(ctx, raw, tokenType, ownerUUID); err != nil {
		if common.IsTokenFailure(err) {
			s.logger.Info(ctx, "blacklist: токен отклонен", "error", err)
			return common.ErrNotFound
		}
		return err
	}

	s.logger.Info(ctx, "токен заблокирован", "user_uuid", ownerUUID, "type", tokenType)
	return nil
}

func (s *AuthenticationService) notify(ctx context.Context, kind model.NotificationKind, user *model.User, issued *model.IssuedToken) error {
	notification := &model.Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		UserUUID:  user.UUID,
		Email:     user.Email,
		Token:     issued.Token,
		ExpiresAt: issued.Expires,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.notifier.Notify(ctx, notification); err != nil {
		return fmt.Errorf("не удалось отправить уведомление %s: %w", kind, err)
	}
	return nil
}

// collapse : ошибки проверки токена и отсутствующий аккаунт превращаются в
// common.ErrUnauthenticated, точная причина остается только в логе.
// Инфраструктурные ошибки не сворачиваются.
func (s *AuthenticationService) collapse(ctx context.Context, operation string, err error) error {
	if common.IsTokenFailure(err) {
		s.logger.Info(ctx, operation+": токен отклонен", "error", err)
		return common.ErrUnauthenticated
	}

	s.logger.Error(ctx, operation+": внутренняя ошибка", "error", err)
	return fmt.Errorf("%s: %w", operation, err)
}

func observe(operation string, err *error) {
	metrics.AuthOperationsTotal.WithLabelValues(operation, metrics.ResultLabel(*err)).Inc()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
