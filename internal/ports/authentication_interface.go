package ports

import (
	"context"
	"identity-token-service/internal/model"
)

type AuthenticationService interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*model.AuthTokens, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	VerifyEmail(ctx context.Context, verifyToken string) error
	ForgotPassword(ctx context.Context, email string) error
	SendVerificationEmail(ctx context.Context, userUUID string) error
	BlacklistToken(ctx context.Context, ownerUUID, raw string, tokenType model.TokenType) error
}

// PasswordHasher : одностороннее хэширование и проверка пароля
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// Notifier доставляет письма со ссылками, содержащими токен
type Notifier interface {
	Notify(ctx context.Context, notification *model.Notification) error
}
