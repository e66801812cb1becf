package ports

import (
	"context"
	"identity-token-service/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, userUUID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userUUID, newPasswordHash string) error
	SetEmailVerified(ctx context.Context, userUUID string) error
}

type UserService interface {
	Register(ctx context.Context, user *model.User, password string) (*model.User, *model.AuthTokens, error)
	GetUser(ctx context.Context, requesterUUID, targetUUID string) (*model.User, error)
}
