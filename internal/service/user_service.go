package service

import (
	"context"
	"errors"
	"fmt"
	"identity-token-service/internal/common"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/model"
	"identity-token-service/internal/ports"
)

const defaultSyllabus = "CAPS"

type UserService struct {
	users  ports.UserRepository
	tokens ports.TokenService
	hasher ports.PasswordHasher
	logger logging.Logger
}

func NewUserService(users ports.UserRepository, tokens ports.TokenService, hasher ports.PasswordHasher, logger logging.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: logger.With("component", "user_service"),
	}
}

// Register создает пользователя и сразу выдает ему пару токенов
func (s *UserService) Register(ctx context.Context, user *model.User, password string) (created *model.User, tokens *model.AuthTokens, err error) {
	defer observe("register", &err)

	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Syllabus == "" {
		user.Syllabus = defaultSyllabus
	}

	user.PasswordHash, err = s.hasher.Hash(password)
	if err != nil {
		return nil, nil, err
	}

	created, err = s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	tokens, err = s.tokens.GenerateAuthTokens(ctx, created.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("пользователь создан, но токены не выпущены: %w", err)
	}

	s.logger.Info(ctx, "пользователь зарегистрирован", "user_uuid", created.UUID)
	return created, tokens, nil
}

// GetUser : пользователь видит только себя, администратор - любого
func (s *UserService) GetUser(ctx context.Context, requesterUUID, targetUUID string) (*model.User, error) {
	if requesterUUID != targetUUID {
		requester, err := s.users.FindByUUID(ctx, requesterUUID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrForbidden
			}
			return nil, err
		}
		if requester.Role != model.RoleAdmin {
			return nil, common.ErrForbidden
		}
	}

	return s.users.FindByUUID(ctx, targetUUID)
}
