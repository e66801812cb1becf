package service_test

import (
	"context"
	"fmt"
	"identity-token-service/config"
	"identity-token-service/internal/common"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/model"
	"identity-token-service/internal/repository"
	"identity-token-service/internal/security"
	"identity-token-service/internal/service"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

var testJWTConfig = config.JWTConfig{
	SecretKey:             "test-secret-key-that-is-long-enough-for-hs512",
	Issuer:                "identity-token-service",
	AccessTokenTTL:        30 * time.Minute,
	RefreshTokenTTL:       30 * 24 * time.Hour,
	ResetPasswordTokenTTL: 10 * time.Minute,
	VerifyEmailTokenTTL:   10 * time.Minute,
}

type engineFixture struct {
	tokens *service.TokenService
	store  *repository.RedisTokenRepository
	clock  *security.ManualClock
	redis  *miniredis.Miniredis
}

func newEngine(t *testing.T) *engineFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := security.NewManualClock(time.Now())
	codec := security.NewTokenCodec([]byte(testJWTConfig.SecretKey), testJWTConfig.Issuer, clock)
	store := repository.NewRedisTokenRepository(&config.RedisClient{Client: client}, time.Hour)
	cfg := testJWTConfig

	return &engineFixture{
		tokens: service.NewTokenService(codec, store, &cfg, logging.Discard()),
		store:  store,
		clock:  clock,
		redis:  mr,
	}
}

// memoryUserRepository : потокобезопасная реализация ports.UserRepository в памяти
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*model.User)}
}

func (r *memoryUserRepository) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("%s: %w", user.Email, common.ErrEmailTaken)
		}
	}

	created := *user
	if created.UUID == "" {
		created.UUID = uuid.New().String()
	}
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	r.users[created.UUID] = &created

	out := created
	return &out, nil
}

func (r *memoryUserRepository) FindByUUID(_ context.Context, userUUID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userUUID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memoryUserRepository) UpdatePassword(_ context.Context, userUUID, newPasswordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userUUID]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	return nil
}

func (r *memoryUserRepository) SetEmailVerified(_ context.Context, userUUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userUUID]
	if !ok {
		return common.ErrNotFound
	}
	u.IsEmailVerified = true
	return nil
}

func (r *memoryUserRepository) delete(userUUID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userUUID)
}

// ===== MOCKS =====

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notification *model.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, userUUID string) (*model.User, error) {
	args := m.Called(ctx, userUUID)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userUUID, newPasswordHash string) error {
	args := m.Called(ctx, userUUID, newPasswordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetEmailVerified(ctx context.Context, userUUID string) error {
	args := m.Called(ctx, userUUID)
	return args.Error(0)
}

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(hash, password string) bool {
	args := m.Called(hash, password)
	return args.Bool(0)
}

type authFixture struct {
	*engineFixture
	auth     *service.AuthenticationService
	users    *service.UserService
	repo     *memoryUserRepository
	notifier *MockNotifier
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	engine := newEngine(t)
	repo := newMemoryUserRepository()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	notifier := &MockNotifier{}

	return &authFixture{
		engineFixture: engine,
		auth:          service.NewAuthenticationService(engine.tokens, repo, hasher, notifier, logging.Discard()),
		users:         service.NewUserService(repo, engine.tokens, hasher, logging.Discard()),
		repo:          repo,
		notifier:      notifier,
	}
}

func (f *authFixture) register(t *testing.T, email, password string) (*model.User, *model.AuthTokens) {
	t.Helper()
	user, tokens, err := f.users.Register(context.Background(), &model.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Grade:     "GRADE_10",
		Province:  "GAUTENG",
	}, password)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user, tokens
}

// captureNotification настраивает мок так, чтобы вернуть отправленное уведомление
func (f *authFixture) captureNotification(kind model.NotificationKind) *model.Notification {
	captured := &model.Notification{}
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.Kind == kind
	})).Run(func(args mock.Arguments) {
		*captured = *args.Get(1).(*model.Notification)
	}).Return(nil).Once()
	return captured
}
