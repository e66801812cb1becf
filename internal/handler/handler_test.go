package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"identity-token-service/internal/common"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/model"
	"identity-token-service/internal/model/requestresponse"
	"identity-token-service/internal/security"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*model.AuthTokens, error) {
	args := m.Called(ctx, refreshToken)
	if t, ok := args.Get(0).(*model.AuthTokens); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return m.Called(ctx, resetToken, newPassword).Error(0)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, verifyToken string) error {
	return m.Called(ctx, verifyToken).Error(0)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) SendVerificationEmail(ctx context.Context, userUUID string) error {
	return m.Called(ctx, userUUID).Error(0)
}

func (m *MockAuthService) BlacklistToken(ctx context.Context, ownerUUID, raw string, tokenType model.TokenType) error {
	return m.Called(ctx, ownerUUID, raw, tokenType).Error(0)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAuthTokens(ctx context.Context, userUUID string) (*model.AuthTokens, error) {
	args := m.Called(ctx, userUUID)
	if t, ok := args.Get(0).(*model.AuthTokens); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) GenerateResetPasswordToken(ctx context.Context, userUUID string) (*model.IssuedToken, error) {
	args := m.Called(ctx, userUUID)
	if t, ok := args.Get(0).(*model.IssuedToken); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) GenerateVerifyEmailToken(ctx context.Context, userUUID string) (*model.IssuedToken, error) {
	args := m.Called(ctx, userUUID)
	if t, ok := args.Get(0).(*model.IssuedToken); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) VerifyToken(ctx context.Context, raw string, expected model.TokenType) (*model.Token, error) {
	args := m.Called(ctx, raw, expected)
	if t, ok := args.Get(0).(*model.Token); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) ConsumeRefreshToken(ctx context.Context, raw string) (string, error) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ConsumeSingleUseToken(ctx context.Context, raw string, tokenType model.TokenType) (string, error) {
	args := m.Called(ctx, raw, tokenType)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, raw string) error {
	return m.Called(ctx, raw).Error(0)
}

func (m *MockTokenService) BlacklistToken(ctx context.Context, raw string, tokenType model.TokenType, ownerUUID string) error {
	return m.Called(ctx, raw, tokenType, ownerUUID).Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, user *model.User, password string) (*model.User, *model.AuthTokens, error) {
	args := m.Called(ctx, user, password)
	u, _ := args.Get(0).(*model.User)
	t, _ := args.Get(1).(*model.AuthTokens)
	return u, t, args.Error(2)
}

func (m *MockUserService) GetUser(ctx context.Context, requesterUUID, targetUUID string) (*model.User, error) {
	args := m.Called(ctx, requesterUUID, targetUUID)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== FIXTURE =====

type handlerFixture struct {
	router *chi.Mux
	auth   *MockAuthService
	tokens *MockTokenService
	users  *MockUserService
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		auth:   &MockAuthService{},
		tokens: &MockTokenService{},
		users:  &MockUserService{},
	}

	authHandler := NewAuthenticationHandler(f.auth, f.tokens, f.users, logging.Discard())
	userHandler := NewUserHandler(f.users, logging.Discard())

	f.router = chi.NewRouter()
	Routes(f.router, authHandler, userHandler, security.JWTMiddleware(f.tokens, logging.Discard()))
	return f
}

func (f *handlerFixture) do(method, target string, body interface{}, accessToken string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// authorize настраивает мок так, что accessToken принадлежит userUUID
func (f *handlerFixture) authorize(accessToken, userUUID string) {
	f.tokens.On("VerifyToken", mock.Anything, accessToken, model.TokenTypeAccess).
		Return(&model.Token{UUID: "jti", UserUUID: userUUID, Type: model.TokenTypeAccess}, nil)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) requestresponse.ErrorResponse {
	t.Helper()
	var resp requestresponse.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

var testTokens = &model.AuthTokens{
	Access:  model.IssuedToken{Token: "access", Expires: time.Now().Add(30 * time.Minute)},
	Refresh: model.IssuedToken{Token: "refresh", Expires: time.Now().Add(720 * time.Hour)},
}

// ===== TESTS =====

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture()
		f.users.On("Register", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Email == "jane@example.com" && u.FirstName == "Jane"
		}), "StrongPass123").Return(&model.User{UUID: "u1", Email: "jane@example.com"}, testTokens, nil)

		rec := f.do(http.MethodPost, "/api/auth/register", requestresponse.RegisterRequest{
			Email: "jane@example.com", Password: "StrongPass123", FirstName: "Jane", LastName: "Doe",
			Grade: "GRADE_10", Province: "GAUTENG",
		}, "")

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp requestresponse.AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "u1", resp.User.UUID)
		assert.Equal(t, "refresh", resp.Tokens.Refresh.Token)
	})

	t.Run("weak password", func(t *testing.T) {
		f := newHandlerFixture()
		rec := f.do(http.MethodPost, "/api/auth/register", requestresponse.RegisterRequest{
			Email: "jane@example.com", Password: "password", FirstName: "Jane", LastName: "Doe",
			Grade: "GRADE_10", Province: "GAUTENG",
		}, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		f := newHandlerFixture()
		f.users.On("Register", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil, common.ErrEmailTaken)

		rec := f.do(http.MethodPost, "/api/auth/register", requestresponse.RegisterRequest{
			Email: "jane@example.com", Password: "StrongPass123", FirstName: "Jane", LastName: "Doe",
			Grade: "GRADE_10", Province: "GAUTENG",
		}, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email already taken", decodeError(t, rec).Message)
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newHandlerFixture()
		f.auth.On("Login", mock.Anything, "jane@example.com", "StrongPass123").Return(&model.User{UUID: "u1"}, nil)
		f.tokens.On("GenerateAuthTokens", mock.Anything, "u1").Return(testTokens, nil)

		rec := f.do(http.MethodPost, "/api/auth/login", requestresponse.LoginRequest{Email: "jane@example.com", Password: "StrongPass123"}, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		f.tokens.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		f := newHandlerFixture()
		f.auth.On("Login", mock.Anything, "jane@example.com", "nope").Return(nil, common.ErrInvalidCredentials)

		rec := f.do(http.MethodPost, "/api/auth/login", requestresponse.LoginRequest{Email: "jane@example.com", Password: "nope"}, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Incorrect email or password", resp.Message)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("infrastructure", func(t *testing.T) {
		f := newHandlerFixture()
		f.auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		rec := f.do(http.MethodPost, "/api/auth/login", requestresponse.LoginRequest{Email: "jane@example.com", Password: "x"}, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newHandlerFixture()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	f := newHandlerFixture()
	f.auth.On("Logout", mock.Anything, "good").Return(nil)
	f.auth.On("Logout", mock.Anything, "gone").Return(common.ErrNotFound)

	rec := f.do(http.MethodPost, "/api/auth/logout", requestresponse.RefreshTokenRequest{RefreshToken: "good"}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/logout", requestresponse.RefreshTokenRequest{RefreshToken: "gone"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeError(t, rec).Message)
}

func TestRefreshTokens(t *testing.T) {
	f := newHandlerFixture()
	f.auth.On("Refresh", mock.Anything, "good").Return(testTokens, nil)
	f.auth.On("Refresh", mock.Anything, "used").Return(nil, common.ErrUnauthenticated)
	f.auth.On("Refresh", mock.Anything, "redis-down").Return(nil, errors.New("refresh: dial tcp: refused"))

	rec := f.do(http.MethodPost, "/api/auth/refresh-tokens", requestresponse.RefreshTokenRequest{RefreshToken: "good"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var tokens model.AuthTokens
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tokens))
	assert.Equal(t, "access", tokens.Access.Token)

	rec = f.do(http.MethodPost, "/api/auth/refresh-tokens", requestresponse.RefreshTokenRequest{RefreshToken: "used"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please authenticate", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, "/api/auth/refresh-tokens", requestresponse.RefreshTokenRequest{RefreshToken: "redis-down"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestForgotPassword(t *testing.T) {
	f := newHandlerFixture()
	f.auth.On("ForgotPassword", mock.Anything, "nobody@example.com").Return(nil)

	rec := f.do(http.MethodPost, "/api/auth/forgot-password", requestresponse.ForgotPasswordRequest{Email: "nobody@example.com"}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/forgot-password", requestresponse.ForgotPasswordRequest{Email: "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPassword(t *testing.T) {
	f := newHandlerFixture()
	f.auth.On("ResetPassword", mock.Anything, "good", "NewPass456").Return(nil)
	f.auth.On("ResetPassword", mock.Anything, "used", "NewPass456").Return(common.ErrUnauthenticated)

	body := requestresponse.ResetPasswordRequest{Password: "NewPass456"}

	rec := f.do(http.MethodPost, "/api/auth/reset-password?token=good", body, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/reset-password?token=used", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Password reset failed", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, "/api/auth/reset-password", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmail(t *testing.T) {
	f := newHandlerFixture()
	f.auth.On("VerifyEmail", mock.Anything, "good").Return(nil)
	f.auth.On("VerifyEmail", mock.Anything, "bad").Return(common.ErrUnauthenticated)

	rec := f.do(http.MethodPost, "/api/auth/verify-email?token=good", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/verify-email?token=bad", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email verification failed", decodeError(t, rec).Message)
}

func TestSendVerificationEmail(t *testing.T) {
	f := newHandlerFixture()
	f.authorize("access-u1", "u1")
	f.auth.On("SendVerificationEmail", mock.Anything, "u1").Return(nil)

	rec := f.do(http.MethodPost, "/api/auth/send-verification-email", nil, "access-u1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/send-verification-email", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutes_RejectBadAccessToken(t *testing.T) {
	f := newHandlerFixture()
	f.tokens.On("VerifyToken", mock.Anything, "expired", model.TokenTypeAccess).Return(nil, common.ErrTokenExpired)
	f.tokens.On("VerifyToken", mock.Anything, "refresh-as-access", model.TokenTypeAccess).Return(nil, common.ErrWrongTokenType)

	for _, token := range []string{"expired", "refresh-as-access"} {
		rec := f.do(http.MethodGet, "/api/auth/me", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, token)
	}
}

func TestGetCurrentUser(t *testing.T) {
	f := newHandlerFixture()
	f.authorize("access-u1", "u1")
	f.users.On("GetUser", mock.Anything, "u1", "u1").Return(&model.User{UUID: "u1", Email: "jane@example.com"}, nil)

	rec := f.do(http.MethodGet, "/api/auth/me", nil, "access-u1")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp requestresponse.CurrentUserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "jane@example.com", resp.User.Email)
}

func TestBlacklistToken(t *testing.T) {
	f := newHandlerFixture()
	f.authorize("access-u1", "u1")
	f.auth.On("BlacklistToken", mock.Anything, "u1", "mine", model.TokenTypeRefresh).Return(nil)
	f.auth.On("BlacklistToken", mock.Anything, "u1", "theirs", model.TokenTypeRefresh).Return(common.ErrForbidden)
	f.auth.On("BlacklistToken", mock.Anything, "u1", "gone", model.TokenTypeRefresh).Return(common.ErrNotFound)

	tests := []struct {
		token string
		code  int
	}{
		{"mine", http.StatusNoContent},
		{"theirs", http.StatusForbidden},
		{"gone", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/auth/tokens/blacklist",
				requestresponse.BlacklistTokenRequest{Token: tt.token, Type: model.TokenTypeRefresh}, "access-u1")
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := f.do(http.MethodPost, "/api/auth/tokens/blacklist",
		requestresponse.BlacklistTokenRequest{Token: "x", Type: model.TokenTypeAccess}, "access-u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUser(t *testing.T) {
	const (
		self    = "4f9c1c2e-8a3b-4d6e-9f10-2b7c5d8e1a01"
		other   = "7d2e6b1a-3c4f-4a5b-8c9d-0e1f2a3b4c02"
		missing = "a1b2c3d4-e5f6-4789-8abc-def012345603"
	)

	f := newHandlerFixture()
	f.authorize("access-self", self)
	f.users.On("GetUser", mock.Anything, self, self).Return(&model.User{UUID: self}, nil)
	f.users.On("GetUser", mock.Anything, self, other).Return(nil, common.ErrForbidden)
	f.users.On("GetUser", mock.Anything, self, missing).Return(nil, common.ErrNotFound)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/users/"+self, nil, "access-self").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/users/"+other, nil, "access-self").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/users/"+missing, nil, "access-self").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/users/"+self, nil, "").Code)
}

func TestGetUser_MalformedUUID(t *testing.T) {
	f := newHandlerFixture()
	f.authorize("access-self", "4f9c1c2e-8a3b-4d6e-9f10-2b7c5d8e1a01")

	for _, target := range []string{"ghost", "123", "4f9c1c2e-8a3b-4d6e-9f10"} {
		rec := f.do(http.MethodGet, "/api/users/"+target, nil, "access-self")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
	f.users.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything, mock.Anything)
}
