package security

import (
	"context"
	"identity-token-service/internal/common"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/model"
	"identity-token-service/internal/util"
	"net/http"
	"strings"
)

type contextKey string

const (
	TokenContextKey contextKey = "access_token"
)

// AccessVerifier : проверка access-токена, реализуется service.TokenService
type AccessVerifier interface {
	VerifyToken(ctx context.Context, raw string, expected model.TokenType) (*model.Token, error)
}

func JWTMiddleware(verifier AccessVerifier, logger logging.Logger) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authorizationHeader := request.Header.Get("Authorization")
			if !strings.HasPrefix(authorizationHeader, "Bearer ") {
				util.HandleError(writer, "Please authenticate", http.StatusUnauthorized)
				return
			}

			raw := strings.TrimSpace(strings.TrimPrefix(authorizationHeader, "Bearer "))

			token, err := verifier.VerifyToken(request.Context(), raw, model.TokenTypeAccess)
			if err != nil {
				if common.IsTokenFailure(err) {
					logger.Info(request.Context(), "access токен отклонен", "error", err)
					util.HandleError(writer, "Please authenticate", http.StatusUnauthorized)
					return
				}
				logger.Error(request.Context(), "ошибка проверки access токена", "error", err)
				util.HandleError(writer, "внутренняя ошибка сервера", http.StatusInternalServerError)
				return
			}

			req := request.WithContext(context.WithValue(request.Context(), TokenContextKey, token))
			next.ServeHTTP(writer, req)
		})
	}
}

// GetAccessTokenFromContext возвращает access-токен, положенный JWTMiddleware
func GetAccessTokenFromContext(ctx context.Context) (*model.Token, error) {
	token, ok := ctx.Value(TokenContextKey).(*model.Token)
	if !ok || token == nil {
		return nil, common.ErrUnauthenticated
	}
	return token, nil
}

// WithAccessToken кладет токен в контекст так же, как это делает JWTMiddleware
func WithAccessToken(ctx context.Context, token *model.Token) context.Context {
	return context.WithValue(ctx, TokenContextKey, token)
}
