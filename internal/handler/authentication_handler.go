package handler

import (
	"errors"
	"identity-token-service/internal/common"
	"identity-token-service/internal/logging"
	"identity-token-service/internal/model/requestresponse"
	"identity-token-service/internal/ports"
	"identity-token-service/internal/security"
	"identity-token-service/internal/util"
	"net/http"
)

type AuthenticationHandler struct {
	auth   ports.AuthenticationService
	tokens ports.TokenService
	users  ports.UserService
	logger logging.Logger
}

func NewAuthenticationHandler(
	auth ports.AuthenticationService,
	tokens ports.TokenService,
	users ports.UserService,
	logger logging.Logger,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		auth:   auth,
		tokens: tokens,
		users:  users,
		logger: logger.With("component", "authentication_handler"),
	}
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Description Создает пользователя и сразу выдает пару access/refresh токенов
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.AuthResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректное тело или email уже занят"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, tokens, err := h.users.Register(r.Context(), req.ToModel(), req.Password)
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			util.HandleError(w, "Email already taken", http.StatusBadRequest)
			return
		}
		h.internalError(w, r, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, requestresponse.AuthResponse{User: user, Tokens: tokens})
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Проверяет email и пароль, выдает пару токенов
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.AuthResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse "Incorrect email or password"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			util.HandleError(w, "Incorrect email or password", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, "login", err)
		return
	}

	tokens, err := h.tokens.GenerateAuthTokens(r.Context(), user.UUID)
	if err != nil {
		h.internalError(w, r, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.AuthResponse{User: user, Tokens: tokens})
}

// Logout godoc
// @Summary Завершение сессии
// @Description Удаляет refresh-токен из хранилища
// @Tags Authentication
// @Accept json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 204
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse "Not found"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			util.HandleError(w, "Not found", http.StatusNotFound)
			return
		}
		h.internalError(w, r, "logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshTokens godoc
// @Summary Обновление токенов
// @Description Гасит refresh-токен и выдает новую пару
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} model.AuthTokens
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse "Please authenticate"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/refresh-tokens [post]
func (h *AuthenticationHandler) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			util.HandleError(w, "Please authenticate", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, "refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// ForgotPassword godoc
// @Summary Запрос на сброс пароля
// @Description Отправляет письмо с токеном сброса. Для неизвестного email ответ тот же.
// @Tags Authentication
// @Accept json
// @Param body body requestresponse.ForgotPasswordRequest true "Тело запроса"
// @Success 204
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/forgot-password [post]
func (h *AuthenticationHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.ForgotPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		h.internalError(w, r, "forgot_password", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword godoc
// @Summary Сброс пароля
// @Description Меняет пароль по токену из письма. Все reset-токены пользователя гасятся.
// @Tags Authentication
// @Accept json
// @Param token query string true "Reset-токен"
// @Param body body requestresponse.ResetPasswordRequest true "Тело запроса"
// @Success 204
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse "Password reset failed"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/reset-password [post]
func (h *AuthenticationHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		util.HandleError(w, "token is required", http.StatusBadRequest)
		return
	}

	var req requestresponse.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), token, req.Password); err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			util.HandleError(w, "Password reset failed", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, "reset_password", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendVerificationEmail godoc
// @Summary Отправка письма подтверждения
// @Description Выпускает verify-токен для текущего пользователя и отправляет его
// @Tags Authentication
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 204
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/send-verification-email [post]
func (h *AuthenticationHandler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	access, err := security.GetAccessTokenFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "Please authenticate", http.StatusUnauthorized)
		return
	}

	if err := h.auth.SendVerificationEmail(r.Context(), access.UserUUID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			util.HandleError(w, "Please authenticate", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, "send_verification_email", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyEmail godoc
// @Summary Подтверждение email
// @Tags Authentication
// @Param token query string true "Verify-токен"
// @Success 204
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse "Email verification failed"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/verify-email [post]
func (h *AuthenticationHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		util.HandleError(w, "token is required", http.StatusBadRequest)
		return
	}

	if err := h.auth.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			util.HandleError(w, "Email verification failed", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, "verify_email", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentUser godoc
// @Summary Текущий пользователь
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	access, err := security.GetAccessTokenFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "Please authenticate", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUser(r.Context(), access.UserUUID, access.UserUUID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			util.HandleError(w, "Please authenticate", http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, "me", err)
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.CurrentUserResponse{User: user})
}

// BlacklistToken godoc
// @Summary Блокировка токена
// @Description Владелец блокирует свой refresh, reset или verify токен навсегда
// @Tags Authentication
// @Accept json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param body body requestresponse.BlacklistTokenRequest true "Тело запроса"
// @Success 204
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/tokens/blacklist [post]
func (h *AuthenticationHandler) BlacklistToken(w http.ResponseWriter, r *http.Request) {
	access, err := security.GetAccessTokenFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "Please authenticate", http.StatusUnauthorized)
		return
	}

	var req requestresponse.BlacklistTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err = h.auth.BlacklistToken(r.Context(), access.UserUUID, req.Token, req.Type)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrForbidden):
		util.HandleError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, common.ErrNotFound):
		util.HandleError(w, "Not found", http.StatusNotFound)
	default:
		h.internalError(w, r, "blacklist", err)
	}
}

func (h *AuthenticationHandler) internalError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.logger.Error(r.Context(), operation+": внутренняя ошибка", "error", err)
	util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
}
