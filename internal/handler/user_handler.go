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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UserHandler struct {
	users  ports.UserService
	logger logging.Logger
}

func NewUserHandler(users ports.UserService, logger logging.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger.With("component", "user_handler")}
}

// GetUser godoc
// @Summary Получение информации о пользователе
// @Description Возвращает данные пользователя. Доступен самому пользователю и администратору.
// @Tags Users
// @Produce json
// @Param uuid path string true "UUID пользователя"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.UserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/users/{uuid} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	access, err := security.GetAccessTokenFromContext(r.Context())
	if err != nil {
		util.HandleError(w, "Please authenticate", http.StatusUnauthorized)
		return
	}

	// строка не UUID: такого пользователя нет, в Postgres не ходим
	target := chi.URLParam(r, "uuid")
	if _, err := uuid.Parse(target); err != nil {
		util.HandleError(w, "User not found", http.StatusNotFound)
		return
	}

	user, err := h.users.GetUser(r.Context(), access.UserUUID, target)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrForbidden):
			util.HandleError(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, common.ErrNotFound):
			util.HandleError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error(r.Context(), "get_user: внутренняя ошибка", "error", err)
			util.HandleError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, requestresponse.UserResponse{User: user})
}
