package requestresponse

import "identity-token-service/internal/model"

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Message string `json:"message" example:"Please authenticate"`
	Code    int    `json:"code" example:"401"`
}

// UserResponse : данные пользователя
type UserResponse struct {
	User *model.User `json:"user"`
}
