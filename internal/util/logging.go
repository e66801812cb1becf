package util

import (
	"encoding/json"
	"fmt"
	"identity-token-service/internal/model/requestresponse"
	"log/slog"
	"net/http"
)

// LogError пишет ошибку в лог и возвращает ее обернутой тем же сообщением
func LogError(message string, err error) error {
	slog.Error(message, "error", err)
	return fmt.Errorf("%s: %w", message, err)
}

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := requestresponse.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		slog.Error("ошибка кодирования ответа", "error", err)
	}
}
