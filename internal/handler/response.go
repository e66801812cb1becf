package handler

import (
	"encoding/json"
	"identity-token-service/internal/model/requestresponse"
	"identity-token-service/internal/util"
	"log/slog"
	"net/http"
)

// decodeAndValidate читает JSON-тело и проверяет теги validate.
// При ошибке ответ 400 уже записан.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		util.HandleError(w, "invalid request body", http.StatusBadRequest)
		return false
	}

	if err := requestresponse.Validate.Struct(target); err != nil {
		util.HandleError(w, err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("ошибка кодирования ответа", "error", err)
	}
}
