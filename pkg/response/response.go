package response

import (
	"encoding/json"
	"net/http"

	"frontdesk-order-services/internal/apperr"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}

// AppError writes an engine error with its kind and state details. It reports
// false when err is not an *apperr.Error so callers can fall back to a 500.
func AppError(w http.ResponseWriter, err error) bool {
	appErr, ok := apperr.As(err)
	if !ok {
		return false
	}
	payload := map[string]any{
		"success": false,
		"error":   string(appErr.Code),
		"kind":    string(appErr.Kind),
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		payload["details"] = appErr.Details
	}
	JSON(w, appErr.StatusCode(), payload)
	return true
}
