package server

import (
	"encoding/json"
	"net/http"

	"github.com/pfrederiksen/concert-server/internal/logger"
)

// Source names the upstream in every payload.
const Source = "melon"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Encoding response failed", logger.Fields{"status": status}, err)
	}
}

func writeError(w http.ResponseWriter, status int, errText, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   errText,
		Message: message,
		Details: details,
	})
}
