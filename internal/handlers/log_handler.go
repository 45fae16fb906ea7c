package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FrontendLogPayload defines the structure for logs coming from the browser.
type FrontendLogPayload struct {
	Level   string `json:"level"`             // e.g., "info", "error", "warn"
	Message string `json:"message"`           // The main log message
	Context any    `json:"context,omitempty"` // Optional extra data (e.g., stack trace)
}

// LogFrontendEvent handles incoming log requests from the frontend.
func LogFrontendEvent(w http.ResponseWriter, r *http.Request) {
	var payload FrontendLogPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	level, err := zerolog.ParseLevel(strings.ToLower(payload.Level))
	if err != nil || level == zerolog.NoLevel || level > zerolog.ErrorLevel {
		level = zerolog.InfoLevel
	}
	log.WithLevel(level).
		Str("source", "client").
		Interface("context", payload.Context).
		Msg(payload.Message)

	w.WriteHeader(http.StatusNoContent)
}
