package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ecomroutine/ecomroutine-api/internal/redact"
)

// Envelope is the JSON shape every API response uses. Success responses
// carry Data (and Total for lists); failures carry Error.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

// RespondWithData writes a success envelope wrapping the payload.
func RespondWithData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// RespondWithList writes a success envelope with the collection payload and
// its total count.
func RespondWithList(w http.ResponseWriter, status int, data any, total int) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Total: &total})
}

// RespondWithMessage writes a success envelope carrying only a message.
func RespondWithMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: true, Message: message})
}

// RespondWithError writes a failure envelope with the given message.
func RespondWithError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Error: message})
}

// RespondWithErrorAndLog logs the underlying error (redacted, with the
// request trace ID) and writes a failure envelope with the safe message.
// Server-side failures log at error level, client mistakes at warn.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	err error,
	status int,
	safeMessage string,
) {
	if logger != nil && err != nil {
		attrs := []any{
			slog.String("error", redact.Error(err)),
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
		}
		if traceID := GetTraceID(r.Context()); traceID != "" {
			attrs = append(attrs, slog.String("trace_id", traceID))
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request rejected", attrs...)
		}
	}
	RespondWithError(w, status, safeMessage)
}

func writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; nothing left to do but log.
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}
