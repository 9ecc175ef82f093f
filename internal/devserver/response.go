package devserver

// Response helpers for the {status, message, data} envelope.
//
// Every endpoint answers with the same shape, success or failure:
//
//	{"status":"success","data":{...}}
//	{"status":"error","message":"what went wrong"}
//
// The client's api package decodes exactly this, so the two must stay in
// lockstep.

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type responseEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeSuccess sends a success envelope with the given payload.
// Headers and status must be written before the body — once Encode starts
// writing, header changes are silently dropped.
func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(responseEnvelope{
		Status: "success",
		Data:   data,
	}); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error envelope. The message is user-facing; internal
// details stay in the logs.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(responseEnvelope{
		Status:  "error",
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}
