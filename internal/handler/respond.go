package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/easeaico/her-chat/internal/app"
	"github.com/easeaico/her-chat/internal/gateway"
)

const maxBodyBytes = 8 << 20

// errorBody is the failure shape shared by every endpoint. Reply is always
// empty so chat clients can treat all responses alike.
type errorBody struct {
	Reply     string `json:"reply"`
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeAppError maps store and gateway errors to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		writeJSON(w, gwErr.Status, errorBody{Error: gwErr.Message, RequestID: gwErr.RequestID})
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err.Error())
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrDefaultPersona),
		errors.Is(err, app.ErrSessionBusy),
		errors.Is(err, app.ErrNoPersona):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body")
		}
		return err
	}
	return nil
}
