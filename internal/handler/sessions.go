package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/easeaico/her-chat/internal/app"
	"github.com/easeaico/her-chat/internal/gateway"
	"github.com/easeaico/her-chat/internal/types"
)

// SessionHandler handles chat session HTTP requests.
type SessionHandler struct {
	store *app.Store
}

func NewSessionHandler(store *app.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// List handles GET /api/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	state := h.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":         state.Sessions,
		"currentSessionId": state.CurrentSessionID,
	})
}

type sessionNameRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessionNameRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	session, err := h.store.CreateSession(r.Context(), req.Name)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Rename handles PATCH /api/sessions/{id}
func (h *SessionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req sessionNameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	session, err := h.store.RenameSession(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles POST /api/sessions/{id}/clear
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.ClearSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Select handles POST /api/sessions/{id}/select
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SelectSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/sessions/{id}/export?format=markdown|json
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := app.ExportFormat(r.URL.Query().Get("format"))
	content, filename, mimeType, err := h.store.Export(chi.URLParam(r, "id"), format)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

type sendRequest struct {
	Content string `json:"content"`
}

type turnResponse struct {
	SessionID   string          `json:"sessionId"`
	UserMessage types.Message   `json:"userMessage"`
	Replies     []types.Message `json:"replies"`
	RequestID   string          `json:"requestId,omitempty"`
}

// Send handles POST /api/sessions/{id}/messages. Clients accepting
// text/event-stream receive each reply bubble as it is delivered and a
// closing done or error event. Store errors raised before the turn starts
// are plain JSON. Other clients get the whole turn once delivery finishes.
func (h *SessionHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sessionID := chi.URLParam(r, "id")

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		result, err := h.store.SendMessage(r.Context(), sessionID, req.Content, nil)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTurnResponse(result))
		return
	}

	stream := newEventStream(w)
	result, err := h.store.SendMessage(r.Context(), sessionID, req.Content, func(message types.Message, last bool) error {
		return stream.Send("message", map[string]any{"message": message, "last": last})
	})
	if err != nil {
		var gwErr *gateway.Error
		if !errors.As(err, &gwErr) {
			if !stream.Started() {
				writeAppError(w, err)
				return
			}
			gwErr = gateway.AsError(err)
		}
		_ = stream.Send("error", streamError{Error: gwErr.Message, RequestID: gwErr.RequestID, Status: gwErr.Status})
		return
	}
	_ = stream.Send("done", toTurnResponse(result))
}

func toTurnResponse(result app.TurnResult) turnResponse {
	replies := result.Replies
	if replies == nil {
		replies = []types.Message{}
	}
	return turnResponse{
		SessionID:   result.SessionID,
		UserMessage: result.UserMessage,
		Replies:     replies,
		RequestID:   result.RequestID,
	}
}
