package handler

import (
	"net/http"

	"github.com/easeaico/her-chat/internal/app"
	"github.com/easeaico/her-chat/internal/gateway"
	"github.com/easeaico/her-chat/internal/types"
)

type chatRequest struct {
	Messages    []types.Turn       `json:"messages"`
	Persona     *types.Persona     `json:"persona"`
	Model       string             `json:"model,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	APISettings *types.APISettings `json:"apiSettings,omitempty"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	RequestID string `json:"requestId,omitempty"`
}

// ChatHandler serves the stateless completion endpoint.
type ChatHandler struct {
	replier app.Replier
}

func NewChatHandler(replier app.Replier) *ChatHandler {
	return &ChatHandler{replier: replier}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.replier.Reply(r.Context(), gateway.Request{
		Messages:    req.Messages,
		Persona:     req.Persona,
		Model:       req.Model,
		Temperature: req.Temperature,
		APISettings: req.APISettings,
	})
	if err != nil {
		writeAppError(w, gateway.AsError(err))
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: result.Reply, RequestID: result.RequestID})
}
