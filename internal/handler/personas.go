package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/easeaico/her-chat/internal/app"
	"github.com/easeaico/her-chat/internal/emotion"
	"github.com/easeaico/her-chat/internal/prompt"
	"github.com/easeaico/her-chat/internal/types"
)

// PersonaHandler handles persona-related HTTP requests.
type PersonaHandler struct {
	store *app.Store
}

func NewPersonaHandler(store *app.Store) *PersonaHandler {
	return &PersonaHandler{store: store}
}

// List handles GET /api/personas
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	state := h.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"personas":         state.Personas,
		"currentPersonaId": state.CurrentPersonaID,
	})
}

// Create handles POST /api/personas. A body without a characterName starts
// from the editable template; otherwise the body is saved as a new persona.
func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.Persona
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	if req.CharacterName == "" {
		persona, err := h.store.CreatePersona(r.Context(), req.Name)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, persona)
		return
	}

	req.ID = ""
	persona, err := h.store.SavePersona(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, persona)
}

// Get handles GET /api/personas/{id}
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	persona, err := h.store.Persona(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, persona)
}

// Update handles PUT /api/personas/{id}
func (h *PersonaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.Persona(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	var req types.Persona
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.ID = id
	req.CreatedAt = existing.CreatedAt

	persona, err := h.store.SavePersona(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, persona)
}

// Delete handles DELETE /api/personas/{id}
func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePersona(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /api/personas/{id}/select
func (h *PersonaHandler) Select(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SelectPersona(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moodRequest struct {
	Mood string `json:"mood"`
}

// Mood handles POST /api/personas/{id}/mood
func (h *PersonaHandler) Mood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	mood, err := emotion.ParseQuickMood(req.Mood)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	persona, err := h.store.ApplyQuickMood(r.Context(), chi.URLParam(r, "id"), mood)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, persona)
}

// Prompt handles GET /api/personas/{id}/prompt
func (h *PersonaHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	persona, err := h.store.Persona(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt.RenderPersona(persona)})
}

// Labels handles GET /api/personas/labels
func (h *PersonaHandler) Labels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"relationships": prompt.RelationshipLabels,
		"goals":         prompt.GoalLabels,
		"moods":         prompt.QuickMoodLabels,
	})
}
