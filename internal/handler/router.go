package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/easeaico/her-chat/internal/app"
)

// NewRouter wires every HTTP route onto a chi router.
func NewRouter(store *app.Store, replier app.Replier, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}

	chat := NewChatHandler(replier)
	personas := NewPersonaHandler(store)
	sessions := NewSessionHandler(store)
	settings := NewSettingsHandler(store)

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chat.Chat)
		r.Get("/state", settings.State)
		r.Get("/presets", settings.Presets)

		r.Route("/personas", func(r chi.Router) {
			r.Get("/", personas.List)
			r.Post("/", personas.Create)
			r.Get("/labels", personas.Labels)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", personas.Get)
				r.Put("/", personas.Update)
				r.Delete("/", personas.Delete)
				r.Post("/mood", personas.Mood)
				r.Post("/select", personas.Select)
				r.Get("/prompt", personas.Prompt)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.List)
			r.Post("/", sessions.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessions.Get)
				r.Patch("/", sessions.Rename)
				r.Delete("/", sessions.Delete)
				r.Post("/clear", sessions.Clear)
				r.Post("/select", sessions.Select)
				r.Post("/messages", sessions.Send)
				r.Get("/export", sessions.Export)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/api", settings.GetAPI)
			r.Put("/api", settings.PutAPI)
			r.Get("/avatars", settings.GetAvatars)
			r.Put("/avatars", settings.PutAvatars)
		})
	})

	return r
}
