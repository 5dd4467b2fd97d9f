// Package app owns the application state: sessions, personas, selection
// pointers, API settings and avatars. All mutations go through Store.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/easeaico/her-chat/internal/delivery"
	"github.com/easeaico/her-chat/internal/gateway"
	"github.com/easeaico/her-chat/internal/prompt"
	"github.com/easeaico/her-chat/internal/storage"
	"github.com/easeaico/her-chat/internal/types"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDefaultPersona = errors.New("default persona cannot be deleted")
	ErrSessionBusy    = errors.New("session already has a reply in flight")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNoPersona      = errors.New("no persona selected")
)

type PersonaRepo interface {
	List(ctx context.Context) ([]types.Persona, error)
	Save(ctx context.Context, persona types.Persona) error
	Delete(ctx context.Context, id string) error
}

type SessionRepo interface {
	List(ctx context.Context) ([]types.ChatSession, error)
	Save(ctx context.Context, session types.ChatSession) error
	Delete(ctx context.Context, id string) error
}

type PreferenceRepo interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Replier produces one reply for a conversation.
type Replier interface {
	Reply(ctx context.Context, req gateway.Request) (gateway.Result, error)
}

// Repos groups the persistence collaborators.
type Repos struct {
	Personas    PersonaRepo
	Sessions    SessionRepo
	Preferences PreferenceRepo
}

// State is a snapshot of everything the client renders.
type State struct {
	Sessions         []types.ChatSession `json:"sessions"`
	Personas         []types.Persona     `json:"personas"`
	CurrentSessionID string              `json:"currentSessionId,omitempty"`
	CurrentPersonaID string              `json:"currentPersonaId,omitempty"`
	APISettings      types.APISettings   `json:"apiSettings"`
	Avatars          types.Avatars       `json:"avatars"`
}

type Store struct {
	repos     Repos
	replier   Replier
	scheduler *delivery.Scheduler

	mu        sync.Mutex
	state     State
	inflight  map[string]bool
	observers map[int]func(Event)
	nextObsID int

	nowFunc func() time.Time
}

func New(repos Repos, replier Replier, scheduler *delivery.Scheduler) *Store {
	if scheduler == nil {
		scheduler = delivery.NewScheduler(delivery.DefaultDelay)
	}
	return &Store{
		repos:     repos,
		replier:   replier,
		scheduler: scheduler,
		state: State{
			Sessions:    []types.ChatSession{},
			Personas:    []types.Persona{},
			APISettings: types.DefaultAPISettings(),
		},
		inflight:  make(map[string]bool),
		observers: make(map[int]func(Event)),
		nowFunc:   time.Now,
	}
}

// Load reads persisted state. An empty persona list is seeded with the
// default persona. Unreadable preferences fall back to their defaults.
func (s *Store) Load(ctx context.Context) error {
	personas, err := s.repos.Personas.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load personas: %w", err)
	}
	if len(personas) == 0 {
		persona := prompt.DefaultPersona(s.nowFunc())
		if err := s.repos.Personas.Save(ctx, persona); err != nil {
			return fmt.Errorf("failed to seed default persona: %w", err)
		}
		personas = []types.Persona{persona}
	}

	sessions, err := s.repos.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	prefs := s.repos.Preferences
	settings := loadPreference(ctx, prefs, storage.KeyAPISettings, types.DefaultAPISettings())
	avatars := types.Avatars{
		UserAvatar: loadPreference(ctx, prefs, storage.KeyUserAvatar, ""),
		AIAvatar:   loadPreference(ctx, prefs, storage.KeyAIAvatar, ""),
	}
	currentPersonaID := loadPreference(ctx, prefs, storage.KeyCurrentPersona, "")
	currentSessionID := loadPreference(ctx, prefs, storage.KeyCurrentSession, "")

	if findPersona(personas, currentPersonaID) < 0 {
		currentPersonaID = personas[0].ID
		if err := prefs.Save(ctx, storage.KeyCurrentPersona, currentPersonaID); err != nil {
			slog.Warn("failed to save current persona", "error", err.Error())
		}
	}
	if findSession(sessions, currentSessionID) < 0 {
		currentSessionID = ""
	}

	s.mu.Lock()
	s.state = State{
		Sessions:         sessions,
		Personas:         personas,
		CurrentSessionID: currentSessionID,
		CurrentPersonaID: currentPersonaID,
		APISettings:      settings,
		Avatars:          avatars,
	}
	s.mu.Unlock()

	slog.Info("state loaded", "personas", len(personas), "sessions", len(sessions))
	s.notify(Event{Type: EventStateChanged})
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	snapshot.Personas = append([]types.Persona(nil), s.state.Personas...)
	snapshot.Sessions = make([]types.ChatSession, 0, len(s.state.Sessions))
	for _, session := range s.state.Sessions {
		snapshot.Sessions = append(snapshot.Sessions, cloneSession(session))
	}
	return snapshot
}

// APISettings returns the stored connection settings.
func (s *Store) APISettings() types.APISettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.APISettings
}

func (s *Store) SaveAPISettings(ctx context.Context, settings types.APISettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repos.Preferences.Save(ctx, storage.KeyAPISettings, settings); err != nil {
		return fmt.Errorf("failed to save api settings: %w", err)
	}
	s.state.APISettings = settings
	s.notifyLocked(Event{Type: EventStateChanged})
	return nil
}

func (s *Store) Avatars() types.Avatars {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Avatars
}

func (s *Store) SaveAvatars(ctx context.Context, avatars types.Avatars) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repos.Preferences.Save(ctx, storage.KeyUserAvatar, avatars.UserAvatar); err != nil {
		return fmt.Errorf("failed to save user avatar: %w", err)
	}
	if err := s.repos.Preferences.Save(ctx, storage.KeyAIAvatar, avatars.AIAvatar); err != nil {
		return fmt.Errorf("failed to save ai avatar: %w", err)
	}
	s.state.Avatars = avatars
	s.notifyLocked(Event{Type: EventStateChanged})
	return nil
}

func loadPreference[T any](ctx context.Context, prefs PreferenceRepo, key string, fallback T) T {
	var value T
	found, err := prefs.Load(ctx, key, &value)
	if err != nil {
		slog.Warn("failed to load preference, using default", "key", key, "error", err.Error())
		return fallback
	}
	if !found {
		return fallback
	}
	return value
}

func cloneSession(session types.ChatSession) types.ChatSession {
	session.Messages = append(make([]types.Message, 0, len(session.Messages)), session.Messages...)
	return session
}

func findPersona(personas []types.Persona, id string) int {
	for i, persona := range personas {
		if persona.ID == id {
			return i
		}
	}
	return -1
}

func findSession(sessions []types.ChatSession, id string) int {
	for i, session := range sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}
