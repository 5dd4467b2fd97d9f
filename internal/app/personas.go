package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/easeaico/her-chat/internal/emotion"
	"github.com/easeaico/her-chat/internal/prompt"
	"github.com/easeaico/her-chat/internal/storage"
	"github.com/easeaico/her-chat/internal/types"
)

func (s *Store) Personas() []types.Persona {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Persona(nil), s.state.Personas...)
}

func (s *Store) Persona(id string) (types.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findPersona(s.state.Personas, id)
	if idx < 0 {
		return types.Persona{}, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	return s.state.Personas[idx], nil
}

// CurrentPersona returns the selected persona.
func (s *Store) CurrentPersona() (types.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findPersona(s.state.Personas, s.state.CurrentPersonaID)
	if idx < 0 {
		return types.Persona{}, ErrNoPersona
	}
	return s.state.Personas[idx], nil
}

// CreatePersona adds a persona with starter values and selects it. An
// empty name becomes "新角色 N".
func (s *Store) CreatePersona(ctx context.Context, name string) (types.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("新角色 %d", len(s.state.Personas)+1)
	}
	persona := prompt.NewPersona(uuid.NewString(), name, s.nowFunc())

	if err := s.repos.Personas.Save(ctx, persona); err != nil {
		return types.Persona{}, fmt.Errorf("failed to create persona: %w", err)
	}
	s.state.Personas = append(s.state.Personas, persona)
	if err := s.selectPersonaLocked(ctx, persona.ID); err != nil {
		return types.Persona{}, err
	}
	s.notifyLocked(Event{Type: EventStateChanged})
	return persona, nil
}

// SavePersona inserts or replaces a persona. Style sliders are clamped and
// UpdatedAt is restamped.
func (s *Store) SavePersona(ctx context.Context, persona types.Persona) (types.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(persona.Name) == "" {
		return types.Persona{}, fmt.Errorf("%w: persona name is required", ErrInvalidInput)
	}
	now := s.nowFunc().UnixMilli()
	if persona.ID == "" {
		persona.ID = uuid.NewString()
	}
	if persona.CreatedAt == 0 {
		persona.CreatedAt = now
	}
	persona.UpdatedAt = now
	persona.Style = emotion.ClampStyle(persona.Style)

	if err := s.savePersonaLocked(ctx, persona); err != nil {
		return types.Persona{}, err
	}
	s.notifyLocked(Event{Type: EventStateChanged})
	return persona, nil
}

// DeletePersona removes a persona. The default persona is protected. When
// the selected persona is removed the first remaining one is selected.
func (s *Store) DeletePersona(ctx context.Context, id string) error {
	if id == prompt.DefaultPersonaID {
		return ErrDefaultPersona
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findPersona(s.state.Personas, id)
	if idx < 0 {
		return fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	if err := s.repos.Personas.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}
	s.state.Personas = append(s.state.Personas[:idx:idx], s.state.Personas[idx+1:]...)

	if s.state.CurrentPersonaID == id {
		next := ""
		if len(s.state.Personas) > 0 {
			next = s.state.Personas[0].ID
		}
		if err := s.selectPersonaLocked(ctx, next); err != nil {
			return err
		}
	}
	s.notifyLocked(Event{Type: EventStateChanged})
	return nil
}

func (s *Store) SelectPersona(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if findPersona(s.state.Personas, id) < 0 {
		return fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	if err := s.selectPersonaLocked(ctx, id); err != nil {
		return err
	}
	s.notifyLocked(Event{Type: EventStateChanged})
	return nil
}

// ApplyQuickMood nudges a persona's style and saves it.
func (s *Store) ApplyQuickMood(ctx context.Context, id string, mood types.QuickMood) (types.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findPersona(s.state.Personas, id)
	if idx < 0 {
		return types.Persona{}, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	adjusted := emotion.ApplyQuickMood(s.state.Personas[idx], mood)
	if err := s.savePersonaLocked(ctx, adjusted); err != nil {
		return types.Persona{}, err
	}
	s.notifyLocked(Event{Type: EventStateChanged})
	return adjusted, nil
}

func (s *Store) savePersonaLocked(ctx context.Context, persona types.Persona) error {
	if err := s.repos.Personas.Save(ctx, persona); err != nil {
		return fmt.Errorf("failed to save persona: %w", err)
	}
	if idx := findPersona(s.state.Personas, persona.ID); idx >= 0 {
		s.state.Personas[idx] = persona
	} else {
		s.state.Personas = append(s.state.Personas, persona)
	}
	return nil
}

func (s *Store) selectPersonaLocked(ctx context.Context, id string) error {
	var err error
	if id == "" {
		err = s.repos.Preferences.Delete(ctx, storage.KeyCurrentPersona)
	} else {
		err = s.repos.Preferences.Save(ctx, storage.KeyCurrentPersona, id)
	}
	if err != nil {
		return fmt.Errorf("failed to save current persona: %w", err)
	}
	s.state.CurrentPersonaID = id
	return nil
}
