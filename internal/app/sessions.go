package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/her-chat/internal/storage"
	"github.com/easeaico/her-chat/internal/types"
)

// DefaultSessionName is the name given to sessions created without one.
func DefaultSessionName(now time.Time) string {
	return fmt.Sprintf("对话 %d/%d/%d", now.Year(), int(now.Month()), now.Day())
}

func (s *Store) Sessions() []types.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]types.ChatSession, 0, len(s.state.Sessions))
	for _, session := range s.state.Sessions {
		sessions = append(sessions, cloneSession(session))
	}
	return sessions
}

func (s *Store) Session(id string) (types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findSession(s.state.Sessions, id)
	if idx < 0 {
		return types.ChatSession{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return cloneSession(s.state.Sessions[idx]), nil
}

// CreateSession starts an empty session bound to the selected persona and
// selects it.
func (s *Store) CreateSession(ctx context.Context, name string) (types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.createSessionLocked(ctx, strings.TrimSpace(name))
	if err != nil {
		return types.ChatSession{}, err
	}
	s.notifyLocked(Event{Type: EventStateChanged, SessionID: session.ID})
	return cloneSession(session), nil
}

func (s *Store) RenameSession(ctx context.Context, id, name string) (types.ChatSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ChatSession{}, fmt.Errorf("%w: session name is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findSession(s.state.Sessions, id)
	if idx < 0 {
		return types.ChatSession{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	session := cloneSession(s.state.Sessions[idx])
	session.Name = name
	session.UpdatedAt = s.nowFunc().UnixMilli()
	if err := s.commitSessionLocked(ctx, session); err != nil {
		return types.ChatSession{}, err
	}
	s.notifyLocked(Event{Type: EventStateChanged, SessionID: id})
	return cloneSession(session), nil
}

// ClearSession drops every message of a session.
func (s *Store) ClearSession(ctx context.Context, id string) (types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findSession(s.state.Sessions, id)
	if idx < 0 {
		return types.ChatSession{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if s.inflight[id] {
		return types.ChatSession{}, ErrSessionBusy
	}
	session := cloneSession(s.state.Sessions[idx])
	session.Messages = []types.Message{}
	session.UpdatedAt = s.nowFunc().UnixMilli()
	if err := s.commitSessionLocked(ctx, session); err != nil {
		return types.ChatSession{}, err
	}
	s.notifyLocked(Event{Type: EventStateChanged, SessionID: id})
	return cloneSession(session), nil
}

// DeleteSession removes a session. When it was selected the first
// remaining session is selected, or none.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findSession(s.state.Sessions, id)
	if idx < 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if s.inflight[id] {
		return ErrSessionBusy
	}
	if err := s.repos.Sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.state.Sessions = append(s.state.Sessions[:idx:idx], s.state.Sessions[idx+1:]...)

	if s.state.CurrentSessionID == id {
		next := ""
		if len(s.state.Sessions) > 0 {
			next = s.state.Sessions[0].ID
		}
		if err := s.selectSessionLocked(ctx, next); err != nil {
			return err
		}
	}
	s.notifyLocked(Event{Type: EventStateChanged, SessionID: id})
	return nil
}

func (s *Store) SelectSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if findSession(s.state.Sessions, id) < 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err := s.selectSessionLocked(ctx, id); err != nil {
		return err
	}
	s.notifyLocked(Event{Type: EventStateChanged, SessionID: id})
	return nil
}

func (s *Store) createSessionLocked(ctx context.Context, name string) (types.ChatSession, error) {
	if findPersona(s.state.Personas, s.state.CurrentPersonaID) < 0 {
		return types.ChatSession{}, ErrNoPersona
	}
	now := s.nowFunc()
	if name == "" {
		name = DefaultSessionName(now)
	}
	session := types.ChatSession{
		ID:        uuid.NewString(),
		Name:      name,
		Messages:  []types.Message{},
		PersonaID: s.state.CurrentPersonaID,
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}
	if err := s.commitSessionLocked(ctx, session); err != nil {
		return types.ChatSession{}, err
	}
	if err := s.selectSessionLocked(ctx, session.ID); err != nil {
		return types.ChatSession{}, err
	}
	return session, nil
}

// commitSessionLocked persists a session and then replaces the in-memory
// copy.
func (s *Store) commitSessionLocked(ctx context.Context, session types.ChatSession) error {
	if err := s.repos.Sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.putSessionLocked(session)
	return nil
}

func (s *Store) putSessionLocked(session types.ChatSession) {
	if idx := findSession(s.state.Sessions, session.ID); idx >= 0 {
		s.state.Sessions[idx] = session
		return
	}
	s.state.Sessions = append(s.state.Sessions, session)
}

func (s *Store) selectSessionLocked(ctx context.Context, id string) error {
	var err error
	if id == "" {
		err = s.repos.Preferences.Delete(ctx, storage.KeyCurrentSession)
	} else {
		err = s.repos.Preferences.Save(ctx, storage.KeyCurrentSession, id)
	}
	if err != nil {
		return fmt.Errorf("failed to save current session: %w", err)
	}
	s.state.CurrentSessionID = id
	return nil
}
