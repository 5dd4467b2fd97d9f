package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/easeaico/her-chat/internal/delivery"
	"github.com/easeaico/her-chat/internal/gateway"
	"github.com/easeaico/her-chat/internal/types"
)

// ReplyFunc receives each assistant message as it is delivered.
type ReplyFunc func(message types.Message, last bool) error

// TurnResult summarises a completed turn.
type TurnResult struct {
	SessionID   string
	UserMessage types.Message
	Replies     []types.Message
	RequestID   string
}

// SendMessage runs one chat turn. The user message is appended and
// persisted first. The reply is split into segments that are appended one
// by one with the scheduler's pacing; intermediate segments only update
// memory and observers, the final one persists the session. An empty
// sessionID targets the selected session, creating one when none exists.
func (s *Store) SendMessage(ctx context.Context, sessionID, content string, onReply ReplyFunc) (TurnResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return TurnResult{}, fmt.Errorf("%w: message content is required", ErrInvalidInput)
	}

	session, persona, settings, userMessage, err := s.beginTurn(ctx, sessionID, content)
	if err != nil {
		return TurnResult{}, err
	}
	defer s.endTurn(session.ID)

	result := TurnResult{SessionID: session.ID, UserMessage: userMessage}
	s.notify(Event{Type: EventMessage, SessionID: session.ID, Message: &userMessage})

	turns := make([]types.Turn, 0, len(session.Messages))
	for _, message := range session.Messages {
		turns = append(turns, types.Turn{Role: message.Role, Content: message.Content})
	}

	reply, err := s.replier.Reply(ctx, gateway.Request{
		Messages:    turns,
		Persona:     &persona,
		APISettings: &settings,
	})
	if err != nil {
		s.notify(Event{Type: EventReplyFailed, SessionID: session.ID, Err: err})
		return result, err
	}
	result.RequestID = reply.RequestID

	segments := delivery.Segment(reply.Reply)
	if len(segments) == 0 {
		err := gateway.EmptyReplyError(reply.RequestID)
		s.notify(Event{Type: EventReplyFailed, SessionID: session.ID, Err: err})
		return result, err
	}

	err = s.scheduler.Deliver(ctx, segments, func(_ int, segment string, last bool) error {
		message, err := s.appendReply(ctx, session.ID, segment, last)
		if err != nil {
			return err
		}
		result.Replies = append(result.Replies, message)
		s.notify(Event{Type: EventMessage, SessionID: session.ID, Message: &message, Last: last})
		if onReply != nil {
			return onReply(message, last)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("reply delivery interrupted", "session_id", session.ID, "delivered", len(result.Replies), "total", len(segments))
		}
		s.notify(Event{Type: EventReplyFailed, SessionID: session.ID, Err: err})
		return result, err
	}
	return result, nil
}

// beginTurn resolves the session and persona, marks the session busy and
// commits the user message.
func (s *Store) beginTurn(ctx context.Context, sessionID, content string) (types.ChatSession, types.Persona, types.APISettings, types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	personaIdx := findPersona(s.state.Personas, s.state.CurrentPersonaID)
	if personaIdx < 0 {
		return types.ChatSession{}, types.Persona{}, types.APISettings{}, types.Message{}, ErrNoPersona
	}
	persona := s.state.Personas[personaIdx]

	if sessionID == "" {
		sessionID = s.state.CurrentSessionID
	}
	var session types.ChatSession
	if sessionID == "" {
		created, err := s.createSessionLocked(ctx, "")
		if err != nil {
			return types.ChatSession{}, types.Persona{}, types.APISettings{}, types.Message{}, err
		}
		session = created
	} else {
		idx := findSession(s.state.Sessions, sessionID)
		if idx < 0 {
			return types.ChatSession{}, types.Persona{}, types.APISettings{}, types.Message{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		session = cloneSession(s.state.Sessions[idx])
	}
	if s.inflight[session.ID] {
		return types.ChatSession{}, types.Persona{}, types.APISettings{}, types.Message{}, ErrSessionBusy
	}

	now := s.nowFunc().UnixMilli()
	userMessage := types.Message{
		ID:        ulid.Make().String(),
		Role:      types.RoleUser,
		Content:   content,
		Timestamp: now,
	}
	session.Messages = append(session.Messages, userMessage)
	session.UpdatedAt = now
	if err := s.commitSessionLocked(ctx, session); err != nil {
		return types.ChatSession{}, types.Persona{}, types.APISettings{}, types.Message{}, err
	}
	s.inflight[session.ID] = true
	return cloneSession(session), persona, s.state.APISettings, userMessage, nil
}

func (s *Store) endTurn(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, sessionID)
}

// appendReply adds one assistant message. Only the last one is persisted.
func (s *Store) appendReply(ctx context.Context, sessionID, content string, last bool) (types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := findSession(s.state.Sessions, sessionID)
	if idx < 0 {
		return types.Message{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	now := s.nowFunc().UnixMilli()
	message := types.Message{
		ID:        ulid.Make().String(),
		Role:      types.RoleAssistant,
		Content:   content,
		Timestamp: now,
	}
	session := cloneSession(s.state.Sessions[idx])
	session.Messages = append(session.Messages, message)
	session.UpdatedAt = now

	if !last {
		s.putSessionLocked(session)
		return message, nil
	}
	if err := s.commitSessionLocked(ctx, session); err != nil {
		return types.Message{}, err
	}
	return message, nil
}
