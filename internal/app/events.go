package app

import "github.com/easeaico/her-chat/internal/types"

type EventType string

const (
	EventStateChanged EventType = "state"
	EventMessage      EventType = "message"
	EventReplyFailed  EventType = "reply_failed"
)

// Event describes a state change. Message events carry the appended
// message; Last marks the final segment of a reply.
type Event struct {
	Type      EventType
	SessionID string
	Message   *types.Message
	Last      bool
	Err       error
}

// Subscribe registers fn for every event. The returned func removes it.
// Observers run synchronously and must not call back into the Store.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify(event Event) {
	s.mu.Lock()
	observers := s.observerList()
	s.mu.Unlock()
	for _, fn := range observers {
		fn(event)
	}
}

// notifyLocked is notify for callers already holding s.mu.
func (s *Store) notifyLocked(event Event) {
	for _, fn := range s.observerList() {
		fn(event)
	}
}

func (s *Store) observerList() []func(Event) {
	observers := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	return observers
}
