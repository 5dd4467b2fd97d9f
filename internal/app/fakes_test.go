package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/easeaico/her-chat/internal/delivery"
	"github.com/easeaico/her-chat/internal/gateway"
	"github.com/easeaico/her-chat/internal/types"
)

type fakePersonaRepo struct {
	mu       sync.Mutex
	personas []types.Persona
	saves    int
}

func (f *fakePersonaRepo) List(context.Context) ([]types.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Persona(nil), f.personas...), nil
}

func (f *fakePersonaRepo) Save(_ context.Context, persona types.Persona) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	for i := range f.personas {
		if f.personas[i].ID == persona.ID {
			f.personas[i] = persona
			return nil
		}
	}
	f.personas = append(f.personas, persona)
	return nil
}

func (f *fakePersonaRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.personas {
		if f.personas[i].ID == id {
			f.personas = append(f.personas[:i], f.personas[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]types.ChatSession
	order    []string
	saves    []types.ChatSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]types.ChatSession)}
}

func (f *fakeSessionRepo) List(context.Context) ([]types.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sessions := make([]types.ChatSession, 0, len(f.order))
	for _, id := range f.order {
		sessions = append(sessions, cloneSession(f.sessions[id]))
	}
	return sessions, nil
}

func (f *fakeSessionRepo) Save(_ context.Context, session types.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.ID]; !ok {
		f.order = append(f.order, session.ID)
	}
	f.sessions[session.ID] = cloneSession(session)
	f.saves = append(f.saves, cloneSession(session))
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSessionRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

type fakePreferenceRepo struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{values: make(map[string][]byte)}
}

func (f *fakePreferenceRepo) Load(_ context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakePreferenceRepo) Save(_ context.Context, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	return nil
}

func (f *fakePreferenceRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

type fakeReplier struct {
	mu     sync.Mutex
	result gateway.Result
	err    error
	calls  []gateway.Request
	block  chan struct{}
}

func (f *fakeReplier) Reply(ctx context.Context, req gateway.Request) (gateway.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return gateway.Result{}, ctx.Err()
		}
	}
	return f.result, f.err
}

type testEnv struct {
	store    *Store
	personas *fakePersonaRepo
	sessions *fakeSessionRepo
	prefs    *fakePreferenceRepo
	replier  *fakeReplier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		personas: &fakePersonaRepo{},
		sessions: newFakeSessionRepo(),
		prefs:    newFakePreferenceRepo(),
		replier:  &fakeReplier{},
	}
	env.store = New(Repos{
		Personas:    env.personas,
		Sessions:    env.sessions,
		Preferences: env.prefs,
	}, env.replier, delivery.NewScheduler(0))
	env.store.nowFunc = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return env
}
