package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easeaico/her-chat/internal/models"
	"github.com/easeaico/her-chat/internal/prompt"
	"github.com/easeaico/her-chat/internal/types"
)

type fakeCompleter struct {
	completion models.Completion
	err        error
	calls      int
	last       models.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req models.CompletionRequest) (models.Completion, error) {
	f.calls++
	f.last = req
	return f.completion, f.err
}

type clientCall struct {
	baseURL string
	apiKey  string
}

func newTestGateway(opts Options, fake *fakeCompleter) (*Gateway, *[]clientCall) {
	g := New(opts)
	calls := &[]clientCall{}
	g.newClient = func(baseURL, apiKey string) (completer, error) {
		*calls = append(*calls, clientCall{baseURL: baseURL, apiKey: apiKey})
		return fake, nil
	}
	return g, calls
}

func testPersona() *types.Persona {
	p := prompt.DefaultPersona(time.Unix(0, 0))
	return &p
}

func expectKind(t *testing.T, err error, kind Kind, status int) *Error {
	t.Helper()
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gwErr.Kind != kind || gwErr.Status != status {
		t.Fatalf("expected %s/%d, got %s/%d", kind, status, gwErr.Kind, gwErr.Status)
	}
	return gwErr
}

func TestReplyValidation(t *testing.T) {
	fake := &fakeCompleter{}
	g, calls := newTestGateway(Options{APIKey: "env-key"}, fake)

	_, err := g.Reply(context.Background(), Request{Persona: testPersona()})
	gwErr := expectKind(t, err, KindInput, http.StatusBadRequest)
	if gwErr.Message != msgMissingMessages {
		t.Fatalf("unexpected message: %s", gwErr.Message)
	}

	_, err = g.Reply(context.Background(), Request{Messages: []types.Turn{}})
	expectKind(t, err, KindInput, http.StatusBadRequest)

	if len(*calls) != 0 || fake.calls != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestReplyMissingKey(t *testing.T) {
	fake := &fakeCompleter{}
	g, calls := newTestGateway(Options{}, fake)

	_, err := g.Reply(context.Background(), Request{
		Messages:    []types.Turn{{Role: types.RoleUser, Content: "hi"}},
		Persona:     testPersona(),
		APISettings: &types.APISettings{UseEnvKey: false, APIKey: ""},
	})
	gwErr := expectKind(t, err, KindConfig, http.StatusUnauthorized)
	if !strings.Contains(gwErr.Message, "OPENAI_API_KEY") {
		t.Fatalf("unexpected message: %s", gwErr.Message)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no client to be created")
	}
}

func TestReplyCredentialResolution(t *testing.T) {
	fake := &fakeCompleter{completion: models.Completion{Text: "ok"}}
	g, calls := newTestGateway(Options{APIKey: "env-key", BaseURL: "https://env.example/v1"}, fake)
	msgs := []types.Turn{{Role: types.RoleUser, Content: "hi"}}

	cases := []struct {
		settings *types.APISettings
		want     clientCall
	}{
		{nil, clientCall{"https://env.example/v1", "env-key"}},
		{&types.APISettings{UseEnvKey: true, APIKey: "own"}, clientCall{"https://env.example/v1", "env-key"}},
		{&types.APISettings{UseEnvKey: false, APIKey: "own", BaseURL: "https://own.example/v1"}, clientCall{"https://own.example/v1", "own"}},
		{&types.APISettings{UseEnvKey: false, APIKey: "own"}, clientCall{types.DefaultBaseURL, "own"}},
	}
	for i, tc := range cases {
		if _, err := g.Reply(context.Background(), Request{Messages: msgs, Persona: testPersona(), APISettings: tc.settings}); err != nil {
			t.Fatalf("case %d: expected no error, got %v", i, err)
		}
		got := (*calls)[len(*calls)-1]
		if got != tc.want {
			t.Fatalf("case %d: expected %+v, got %+v", i, tc.want, got)
		}
	}
}

func TestReplyParameterResolution(t *testing.T) {
	fake := &fakeCompleter{completion: models.Completion{Text: "ok"}}
	g, _ := newTestGateway(Options{APIKey: "env-key", Model: "env-model"}, fake)
	msgs := []types.Turn{{Role: types.RoleUser, Content: "hi"}}
	temp := 0.3

	cases := []struct {
		name      string
		req       Request
		model     string
		temp      float64
		maxTokens int
	}{
		{"defaults", Request{}, "env-model", types.DefaultTemperature, types.DefaultMaxTokens},
		{"explicit", Request{Model: "explicit", Temperature: &temp}, "explicit", 0.3, types.DefaultMaxTokens},
		{"env key prefers env model", Request{APISettings: &types.APISettings{UseEnvKey: true, Model: "settings-model", Temperature: 1.1, MaxTokens: 512}}, "env-model", 1.1, 512},
		{"own key prefers settings model", Request{APISettings: &types.APISettings{APIKey: "k", Model: "settings-model", Temperature: 0}}, "settings-model", 0, types.DefaultMaxTokens},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Messages = msgs
			tc.req.Persona = testPersona()
			if _, err := g.Reply(context.Background(), tc.req); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if fake.last.Model != tc.model || fake.last.Temperature != tc.temp || fake.last.MaxTokens != tc.maxTokens {
				t.Fatalf("expected %s/%v/%d, got %s/%v/%d", tc.model, tc.temp, tc.maxTokens,
					fake.last.Model, fake.last.Temperature, fake.last.MaxTokens)
			}
		})
	}

	bare, _ := newTestGateway(Options{APIKey: "env-key"}, fake)
	if _, err := bare.Reply(context.Background(), Request{Messages: msgs, Persona: testPersona()}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fake.last.Model != types.DefaultModel {
		t.Fatalf("expected default model, got %s", fake.last.Model)
	}
}

func TestReplySettingsWithoutTemperature(t *testing.T) {
	fake := &fakeCompleter{completion: models.Completion{Text: "ok"}}
	g, _ := newTestGateway(Options{}, fake)
	msgs := []types.Turn{{Role: types.RoleUser, Content: "hi"}}

	cases := []struct {
		name string
		body string
		temp float64
	}{
		{"omitted", `{"apiKey":"sk","useEnvKey":false,"model":"m"}`, types.DefaultTemperature},
		{"explicit zero", `{"apiKey":"sk","useEnvKey":false,"model":"m","temperature":0}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var settings types.APISettings
			if err := json.Unmarshal([]byte(tc.body), &settings); err != nil {
				t.Fatalf("decode settings: %v", err)
			}
			if _, err := g.Reply(context.Background(), Request{Messages: msgs, Persona: testPersona(), APISettings: &settings}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if fake.last.Temperature != tc.temp {
				t.Fatalf("expected temperature %v, got %v", tc.temp, fake.last.Temperature)
			}
		})
	}
}

func TestReplyFramingAndTruncation(t *testing.T) {
	fake := &fakeCompleter{completion: models.Completion{Text: "ok"}}
	g, _ := newTestGateway(Options{APIKey: "env-key"}, fake)

	history := make([]types.Turn, 25)
	for i := range history {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		history[i] = types.Turn{Role: role, Content: fmt.Sprintf("m%d", i)}
	}
	persona := testPersona()

	if _, err := g.Reply(context.Background(), Request{Messages: history, Persona: persona}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sent := fake.last.Messages
	if len(sent) != 23 {
		t.Fatalf("expected 3 framing turns + 20 history turns, got %d", len(sent))
	}
	if sent[0].Role != types.RoleSystem || sent[0].Content != framingSystem {
		t.Fatalf("unexpected system turn: %+v", sent[0])
	}
	if sent[1].Role != types.RoleUser || !strings.Contains(sent[1].Content, prompt.RenderPersona(*persona)) {
		t.Fatalf("expected persona prompt in first user turn")
	}
	if !strings.HasPrefix(sent[1].Content, "【角色设定，请严格遵守】\n") {
		t.Fatalf("missing opening marker: %q", sent[1].Content[:20])
	}
	if sent[2].Role != types.RoleAssistant || sent[2].Content != framingAck {
		t.Fatalf("unexpected acknowledgement: %+v", sent[2])
	}
	if sent[3].Content != "m5" || sent[22].Content != "m24" {
		t.Fatalf("expected last 20 turns, got %s..%s", sent[3].Content, sent[22].Content)
	}
}

func TestReplyEmptyReply(t *testing.T) {
	fake := &fakeCompleter{completion: models.Completion{Text: "  \n ", RequestID: "req-7"}}
	g, _ := newTestGateway(Options{APIKey: "env-key"}, fake)

	_, err := g.Reply(context.Background(), Request{Messages: []types.Turn{}, Persona: testPersona()})
	gwErr := expectKind(t, err, KindEmptyReply, http.StatusInternalServerError)
	if gwErr.RequestID != "req-7" || gwErr.Message != msgEmptyReply {
		t.Fatalf("unexpected error: %+v", gwErr)
	}
}

func TestReplyUnexpectedError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("dial tcp: refused")}
	g, _ := newTestGateway(Options{APIKey: "env-key"}, fake)

	_, err := g.Reply(context.Background(), Request{Messages: []types.Turn{}, Persona: testPersona()})
	gwErr := expectKind(t, err, KindUnexpected, http.StatusInternalServerError)
	if gwErr.Message != "请求失败: dial tcp: refused" {
		t.Fatalf("unexpected message: %s", gwErr.Message)
	}
}

func TestReplyAgainstUpstream(t *testing.T) {
	cases := []struct {
		status  int
		kind    Kind
		message string
	}{
		{http.StatusForbidden, KindForbidden, msgForbidden},
		{http.StatusUnauthorized, KindUnauthorized, msgUnauthorized},
		{http.StatusTooManyRequests, KindRateLimited, msgRateLimited},
		{http.StatusBadGateway, KindUpstream, "API 请求失败: 502"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"error":{"message":"upstream says no"}}`)
			}))
			defer srv.Close()

			g := New(Options{})
			_, err := g.Reply(context.Background(), Request{
				Messages:    []types.Turn{{Role: types.RoleUser, Content: "hi"}},
				Persona:     testPersona(),
				APISettings: &types.APISettings{APIKey: "sk-test", BaseURL: srv.URL},
			})
			gwErr := expectKind(t, err, tc.kind, tc.status)
			if gwErr.Message != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, gwErr.Message)
			}
			if calls != 1 {
				t.Fatalf("expected no retry, got %d calls", calls)
			}
		})
	}
}

func TestReplyStreamAgainstUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"chatcmpl-9\",\"choices\":[{\"delta\":{\"content\":\"嗨\\n\"}}]}\n")
		fmt.Fprint(w, "data: {oops\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"想你了\"}}]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	g := New(Options{APIKey: "sk-env", BaseURL: srv.URL})
	got, err := g.Reply(context.Background(), Request{
		Messages: []types.Turn{{Role: types.RoleUser, Content: "在吗"}},
		Persona:  testPersona(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Reply != "嗨\n想你了" || got.RequestID != "chatcmpl-9" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestReplyEmptyStreamAgainstUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"chatcmpl-0\",\"choices\":[{\"delta\":{}}]}\ndata: [DONE]\n")
	}))
	defer srv.Close()

	g := New(Options{APIKey: "sk-env", BaseURL: srv.URL})
	_, err := g.Reply(context.Background(), Request{Messages: []types.Turn{}, Persona: testPersona()})
	gwErr := expectKind(t, err, KindEmptyReply, http.StatusInternalServerError)
	if gwErr.RequestID != "chatcmpl-0" {
		t.Fatalf("expected request id carried, got %q", gwErr.RequestID)
	}
}
