// Package gateway turns a conversation and a persona into one reply from an
// OpenAI-compatible completion endpoint.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/easeaico/her-chat/internal/models"
	"github.com/easeaico/her-chat/internal/prompt"
	"github.com/easeaico/her-chat/internal/types"
)

const (
	framingSystem = "你是一个AI角色扮演助手，请严格按照用户第一条消息中的角色设定来回复。"
	framingAck    = "好的，我会严格按照设定扮演这个角色。请开始对话吧～"

	defaultHistoryLimit = 20
	defaultTimeout      = 90 * time.Second
)

// Options are the process-wide defaults used when a request does not carry
// its own credentials.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	HistoryLimit int
}

// Request is one reply request.
type Request struct {
	Messages    []types.Turn
	Persona     *types.Persona
	Model       string
	Temperature *float64
	APISettings *types.APISettings
}

// Result is a successful reply.
type Result struct {
	Reply     string
	RequestID string
}

type completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (models.Completion, error)
}

type Gateway struct {
	opts      Options
	newClient func(baseURL, apiKey string) (completer, error)
}

func New(opts Options) *Gateway {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Gateway{
		opts: opts,
		newClient: func(baseURL, apiKey string) (completer, error) {
			return models.NewClient(baseURL, apiKey)
		},
	}
}

// Reply validates the request, frames it around the rendered persona and
// returns the consolidated reply. Every failure is a *Error.
func (g *Gateway) Reply(ctx context.Context, req Request) (Result, error) {
	if req.Messages == nil {
		return Result{}, inputError(msgMissingMessages)
	}
	if req.Persona == nil {
		return Result{}, inputError(msgMissingPersona)
	}

	apiKey, baseURL := g.resolveCredentials(req.APISettings)
	if apiKey == "" {
		return Result{}, configError()
	}

	client, err := g.newClient(baseURL, apiKey)
	if err != nil {
		return Result{}, unexpectedError(err, "")
	}

	systemPrompt := prompt.RenderPersona(*req.Persona)
	completionReq := models.CompletionRequest{
		Model:       g.resolveModel(req.Model, req.APISettings),
		Messages:    frameMessages(systemPrompt, truncateHistory(req.Messages, g.opts.HistoryLimit)),
		Temperature: resolveTemperature(req.Temperature, req.APISettings),
		MaxTokens:   resolveMaxTokens(req.APISettings),
	}
	slog.Info("requesting completion",
		"model", completionReq.Model,
		"temperature", completionReq.Temperature,
		"base_url", baseURL,
		"turns", len(completionReq.Messages))
	slog.Debug("persona prompt", "prompt", systemPrompt)

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	completion, err := client.Complete(ctx, completionReq)
	if err != nil {
		gwErr := classify(err)
		if gwErr.RequestID == "" {
			gwErr.RequestID = completion.RequestID
		}
		slog.Error("failed to get completion", "kind", string(gwErr.Kind), "status", gwErr.Status, "error", err.Error())
		return Result{}, gwErr
	}

	slog.Info("completion finished", "request_id", completion.RequestID)
	if strings.TrimSpace(completion.Text) == "" {
		slog.Error("empty completion", "request_id", completion.RequestID)
		return Result{}, EmptyReplyError(completion.RequestID)
	}
	return Result{Reply: completion.Text, RequestID: completion.RequestID}, nil
}

func (g *Gateway) resolveCredentials(settings *types.APISettings) (apiKey, baseURL string) {
	if settings != nil && !settings.UseEnvKey && settings.APIKey != "" {
		baseURL = settings.BaseURL
		if baseURL == "" {
			baseURL = types.DefaultBaseURL
		}
		return settings.APIKey, baseURL
	}
	baseURL = g.opts.BaseURL
	if baseURL == "" {
		baseURL = types.DefaultBaseURL
	}
	return g.opts.APIKey, baseURL
}

func (g *Gateway) resolveModel(explicit string, settings *types.APISettings) string {
	if explicit != "" {
		return explicit
	}
	var candidates []string
	switch {
	case settings == nil:
		candidates = []string{g.opts.Model}
	case settings.UseEnvKey:
		candidates = []string{g.opts.Model, settings.Model}
	default:
		candidates = []string{settings.Model, g.opts.Model}
	}
	for _, model := range candidates {
		if model != "" {
			return model
		}
	}
	return types.DefaultModel
}

func resolveTemperature(explicit *float64, settings *types.APISettings) float64 {
	if explicit != nil {
		return *explicit
	}
	if settings != nil {
		return settings.Temperature
	}
	return types.DefaultTemperature
}

func resolveMaxTokens(settings *types.APISettings) int {
	if settings != nil && settings.MaxTokens > 0 {
		return settings.MaxTokens
	}
	return types.DefaultMaxTokens
}

// truncateHistory keeps the most recent limit turns.
func truncateHistory(turns []types.Turn, limit int) []types.Turn {
	if len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}

// frameMessages wraps history with the role-play framing: a system turn,
// the persona prompt as the first user turn and an acknowledgement.
func frameMessages(systemPrompt string, history []types.Turn) []types.Turn {
	framed := make([]types.Turn, 0, len(history)+3)
	framed = append(framed,
		types.Turn{Role: types.RoleSystem, Content: framingSystem},
		types.Turn{Role: types.RoleUser, Content: fmt.Sprintf("【角色设定，请严格遵守】\n%s\n\n---\n请记住以上设定，接下来开始角色扮演。", systemPrompt)},
		types.Turn{Role: types.RoleAssistant, Content: framingAck},
	)
	return append(framed, history...)
}
