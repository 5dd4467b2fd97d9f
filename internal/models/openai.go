// Package models 提供 OpenAI 兼容接口的聊天补全客户端。
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"runtime"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/easeaico/her-chat/internal/types"
	"github.com/easeaico/her-chat/internal/utils"
)

const completionsPath = "chat/completions"

// Client 封装一个指向固定 baseURL 与密钥的 OpenAI 兼容客户端。
type Client struct {
	client             *openai.Client
	baseURL            string
	versionHeaderValue string
}

// CompletionRequest 描述一次聊天补全调用。
type CompletionRequest struct {
	Model       string
	Messages    []types.Turn
	Temperature float64
	MaxTokens   int
}

// Completion 是累积后的回复文本与上游关联 ID。
type Completion struct {
	Text      string
	RequestID string
}

// StatusError 表示上游返回了非 2xx 状态。
type StatusError struct {
	StatusCode int
	RequestID  string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion API returned status %d", e.StatusCode)
}

func NewClient(baseURL, apiKey string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	// 上游失败直接暴露给用户，不做自动重试。
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	clientOpts = append(clientOpts, opts...)
	client := openai.NewClient(clientOpts...)

	headerValue := fmt.Sprintf("her-chat/%s go/%s",
		"1.0.0", strings.TrimPrefix(runtime.Version(), "go"))

	return &Client{
		client:             &client,
		baseURL:            baseURL,
		versionHeaderValue: headerValue,
	}, nil
}

// Complete 发送流式请求并把增量合并为一条回复。
// 上游若直接返回 JSON 响应体，则按非流式结构提取文本。
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	params := buildOpenAIParams(req)

	var raw *http.Response
	err := c.client.Post(ctx, completionsPath, params, &raw,
		option.WithJSONSet("stream", true),
		option.WithHeader("User-Agent", c.versionHeaderValue),
	)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Completion{}, statusErrorFrom(apiErr)
		}
		return Completion{}, fmt.Errorf("failed to call completion API: %w", err)
	}
	if raw == nil || raw.Body == nil {
		return Completion{}, fmt.Errorf("completion API returned no body")
	}
	defer func() {
		if err := raw.Body.Close(); err != nil {
			slog.Error("failed to close completion body", "error", err.Error())
		}
	}()

	if raw.StatusCode < 200 || raw.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(raw.Body, 64<<10))
		return Completion{}, &StatusError{
			StatusCode: raw.StatusCode,
			RequestID:  raw.Header.Get("x-request-id"),
			Body:       string(body),
		}
	}

	if isJSONResponse(raw.Header.Get("Content-Type")) {
		body, err := io.ReadAll(raw.Body)
		if err != nil {
			return Completion{}, fmt.Errorf("failed to read completion body: %w", err)
		}
		return Completion{
			Text:      utils.ExtractText(body),
			RequestID: utils.ExtractRequestID(body, raw.Header),
		}, nil
	}

	completion, err := ConsumeStream(raw.Body)
	if completion.RequestID == "" {
		completion.RequestID = raw.Header.Get("x-request-id")
	}
	if err != nil {
		if strings.TrimSpace(completion.Text) == "" {
			return completion, err
		}
		slog.Warn("completion stream ended early", "request_id", completion.RequestID, "error", err.Error())
	}
	return completion, nil
}

func statusErrorFrom(apiErr *openai.Error) *StatusError {
	statusErr := &StatusError{
		StatusCode: apiErr.StatusCode,
		Body:       apiErr.RawJSON(),
	}
	if apiErr.Response != nil {
		statusErr.RequestID = apiErr.Response.Header.Get("x-request-id")
	}
	return statusErr
}

func isJSONResponse(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
