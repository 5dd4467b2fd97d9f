package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/easeaico/her-chat/internal/models"
)

// Kind classifies a failed reply.
type Kind string

const (
	KindInput        Kind = "input"
	KindConfig       Kind = "config"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindUpstream     Kind = "upstream"
	KindEmptyReply   Kind = "empty_reply"
	KindUnexpected   Kind = "unexpected"
)

const (
	msgMissingMessages = "messages 字段是必需的"
	msgMissingPersona  = "persona 字段是必需的"
	msgMissingAPIKey   = "API Key 未配置。请在设置中填写 API Key 或配置环境变量 OPENAI_API_KEY"
	msgForbidden       = "请求被拒绝 (403)，可能是 API 服务商的限制"
	msgUnauthorized    = "API 密钥无效，请检查配置"
	msgRateLimited     = "请求太频繁，请稍后再试"
	msgEmptyReply      = "AI 返回了空响应，请重试"
)

// Error is the single failure type returned by Reply. Message is
// user-facing; Status is the HTTP status the failure maps to.
type Error struct {
	Kind      Kind
	Status    int
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError returns err as a *Error, wrapping anything else as unexpected.
func AsError(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return unexpectedError(err, "")
}

func inputError(message string) *Error {
	return &Error{Kind: KindInput, Status: http.StatusBadRequest, Message: message}
}

func configError() *Error {
	return &Error{Kind: KindConfig, Status: http.StatusUnauthorized, Message: msgMissingAPIKey}
}

// EmptyReplyError reports a reply with no usable text.
func EmptyReplyError(requestID string) *Error {
	return &Error{
		Kind:      KindEmptyReply,
		Status:    http.StatusInternalServerError,
		Message:   msgEmptyReply,
		RequestID: requestID,
	}
}

func unexpectedError(err error, requestID string) *Error {
	return &Error{
		Kind:      KindUnexpected,
		Status:    http.StatusInternalServerError,
		Message:   fmt.Sprintf("请求失败: %v", err),
		RequestID: requestID,
		Err:       err,
	}
}

// classify maps a completion failure onto the taxonomy.
func classify(err error) *Error {
	var statusErr *models.StatusError
	if !errors.As(err, &statusErr) {
		return unexpectedError(err, "")
	}

	gwErr := &Error{Status: statusErr.StatusCode, RequestID: statusErr.RequestID, Err: err}
	switch statusErr.StatusCode {
	case http.StatusForbidden:
		gwErr.Kind, gwErr.Message = KindForbidden, msgForbidden
	case http.StatusUnauthorized:
		gwErr.Kind, gwErr.Message = KindUnauthorized, msgUnauthorized
	case http.StatusTooManyRequests:
		gwErr.Kind, gwErr.Message = KindRateLimited, msgRateLimited
	default:
		gwErr.Kind = KindUpstream
		gwErr.Message = fmt.Sprintf("API 请求失败: %d", statusErr.StatusCode)
	}
	return gwErr
}
