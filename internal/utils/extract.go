// Package utils normalizes the loosely specified bodies returned by
// chat-completion style endpoints.
package utils

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// textMatcher recognises one response shape. It returns ok=false when the
// shape does not apply so the next matcher gets a chance.
type textMatcher struct {
	name  string
	match func(root gjson.Result) (string, bool)
}

// Order matters: the first matching shape wins.
var textMatchers = []textMatcher{
	{name: "choices.message.content", match: func(root gjson.Result) (string, bool) {
		choice, ok := firstElement(root.Get("choices"))
		if !ok {
			return "", false
		}
		message := choice.Get("message")
		if !message.IsObject() {
			return "", false
		}
		return stringField(message, "content")
	}},
	{name: "choices.content", match: func(root gjson.Result) (string, bool) {
		choice, ok := firstElement(root.Get("choices"))
		if !ok {
			return "", false
		}
		return stringField(choice, "content")
	}},
	{name: "output.content.text", match: func(root gjson.Result) (string, bool) {
		output, ok := firstElement(root.Get("output"))
		if !ok {
			return "", false
		}
		part, ok := firstElement(output.Get("content"))
		if !ok {
			return "", false
		}
		return stringField(part, "text")
	}},
	{name: "output_text", match: func(root gjson.Result) (string, bool) {
		return stringField(root, "output_text")
	}},
	{name: "content", match: func(root gjson.Result) (string, bool) {
		return stringField(root, "content")
	}},
	{name: "text", match: func(root gjson.Result) (string, bool) {
		return stringField(root, "text")
	}},
	{name: "message.content", match: func(root gjson.Result) (string, bool) {
		message := root.Get("message")
		if !message.IsObject() {
			return "", false
		}
		return stringField(message, "content")
	}},
}

// ExtractText returns the reply text of a completion body, or "" when no
// known shape carries one. Invalid JSON and non-object roots yield "".
func ExtractText(raw []byte) string {
	root, ok := parseObject(raw)
	if !ok {
		return ""
	}
	for _, m := range textMatchers {
		if text, ok := m.match(root); ok {
			return text
		}
	}
	return ""
}

// ExtractRequestID returns the upstream correlation id. A x-request-id
// header wins over the body's "id" and "request_id" fields. "" means absent.
func ExtractRequestID(raw []byte, headers http.Header) string {
	if headers != nil {
		if id := strings.TrimSpace(headers.Get("x-request-id")); id != "" {
			return id
		}
	}
	root, ok := parseObject(raw)
	if !ok {
		return ""
	}
	if id, ok := stringField(root, "id"); ok {
		return id
	}
	if id, ok := stringField(root, "request_id"); ok {
		return id
	}
	return ""
}

func parseObject(raw []byte) (gjson.Result, bool) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return gjson.Result{}, false
	}
	return root, true
}

// firstElement returns element 0 of a non-empty JSON array.
func firstElement(value gjson.Result) (gjson.Result, bool) {
	if !value.IsArray() {
		return gjson.Result{}, false
	}
	items := value.Array()
	if len(items) == 0 {
		return gjson.Result{}, false
	}
	return items[0], true
}

func stringField(obj gjson.Result, key string) (string, bool) {
	if !obj.IsObject() {
		return "", false
	}
	field := obj.Get(key)
	if field.Type != gjson.String {
		return "", false
	}
	return field.Str, true
}
