package models

import (
	"github.com/openai/openai-go/v3"

	"github.com/easeaico/her-chat/internal/types"
)

// buildOpenAIParams converts a completion request to OpenAI parameters.
func buildOpenAIParams(req CompletionRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: convertTurnsToMessages(req.Messages),
	}
	params.Temperature = openai.Float(req.Temperature)
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

func convertTurnsToMessages(turns []types.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case types.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case types.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	return messages
}
