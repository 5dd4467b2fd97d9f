package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/easeaico/her-chat/internal/types"
)

type ExportFormat string

const (
	ExportMarkdown ExportFormat = "markdown"
	ExportJSON     ExportFormat = "json"
)

// Export renders a session as a downloadable document and returns the
// content, a file name and a MIME type.
func (s *Store) Export(id string, format ExportFormat) ([]byte, string, string, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, "", "", err
	}
	var persona *types.Persona
	if current, err := s.CurrentPersona(); err == nil {
		persona = &current
	}

	stamp := s.nowFunc().Format("2006-01-02")
	switch format {
	case ExportMarkdown, "":
		return []byte(RenderMarkdown(session, persona, time.Local)), "chat-" + stamp + ".md", "text/markdown; charset=utf-8", nil
	case ExportJSON:
		content, err := json.MarshalIndent(session, "", "  ")
		if err != nil {
			return nil, "", "", fmt.Errorf("failed to encode session: %w", err)
		}
		return content, "chat-" + stamp + ".json", "application/json", nil
	default:
		return nil, "", "", fmt.Errorf("%w: unknown export format %q", ErrInvalidInput, format)
	}
}

// RenderMarkdown formats a transcript. Timestamps use loc.
func RenderMarkdown(session types.ChatSession, persona *types.Persona, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", session.Name)
	fmt.Fprintf(&b, "**创建时间**: %s\n", time.UnixMilli(session.CreatedAt).In(loc).Format("2006/1/2 15:04:05"))
	if persona != nil {
		fmt.Fprintf(&b, "**角色**: %s\n", persona.CharacterName)
	}
	b.WriteString("\n---\n\n")

	assistant := "助手"
	if persona != nil && persona.CharacterName != "" {
		assistant = persona.CharacterName
	}
	for _, message := range session.Messages {
		sender := assistant
		if message.Role == types.RoleUser {
			sender = "我"
		}
		fmt.Fprintf(&b, "**%s** (%s):\n\n%s\n\n", sender,
			time.UnixMilli(message.Timestamp).In(loc).Format("15:04:05"), message.Content)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
