package types

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single chat bubble.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ChatSession is an ordered conversation with one persona.
// PersonaID is a weak reference.
type ChatSession struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Messages  []Message `json:"messages"`
	PersonaID string    `json:"personaId"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// Turn is one prior exchange sent upstream.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
