package types

import "encoding/json"

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.85
	DefaultMaxTokens   = 2048
)

// APISettings are the user-supplied connection parameters.
// UseEnvKey selects the server's default credentials over APIKey.
type APISettings struct {
	APIKey      string  `json:"apiKey"`
	BaseURL     string  `json:"baseUrl"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	UseEnvKey   bool    `json:"useEnvKey"`
}

// UnmarshalJSON keeps DefaultTemperature when the payload omits temperature.
// An explicit 0 is kept.
func (s *APISettings) UnmarshalJSON(data []byte) error {
	type plain APISettings
	decoded := plain{Temperature: DefaultTemperature}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = APISettings(decoded)
	return nil
}

// DefaultAPISettings returns the settings used on a read miss.
func DefaultAPISettings() APISettings {
	return APISettings{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		UseEnvKey:   true,
	}
}

// Avatars are base64 data URLs or plain URLs.
type Avatars struct {
	UserAvatar string `json:"userAvatar"`
	AIAvatar   string `json:"aiAvatar"`
}
