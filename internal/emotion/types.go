// Package emotion adjusts a persona's speaking style.
package emotion

import (
	"fmt"
	"strings"

	"github.com/easeaico/her-chat/internal/types"
)

const (
	minStyle = 0
	maxStyle = 100
)

// ClampStyleValue bounds a slider to 0-100.
func ClampStyleValue(score int) int {
	switch {
	case score < minStyle:
		return minStyle
	case score > maxStyle:
		return maxStyle
	default:
		return score
	}
}

// ClampStyle bounds every slider of a style.
func ClampStyle(style types.SpeakingStyle) types.SpeakingStyle {
	return types.SpeakingStyle{
		Warmth:            ClampStyleValue(style.Warmth),
		Verbosity:         ClampStyleValue(style.Verbosity),
		Sweetness:         ClampStyleValue(style.Sweetness),
		EmojiFrequency:    ClampStyleValue(style.EmojiFrequency),
		PhysicalAffection: ClampStyleValue(style.PhysicalAffection),
	}
}

// ParseQuickMood validates a mood name.
func ParseQuickMood(value string) (types.QuickMood, error) {
	mood := types.QuickMood(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := moodDeltas[mood]; !ok {
		return "", fmt.Errorf("invalid quick mood: %q", value)
	}
	return mood, nil
}
