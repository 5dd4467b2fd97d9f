package emotion

import (
	"time"

	"github.com/easeaico/her-chat/internal/types"
)

// styleDelta is a signed change per slider. Zero means untouched.
type styleDelta struct {
	warmth            int
	verbosity         int
	sweetness         int
	emojiFrequency    int
	physicalAffection int
}

var moodDeltas = map[types.QuickMood]styleDelta{
	types.MoodRestrained: {sweetness: -30, physicalAffection: -30, emojiFrequency: -20},
	types.MoodSweet:      {sweetness: 25, warmth: 15},
	types.MoodComforting: {warmth: 20, verbosity: 20, physicalAffection: 20},
	types.MoodPlayful:    {sweetness: 15, emojiFrequency: 25, warmth: 10},
}

var nowFunc = time.Now

// ApplyQuickMood returns a copy of persona with the mood's deltas applied.
// Touched sliders are clamped to 0-100 and UpdatedAt is restamped; the
// argument is never modified.
func ApplyQuickMood(persona types.Persona, mood types.QuickMood) types.Persona {
	updated := persona
	delta := moodDeltas[mood]

	updated.Style.Warmth = adjust(updated.Style.Warmth, delta.warmth)
	updated.Style.Verbosity = adjust(updated.Style.Verbosity, delta.verbosity)
	updated.Style.Sweetness = adjust(updated.Style.Sweetness, delta.sweetness)
	updated.Style.EmojiFrequency = adjust(updated.Style.EmojiFrequency, delta.emojiFrequency)
	updated.Style.PhysicalAffection = adjust(updated.Style.PhysicalAffection, delta.physicalAffection)

	updated.UpdatedAt = nowFunc().UnixMilli()
	return updated
}

func adjust(value, delta int) int {
	if delta == 0 {
		return value
	}
	return ClampStyleValue(value + delta)
}
