package emotion

import (
	"testing"
	"time"

	"github.com/easeaico/her-chat/internal/types"
)

func withFixedNow(t *testing.T, ts time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return ts }
	t.Cleanup(func() { nowFunc = prev })
}

func testPersona() types.Persona {
	return types.Persona{
		ID: "p-1",
		Style: types.SpeakingStyle{
			Warmth:            50,
			Verbosity:         50,
			Sweetness:         50,
			EmojiFrequency:    50,
			PhysicalAffection: 50,
		},
		UpdatedAt: 1,
	}
}

func TestApplyQuickMoodDeltas(t *testing.T) {
	cases := []struct {
		mood types.QuickMood
		want types.SpeakingStyle
	}{
		{types.MoodRestrained, types.SpeakingStyle{Warmth: 50, Verbosity: 50, Sweetness: 20, EmojiFrequency: 30, PhysicalAffection: 20}},
		{types.MoodSweet, types.SpeakingStyle{Warmth: 65, Verbosity: 50, Sweetness: 75, EmojiFrequency: 50, PhysicalAffection: 50}},
		{types.MoodComforting, types.SpeakingStyle{Warmth: 70, Verbosity: 70, Sweetness: 50, EmojiFrequency: 50, PhysicalAffection: 70}},
		{types.MoodPlayful, types.SpeakingStyle{Warmth: 60, Verbosity: 50, Sweetness: 65, EmojiFrequency: 75, PhysicalAffection: 50}},
	}
	for _, tc := range cases {
		got := ApplyQuickMood(testPersona(), tc.mood)
		if got.Style != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.mood, tc.want, got.Style)
		}
	}
}

func TestApplyQuickMoodClampsHigh(t *testing.T) {
	p := testPersona()
	p.Style.Sweetness = 90

	got := ApplyQuickMood(p, types.MoodSweet)
	if got.Style.Sweetness != 100 {
		t.Fatalf("expected sweetness clamped to 100, got %d", got.Style.Sweetness)
	}

	again := ApplyQuickMood(got, types.MoodSweet)
	if again.Style.Sweetness != 100 {
		t.Fatalf("expected sweetness to stay at 100, got %d", again.Style.Sweetness)
	}
}

func TestApplyQuickMoodClampsLow(t *testing.T) {
	p := testPersona()
	p.Style.EmojiFrequency = 5
	p.Style.PhysicalAffection = 10

	got := ApplyQuickMood(p, types.MoodRestrained)
	if got.Style.EmojiFrequency != 0 || got.Style.PhysicalAffection != 0 {
		t.Fatalf("expected clamped to 0, got %+v", got.Style)
	}
}

func TestApplyQuickMoodDoesNotMutateArgument(t *testing.T) {
	withFixedNow(t, time.UnixMilli(5000))
	p := testPersona()

	got := ApplyQuickMood(p, types.MoodComforting)
	if p.Style.Warmth != 50 || p.UpdatedAt != 1 {
		t.Fatalf("argument was modified: %+v", p)
	}
	if got.UpdatedAt != 5000 {
		t.Fatalf("expected UpdatedAt 5000, got %d", got.UpdatedAt)
	}
}

func TestParseQuickMood(t *testing.T) {
	mood, err := ParseQuickMood(" Sweet ")
	if err != nil || mood != types.MoodSweet {
		t.Fatalf("expected sweet, got %q (%v)", mood, err)
	}
	if _, err := ParseQuickMood("angry"); err == nil {
		t.Fatalf("expected error for unknown mood")
	}
}

func TestClampStyle(t *testing.T) {
	got := ClampStyle(types.SpeakingStyle{Warmth: -5, Verbosity: 101, Sweetness: 40})
	want := types.SpeakingStyle{Warmth: 0, Verbosity: 100, Sweetness: 40}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
