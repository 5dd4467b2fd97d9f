package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/easeaico/her-chat/internal/types"
)

func TestRenderPersonaContainsNickname(t *testing.T) {
	nicknames := []string{"宝贝", "亲爱的", "Alex", "{{.UserNickname}}", "a \"quoted\" name", ""}
	for _, nickname := range nicknames {
		persona := NewPersona("p-1", "测试", time.Unix(0, 0))
		persona.UserNickname = nickname

		got := RenderPersona(persona)
		if strings.TrimSpace(got) == "" {
			t.Fatalf("expected non-empty prompt for nickname %q", nickname)
		}
		if !strings.Contains(got, "称呼对方为\""+nickname+"\"") {
			t.Fatalf("expected prompt to address user as %q", nickname)
		}
	}
}

func TestRenderPersonaZeroValue(t *testing.T) {
	got := RenderPersona(types.Persona{})
	if got == "" {
		t.Fatalf("expected non-empty prompt for zero persona")
	}
}

func TestRenderPersonaIncludesRules(t *testing.T) {
	got := RenderPersona(DefaultPersona(time.Now()))
	for _, want := range []string{"不解释自己是AI", "自我标签", "不结构化表达", "每条回复用换行分隔"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
}

func TestRenderPersonaIgnoresStyle(t *testing.T) {
	base := DefaultPersona(time.Now())
	tuned := base
	tuned.Style = types.SpeakingStyle{Warmth: 0, Verbosity: 100, Sweetness: 0, EmojiFrequency: 100, PhysicalAffection: 0}
	tuned.Goals = types.CompanionGoals{}

	if RenderPersona(base) != RenderPersona(tuned) {
		t.Fatalf("expected style and goals not to change the rendered prompt")
	}
}

func TestDefaultPersona(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	p := DefaultPersona(now)
	if p.ID != DefaultPersonaID {
		t.Fatalf("unexpected id: %s", p.ID)
	}
	if p.UserNickname != "宝贝" || p.Style.EmojiFrequency != 0 {
		t.Fatalf("unexpected default persona: %+v", p)
	}
	if p.CreatedAt != now.UnixMilli() || p.UpdatedAt != now.UnixMilli() {
		t.Fatalf("unexpected timestamps: %d/%d", p.CreatedAt, p.UpdatedAt)
	}
}

func TestNewPersonaDefaultsName(t *testing.T) {
	p := NewPersona("id-1", "", time.Now())
	if p.Name != "新角色" || p.CharacterName != "新角色" {
		t.Fatalf("expected default name, got %q/%q", p.Name, p.CharacterName)
	}
	if p.Habits.InitiativeLevel != types.InitiativeMedium {
		t.Fatalf("unexpected initiative: %s", p.Habits.InitiativeLevel)
	}
}
