// Package types holds the domain records shared across packages.
package types

// RelationshipType is the relationship stage the persona plays.
type RelationshipType string

const (
	RelationshipAmbiguous    RelationshipType = "ambiguous"
	RelationshipStable       RelationshipType = "stable"
	RelationshipLongDistance RelationshipType = "long_distance"
	RelationshipCompanion    RelationshipType = "companion"
)

// InitiativeLevel controls how often the persona starts topics.
type InitiativeLevel string

const (
	InitiativeLow    InitiativeLevel = "low"
	InitiativeMedium InitiativeLevel = "medium"
	InitiativeHigh   InitiativeLevel = "high"
)

// CompanionGoals are independent conversational objectives.
type CompanionGoals struct {
	DailyChat        bool `json:"dailyChat" yaml:"dailyChat"`
	EmotionalSupport bool `json:"emotionalSupport" yaml:"emotionalSupport"`
	LightFlirting    bool `json:"lightFlirting" yaml:"lightFlirting"`
	Rituals          bool `json:"rituals" yaml:"rituals"`
	TaskCompanion    bool `json:"taskCompanion" yaml:"taskCompanion"`
}

// SpeakingStyle sliders, each in [0,100].
type SpeakingStyle struct {
	Warmth            int `json:"warmth" yaml:"warmth"`
	Verbosity         int `json:"verbosity" yaml:"verbosity"`
	Sweetness         int `json:"sweetness" yaml:"sweetness"`
	EmojiFrequency    int `json:"emojiFrequency" yaml:"emojiFrequency"`
	PhysicalAffection int `json:"physicalAffection" yaml:"physicalAffection"`
}

// InteractionHabits holds initiative, memory notes and ritual message templates.
type InteractionHabits struct {
	InitiativeLevel  InitiativeLevel `json:"initiativeLevel" yaml:"initiativeLevel"`
	MemoryNotes      string          `json:"memoryNotes" yaml:"memoryNotes"`
	MorningGreeting  string          `json:"morningGreeting" yaml:"morningGreeting"`
	NightGreeting    string          `json:"nightGreeting" yaml:"nightGreeting"`
	MissYouMessage   string          `json:"missYouMessage" yaml:"missYouMessage"`
	EncourageMessage string          `json:"encourageMessage" yaml:"encourageMessage"`
	ComfortMessage   string          `json:"comfortMessage" yaml:"comfortMessage"`
	ApologizeMessage string          `json:"apologizeMessage" yaml:"apologizeMessage"`
	ActCuteMessage   string          `json:"actCuteMessage" yaml:"actCuteMessage"`
}

// Persona is a configurable chat character.
// Timestamps are Unix milliseconds.
type Persona struct {
	ID                string            `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	CharacterName     string            `json:"characterName" yaml:"characterName"`
	RelationshipType  RelationshipType  `json:"relationshipType" yaml:"relationshipType"`
	UserNickname      string            `json:"userNickname" yaml:"userNickname"`
	CharacterNickname string            `json:"characterNickname" yaml:"characterNickname"`
	Goals             CompanionGoals    `json:"goals" yaml:"goals"`
	Style             SpeakingStyle     `json:"style" yaml:"style"`
	Habits            InteractionHabits `json:"habits" yaml:"habits"`
	CustomNotes       string            `json:"customNotes" yaml:"customNotes"`
	CreatedAt         int64             `json:"createdAt" yaml:"createdAt"`
	UpdatedAt         int64             `json:"updatedAt" yaml:"updatedAt"`
}

// QuickMood is a one-click style adjustment.
type QuickMood string

const (
	MoodRestrained QuickMood = "restrained"
	MoodSweet      QuickMood = "sweet"
	MoodComforting QuickMood = "comforting"
	MoodPlayful    QuickMood = "playful"
)
