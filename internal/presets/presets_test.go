package presets

import "testing"

func TestProvidersEmbedded(t *testing.T) {
	list, err := Providers()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) == 0 || list[0].ID != "openai" {
		t.Fatalf("expected openai first, got %+v", list)
	}
	openai, ok := Lookup("openai")
	if !ok || openai.BaseURL != "https://api.openai.com/v1" || openai.Models[0] != "gpt-4o-mini" {
		t.Fatalf("unexpected openai preset: %+v", openai)
	}
	if _, ok := Lookup("nope"); ok {
		t.Fatalf("expected unknown preset to be missing")
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	doc := "[[provider]]\nid = \"a\"\n[[provider]]\nid = \"a\"\n"
	if _, err := Parse(doc); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := Parse("[[provider]]\nname = \"x\"\n"); err == nil {
		t.Fatalf("expected missing id error")
	}
}
