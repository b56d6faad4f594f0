package services

import (
	"testing"
)

func TestParseScenesPlainArray(t *testing.T) {
	raw := `[
		{"narration": "The ocean hides a secret.", "visual": "Deep sea trench, bioluminescent light", "visual_text": "The Deep"},
		{"narration": "And it's bigger than you think.", "visual": "Whale silhouette against sunbeams", "visual_text": ""}
	]`

	scenes, err := parseScenes(raw, "the ocean")
	if err != nil {
		t.Fatalf("parseScenes: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if scenes[0].Narration != "The ocean hides a secret." {
		t.Errorf("narration = %q", scenes[0].Narration)
	}
	if scenes[0].VisualText != "The Deep" {
		t.Errorf("visual_text = %q", scenes[0].VisualText)
	}
}

func TestParseScenesMarkdownFence(t *testing.T) {
	raw := "Here is your script:\n```json\n[{\"narration\": \"Hello.\", \"visual\": \"A door\", \"visual_text\": \"Hi\"}]\n```\nEnjoy!"

	scenes, err := parseScenes(raw, "doors")
	if err != nil {
		t.Fatalf("parseScenes: %v", err)
	}
	if len(scenes) != 1 || scenes[0].Narration != "Hello." {
		t.Fatalf("unexpected scenes: %+v", scenes)
	}
}

func TestParseScenesWrapperObject(t *testing.T) {
	for _, key := range []string{"scenes", "script", "response", "data"} {
		raw := `{"` + key + `": [{"narration": "One.", "visual": "A number"}]}`
		scenes, err := parseScenes(raw, "numbers")
		if err != nil {
			t.Fatalf("key %s: %v", key, err)
		}
		if len(scenes) != 1 || scenes[0].Narration != "One." {
			t.Fatalf("key %s: unexpected scenes %+v", key, scenes)
		}
	}
}

func TestParseScenesStringList(t *testing.T) {
	raw := `["First line.", "Second line."]`
	scenes, err := parseScenes(raw, "history of tea")
	if err != nil {
		t.Fatalf("parseScenes: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if scenes[0].Narration != "First line." {
		t.Errorf("narration = %q", scenes[0].Narration)
	}
	if scenes[0].VisualPrompt != "Visual of history of tea" {
		t.Errorf("visual repaired to %q", scenes[0].VisualPrompt)
	}
}

func TestParseScenesMissingFieldsRepaired(t *testing.T) {
	raw := `[{"visual": "An empty stage"}]`
	scenes, err := parseScenes(raw, "silence")
	if err != nil {
		t.Fatalf("parseScenes: %v", err)
	}
	if scenes[0].Narration != "..." {
		t.Errorf("narration placeholder = %q", scenes[0].Narration)
	}
}

func TestParseScenesNoJSON(t *testing.T) {
	if _, err := parseScenes("I cannot help with that.", "x"); err == nil {
		t.Fatal("expected error for prose-only response")
	}
}

func TestCleanJSONTextObjectBounds(t *testing.T) {
	got := cleanJSONText("note: {\"scenes\": []} trailing")
	if got != `{"scenes": []}` {
		t.Errorf("cleanJSONText = %q", got)
	}
}
