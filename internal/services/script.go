package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/reelagent/reelagent/internal/models"
)

// Logf is the per-job logging callback threaded through the pipeline so
// provider activity lands in the job's log as well as the process log.
type Logf func(format string, args ...any)

// ScriptGenerator produces the scene list for a topic. The second return
// value is the raw model output, kept for diagnostics.
type ScriptGenerator interface {
	Generate(ctx context.Context, topic string, sceneCount int, mode models.DurationMode, logf Logf) ([]models.Scene, string, error)
}

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama-3.3-70b-versatile"
	scriptAttempts   = 3
)

// GroqService generates scripts through Groq's OpenAI-compatible endpoint.
type GroqService struct {
	client  *openai.Client
	model   string
	backoff Backoff
}

var _ ScriptGenerator = (*GroqService)(nil)

func NewGroqService(apiKey, model string) *GroqService {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	if model == "" {
		model = defaultGroqModel
	}
	return &GroqService{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		backoff: DefaultBackoff,
	}
}

func (s *GroqService) Generate(ctx context.Context, topic string, sceneCount int, mode models.DurationMode, logf Logf) ([]models.Scene, string, error) {
	systemPrompt := buildScriptSystemPrompt(sceneCount, mode)
	userPrompt := fmt.Sprintf("Write the scene list for the topic: %q", topic)

	var lastErr error
	for attempt := 0; attempt < scriptAttempts; attempt++ {
		if attempt > 0 {
			logf("Script generation attempt %d/%d...", attempt+1, scriptAttempts)
			if err := s.backoff.Wait(ctx, attempt); err != nil {
				return nil, "", err
			}
		}

		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: 0.8,
		})
		if err != nil {
			lastErr = fmt.Errorf("groq request failed: %w", err)
			log.Printf("[Groq] attempt %d: %v", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response from groq")
			continue
		}

		raw := resp.Choices[0].Message.Content
		scenes, err := parseScenes(raw, topic)
		if err != nil {
			lastErr = fmt.Errorf("failed to parse script: %w", err)
			log.Printf("[Groq] attempt %d parse failed: %v (raw: %s)", attempt+1, err, truncateString(raw, 500))
			continue
		}
		if len(scenes) == 0 {
			lastErr = fmt.Errorf("model returned no scenes")
			continue
		}

		log.Printf("[Groq] script generated: %d scenes for %q", len(scenes), topic)
		return scenes, raw, nil
	}

	return nil, "", lastErr
}

// truncateString truncates a string to maxLen and appends "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func buildScriptSystemPrompt(sceneCount int, mode models.DurationMode) string {
	target := 60
	if t, ok := mode.TargetSeconds(); ok {
		target = int(t)
	}
	perScene := float64(target) / float64(sceneCount)

	return fmt.Sprintf(`You are a scriptwriter for short-form vertical videos (TikTok/Reels/Shorts).

Write exactly %d scenes for the given topic. The full narration should take about %d seconds when read aloud, so aim for roughly %.0f seconds of speech per scene at a natural 150 words-per-minute pace.

Each scene needs:
- "narration": the voiceover text for the scene. Conversational, punchy, hooks the viewer. 1-3 short sentences.
- "visual": a detailed image-generation prompt describing what is on screen. Include subject, setting, lighting, and composition for a 9:16 portrait frame.
- "visual_text": a short on-screen caption of at most 6 words.

The first scene must open with a strong hook. The last scene must land a satisfying payoff.

Respond with ONLY a JSON array of scene objects. No prose, no markdown fences, no keys other than narration, visual, and visual_text.`, sceneCount, target, perScene)
}

// ---------------------------------------------------------------------------
// Response parsing
// Models drift from the requested shape in predictable ways: markdown
// fences, a wrapping object, or a bare list of strings. parseScenes repairs
// those rather than failing the job.
// ---------------------------------------------------------------------------

type rawScene struct {
	Narration  string `json:"narration"`
	Visual     string `json:"visual"`
	VisualText string `json:"visual_text"`
}

func parseScenes(raw, topic string) ([]models.Scene, error) {
	text := cleanJSONText(raw)
	if text == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		// Some models wrap the array in an object.
		var wrapper map[string]json.RawMessage
		if werr := json.Unmarshal([]byte(text), &wrapper); werr != nil {
			return nil, err
		}
		found := false
		for _, key := range []string{"scenes", "script", "response", "data"} {
			if inner, ok := wrapper[key]; ok {
				if err := json.Unmarshal(inner, &items); err != nil {
					return nil, err
				}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("response object has no scene list")
		}
	}

	scenes := make([]models.Scene, 0, len(items))
	for _, item := range items {
		var rs rawScene
		if err := json.Unmarshal(item, &rs); err == nil && (rs.Narration != "" || rs.Visual != "") {
			scenes = append(scenes, repairScene(rs, topic))
			continue
		}

		// Bare string entries: treat the text as the narration.
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			scenes = append(scenes, repairScene(rawScene{Narration: s}, topic))
			continue
		}

		return nil, fmt.Errorf("unrecognized scene entry: %s", truncateString(string(item), 120))
	}
	return scenes, nil
}

func repairScene(rs rawScene, topic string) models.Scene {
	narration := strings.TrimSpace(rs.Narration)
	if narration == "" {
		narration = "..."
	}
	visual := strings.TrimSpace(rs.Visual)
	if visual == "" {
		visual = fmt.Sprintf("Visual of %s", topic)
	}
	return models.Scene{
		Narration:    narration,
		VisualPrompt: visual,
		VisualText:   strings.TrimSpace(rs.VisualText),
	}
}

// cleanJSONText strips markdown fences and any prose around the outermost
// JSON array or object.
func cleanJSONText(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return ""
	}
	var end int
	if text[start] == '[' {
		end = strings.LastIndex(text, "]")
	} else {
		end = strings.LastIndex(text, "}")
	}
	if end <= start {
		return ""
	}
	return text[start : end+1]
}
