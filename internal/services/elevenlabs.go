package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// ElevenLabs narration provider
// Uses the ElevenLabs REST API to convert narration into speech audio.
// Model: eleven_flash_v2_5 (Flash v2.5 — fast, 32 languages, ~75ms latency)
// ---------------------------------------------------------------------------

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	elevenLabsDefaultModel = "eleven_flash_v2_5"
	elevenLabsDefaultVoice = "pNInz6obpgDQGcFmaJgB"
	elevenLabsOutputFormat = "mp3_44100_128"
	elevenLabsSpeed        = 0.85 // Slightly slower for clear narration delivery
)

type ElevenLabsProvider struct {
	apiKey  string
	voiceID string
	modelID string
	client  *http.Client
}

var _ AudioProvider = (*ElevenLabsProvider)(nil)

// NewElevenLabsProvider creates an ElevenLabs provider. An empty voiceID
// falls back to the default voice.
func NewElevenLabsProvider(apiKey, voiceID string) *ElevenLabsProvider {
	if voiceID == "" {
		voiceID = elevenLabsDefaultVoice
	}
	return &ElevenLabsProvider{
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: elevenLabsDefaultModel,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

type elevenLabsRequest struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id"`
	VoiceSettings *elevenLabsVoiceSettings `json:"voice_settings,omitempty"`
	Speed         *float64                 `json:"speed,omitempty"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// ProduceAudio synthesizes text to outputPath and returns the estimated
// speech length in seconds (this endpoint does not report duration).
func (p *ElevenLabsProvider) ProduceAudio(ctx context.Context, text, outputPath string) (float64, error) {
	speed := elevenLabsSpeed
	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: p.modelID,
		Speed:   &speed,
		VoiceSettings: &elevenLabsVoiceSettings{
			Stability:       0.60, // Moderate stability, allows some emotional range
			SimilarityBoost: 0.80, // High voice consistency
			Style:           0.35, // Mild style exaggeration for natural delivery
			UseSpeakerBoost: true,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal ElevenLabs request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		elevenLabsBaseURL, p.voiceID, elevenLabsOutputFormat)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create ElevenLabs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.apiKey)

	log.Printf("[ElevenLabs] generating speech (voice=%s, model=%s, textLen=%d)",
		p.voiceID, p.modelID, len(text))

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ElevenLabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return 0, fmt.Errorf("ElevenLabs returned status %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read ElevenLabs audio response: %w", err)
	}
	if len(audioData) == 0 {
		return 0, fmt.Errorf("ElevenLabs returned empty audio")
	}

	if err := os.WriteFile(outputPath, audioData, 0644); err != nil {
		return 0, fmt.Errorf("failed to write audio: %w", err)
	}

	seconds := estimateSpeechSeconds(text, speed)
	log.Printf("[ElevenLabs] speech saved: %s (%d bytes, ~%.1fs)", outputPath, len(audioData), seconds)
	return seconds, nil
}

// estimateSpeechSeconds estimates spoken length from word count at natural
// pace, adjusted for playback speed.
func estimateSpeechSeconds(text string, speed float64) float64 {
	words := len(strings.Fields(text))
	seconds := float64(words) / 150 * 60
	if speed > 0 {
		seconds /= speed
	}
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
