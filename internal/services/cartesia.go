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
	"time"
)

// ---------------------------------------------------------------------------
// Cartesia narration provider
// Second-choice hosted TTS backend; used when configured, after ElevenLabs
// in the chain.
// ---------------------------------------------------------------------------

const (
	cartesiaAPIVersion   = "2024-06-10"
	cartesiaDefaultVoice = "a0e99841-438c-4a64-b679-ae501e7d6091"
	cartesiaSpeed        = 0.85 // Slower pace for clear narration
)

type CartesiaProvider struct {
	apiKey     string
	apiURL     string
	apiVersion string
	voiceID    string
	client     *http.Client
}

var _ AudioProvider = (*CartesiaProvider)(nil)

func NewCartesiaProvider(apiKey, apiURL, voiceID string) *CartesiaProvider {
	if voiceID == "" {
		voiceID = cartesiaDefaultVoice
	}
	return &CartesiaProvider{
		apiKey:     apiKey,
		apiURL:     apiURL,
		apiVersion: cartesiaAPIVersion,
		voiceID:    voiceID,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *CartesiaProvider) Name() string { return "cartesia" }

type cartesiaRequest struct {
	ModelID      string                `json:"model_id"`
	Transcript   string                `json:"transcript"`
	Voice        cartesiaVoice         `json:"voice"`
	OutputFormat cartesiaOutputFormat  `json:"output_format"`
	Config       *cartesiaGenerationConfig `json:"generation_config,omitempty"`
}

type cartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	SampleRate int    `json:"sample_rate"`
	BitRate    int    `json:"bit_rate,omitempty"`
}

type cartesiaGenerationConfig struct {
	Speed *float64 `json:"speed,omitempty"`
}

func (p *CartesiaProvider) ProduceAudio(ctx context.Context, text, outputPath string) (float64, error) {
	speed := cartesiaSpeed
	reqBody := cartesiaRequest{
		ModelID:    "sonic-english",
		Transcript: text,
		Voice:      cartesiaVoice{Mode: "id", ID: p.voiceID},
		OutputFormat: cartesiaOutputFormat{
			Container:  "mp3",
			SampleRate: 44100,
			BitRate:    128000,
		},
		Config: &cartesiaGenerationConfig{Speed: &speed},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal Cartesia request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.apiURL+"/tts/bytes", bytes.NewReader(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create Cartesia request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.apiKey)
	req.Header.Set("Cartesia-Version", p.apiVersion)

	log.Printf("[Cartesia] generating speech (voice=%s, textLen=%d)", p.voiceID, len(text))

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("Cartesia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return 0, fmt.Errorf("Cartesia returned status %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read Cartesia audio response: %w", err)
	}
	if len(audioData) == 0 {
		return 0, fmt.Errorf("Cartesia returned empty audio")
	}

	if err := os.WriteFile(outputPath, audioData, 0644); err != nil {
		return 0, fmt.Errorf("failed to write audio: %w", err)
	}

	seconds := estimateSpeechSeconds(text, speed)
	log.Printf("[Cartesia] speech saved: %s (%d bytes, ~%.1fs)", outputPath, len(audioData), seconds)
	return seconds, nil
}
