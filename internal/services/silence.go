package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"strings"
)

// SilenceProvider is the terminal audio fallback. When every network voice
// fails it writes a silent WAV of the estimated narration length so the
// pipeline can still assemble a timed video.
type SilenceProvider struct{}

var _ AudioProvider = (*SilenceProvider)(nil)

func NewSilenceProvider() *SilenceProvider { return &SilenceProvider{} }

func (p *SilenceProvider) Name() string { return "silence" }

const silenceSampleRate = 22050

func (p *SilenceProvider) ProduceAudio(_ context.Context, text, outputPath string) (float64, error) {
	words := len(strings.Fields(text))
	seconds := float64(words) / 2.5
	if seconds < 5 {
		seconds = 5
	}

	data := silentWAV(seconds, silenceSampleRate)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write silent audio: %w", err)
	}

	log.Printf("[Silence] wrote %.1fs of silence to %s", seconds, outputPath)
	return seconds, nil
}

// silentWAV builds a mono 16-bit PCM RIFF/WAVE file of zeroed samples.
func silentWAV(seconds float64, sampleRate int) []byte {
	numSamples := int(seconds * float64(sampleRate))
	dataLen := numSamples * 2 // 16-bit mono

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))

	return buf.Bytes()
}
