// Package timing converts narration text into per-scene time and frame
// budgets, and reconciles independently estimated scene lengths against an
// authoritative measured audio duration.
package timing

import (
	"math"
	"strings"

	"github.com/reelagent/reelagent/internal/models"
)

const (
	// WordsPerMinute is the natural speech rate the estimator assumes.
	WordsPerMinute = 150

	// MinSceneSeconds floors per-scene estimates so degenerate one-word
	// narrations still get readable screen time.
	MinSceneSeconds = 3.0

	// DefaultFPS is the frame rate of every rendered video.
	DefaultFPS = 30
)

// EstimateSeconds estimates speaking time for a narration from its word
// count at WordsPerMinute, floored to MinSceneSeconds.
func EstimateSeconds(text string) float64 {
	words := len(strings.Fields(text))
	seconds := float64(words) / WordsPerMinute * 60
	return math.Max(MinSceneSeconds, seconds)
}

// PlanScenes returns a duration in seconds for each scene.
//
// In auto mode each scene keeps its raw estimate, so total length follows
// the narration. Fixed modes scale every estimate so the total hits the
// target exactly; all-empty narration falls back to an equal split.
func PlanScenes(scenes []models.Scene, mode models.DurationMode) []float64 {
	if len(scenes) == 0 {
		return nil
	}

	estimates := make([]float64, len(scenes))
	total := 0.0
	for i, s := range scenes {
		estimates[i] = EstimateSeconds(s.Narration)
		total += estimates[i]
	}

	target, fixed := mode.TargetSeconds()
	if !fixed {
		return estimates
	}

	return scaleToTarget(estimates, total, target)
}

// FramesFor converts durations to frame counts. Every scene gets at least
// one full second of frames regardless of how short its estimate is.
func FramesFor(durations []float64, fps int) []int {
	frames := make([]int, len(durations))
	for i, d := range durations {
		f := int(math.Round(d * float64(fps)))
		if f < fps {
			f = fps
		}
		frames[i] = f
	}
	return frames
}

// SyncToAudio re-derives per-scene frame counts against an authoritative
// measured audio duration. Raw estimates are rescaled so they sum to the
// audio length, converted to frames, and the rounding residual is applied
// to the last scene so the frame total matches the audio exactly.
func SyncToAudio(scenes []models.Scene, audioSeconds float64, fps int) (sceneFrames []int, totalFrames int) {
	if len(scenes) == 0 {
		return nil, 0
	}

	estimates := make([]float64, len(scenes))
	total := 0.0
	for i, s := range scenes {
		estimates[i] = EstimateSeconds(s.Narration)
		total += estimates[i]
	}

	durations := scaleToTarget(estimates, total, audioSeconds)
	sceneFrames = FramesFor(durations, fps)

	totalFrames = int(audioSeconds * float64(fps))
	sum := 0
	for _, f := range sceneFrames {
		sum += f
	}
	// Rounding correction always lands on the last scene, never distributed.
	sceneFrames[len(sceneFrames)-1] += totalFrames - sum

	return sceneFrames, totalFrames
}

func scaleToTarget(estimates []float64, total, target float64) []float64 {
	durations := make([]float64, len(estimates))
	if total <= 0 {
		for i := range durations {
			durations[i] = target / float64(len(estimates))
		}
		return durations
	}
	factor := target / total
	for i, d := range estimates {
		durations[i] = d * factor
	}
	return durations
}
