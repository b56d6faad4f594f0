package models

import (
	"strings"
	"time"
)

// Enums

// JobStatus is the lifecycle state of a generation job. Transitions move
// forward only: PENDING → SCRIPTING → VISUALIZING → EDITING → FINISHED,
// with FAILED reachable from every non-terminal state. VOICING,
// READY_TO_POST and POSTING are reserved for future pipeline stages and
// are not driven by the current orchestrator.
type JobStatus string

const (
	StatusPending     JobStatus = "PENDING"
	StatusScripting   JobStatus = "SCRIPTING"
	StatusVisualizing JobStatus = "VISUALIZING"
	StatusVoicing     JobStatus = "VOICING"
	StatusEditing     JobStatus = "EDITING"
	StatusReadyToPost JobStatus = "READY_TO_POST"
	StatusPosting     JobStatus = "POSTING"
	StatusFinished    JobStatus = "FINISHED"
	StatusFailed      JobStatus = "FAILED"
)

// Terminal reports whether the status permits no further field mutation
// (log appends remain allowed).
func (s JobStatus) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// DurationMode selects how total video length is decided: derived from the
// narration itself, or forced to a fixed target.
type DurationMode string

const (
	DurationAuto   DurationMode = "auto"       // Length follows the narration
	DurationQuick  DurationMode = "quick_15s"  // ~15 seconds
	DurationShort  DurationMode = "short_30s"  // ~30 seconds
	DurationMedium DurationMode = "medium_60s" // ~60 seconds
	DurationLong   DurationMode = "long_90s"   // ~90 seconds
)

// TargetSeconds returns the fixed target for preset modes. ok is false for
// DurationAuto, which has no fixed target.
func (m DurationMode) TargetSeconds() (float64, bool) {
	switch m {
	case DurationQuick:
		return 15, true
	case DurationShort:
		return 30, true
	case DurationMedium:
		return 60, true
	case DurationLong:
		return 90, true
	default:
		return 0, false
	}
}

// Valid reports whether m is one of the known duration modes.
func (m DurationMode) Valid() bool {
	switch m {
	case DurationAuto, DurationQuick, DurationShort, DurationMedium, DurationLong:
		return true
	}
	return false
}

// RenderMode selects the rendering branch: direct ffmpeg assembly of
// image+audio scenes, or delegation to the Remotion template renderer.
type RenderMode string

const (
	RenderAssemble RenderMode = "assemble"
	RenderTemplate RenderMode = "template"
)

// typographicPrefix is the legacy style marker that used to select the
// template path. It is honored at job creation only; the orchestrator
// branches on RenderMode exclusively.
const typographicPrefix = "Typographic"

// Models

// Scene is one narrative beat of the video. Image/audio paths and the frame
// count are populated by the pipeline as the corresponding stages run.
type Scene struct {
	Narration         string  `json:"narration"`
	VisualPrompt      string  `json:"visual_prompt"`
	VisualText        string  `json:"visual_text,omitempty"`
	EstimatedDuration float64 `json:"estimated_duration"`
	ImagePath         string  `json:"image_path,omitempty"`
	AudioPath         string  `json:"audio_path,omitempty"`
	DurationFrames    int     `json:"duration_frames,omitempty"`
}

// Job is the canonical record for one video generation request. The job
// store owns the canonical copy; pipeline stages receive values and report
// updates back through the store.
type Job struct {
	ID           string       `json:"id"`
	Topic        string       `json:"topic"`
	Status       JobStatus    `json:"status"`
	SceneCount   int          `json:"scene_count"`
	ImageStyle   string       `json:"image_style"`
	Tone         string       `json:"tone"`
	DurationMode DurationMode `json:"duration_mode"`
	RenderMode   RenderMode   `json:"render_mode"`
	TemplateID   string       `json:"template_id,omitempty"`
	Script       []Scene      `json:"script,omitempty"`
	VideoPath    string       `json:"video_path,omitempty"`
	ErrorMsg     string       `json:"error_msg,omitempty"`
	Logs         []string     `json:"logs"`
	CreatedAt    time.Time    `json:"created_at"`
}

// JobUpdate is a partial merge applied to a stored job. Nil pointers and
// nil slices leave the corresponding field untouched.
type JobUpdate struct {
	Status    *JobStatus
	Script    []Scene
	VideoPath *string
	ErrorMsg  *string
}

// DTOs

type CreateJobRequest struct {
	Topic        string       `json:"topic"`
	Tone         string       `json:"tone,omitempty"`
	SceneCount   int          `json:"scene_count,omitempty"`
	ImageStyle   string       `json:"image_style,omitempty"`
	DurationMode DurationMode `json:"duration_mode,omitempty"`
	RenderMode   RenderMode   `json:"render_mode,omitempty"`
	TemplateID   string       `json:"template_id,omitempty"`
}

// ApplyDefaults fills unset fields and resolves the render mode. When the
// request does not name a render mode explicitly, a "Typographic: <template>"
// style selects the template path (legacy clients); everything else gets
// direct assembly.
func (r *CreateJobRequest) ApplyDefaults() {
	if r.Tone == "" {
		r.Tone = "Futuristic, Curious"
	}
	if r.SceneCount <= 0 {
		r.SceneCount = 4
	}
	if r.ImageStyle == "" {
		r.ImageStyle = "Cinematic"
	}
	if !r.DurationMode.Valid() {
		r.DurationMode = DurationAuto
	}
	if r.RenderMode == "" {
		if strings.HasPrefix(r.ImageStyle, typographicPrefix) {
			r.RenderMode = RenderTemplate
		} else {
			r.RenderMode = RenderAssemble
		}
	}
	if r.RenderMode == RenderTemplate && r.TemplateID == "" {
		// "Typographic: Neon" → "Neon"
		if idx := strings.LastIndex(r.ImageStyle, ":"); idx != -1 {
			r.TemplateID = strings.TrimSpace(r.ImageStyle[idx+1:])
		}
		if r.TemplateID == "" {
			r.TemplateID = "Minimal"
		}
	}
}

// StatusPtr is a convenience for building JobUpdate literals.
func StatusPtr(s JobStatus) *JobStatus { return &s }

// StrPtr is a convenience for building JobUpdate literals.
func StrPtr(s string) *string { return &s }
