package models

import "testing"

func TestJobStatusValues(t *testing.T) {
	statuses := []JobStatus{
		StatusPending,
		StatusScripting,
		StatusVisualizing,
		StatusVoicing,
		StatusEditing,
		StatusReadyToPost,
		StatusPosting,
		StatusFinished,
		StatusFailed,
	}

	for _, status := range statuses {
		if status == "" {
			t.Errorf("empty status found")
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if !StatusFinished.Terminal() {
		t.Error("FINISHED should be terminal")
	}
	if !StatusFailed.Terminal() {
		t.Error("FAILED should be terminal")
	}
	for _, s := range []JobStatus{StatusPending, StatusScripting, StatusVisualizing, StatusEditing} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestDurationModeTargets(t *testing.T) {
	cases := []struct {
		mode   DurationMode
		target float64
		fixed  bool
	}{
		{DurationAuto, 0, false},
		{DurationQuick, 15, true},
		{DurationShort, 30, true},
		{DurationMedium, 60, true},
		{DurationLong, 90, true},
	}

	for _, c := range cases {
		target, ok := c.mode.TargetSeconds()
		if ok != c.fixed {
			t.Errorf("%s: fixed=%v, want %v", c.mode, ok, c.fixed)
		}
		if target != c.target {
			t.Errorf("%s: target=%v, want %v", c.mode, target, c.target)
		}
	}

	if DurationMode("bogus").Valid() {
		t.Error("bogus mode should not be valid")
	}
}

func TestApplyDefaults(t *testing.T) {
	req := CreateJobRequest{Topic: "black holes"}
	req.ApplyDefaults()

	if req.SceneCount != 4 {
		t.Errorf("expected 4 scenes, got %d", req.SceneCount)
	}
	if req.ImageStyle != "Cinematic" {
		t.Errorf("expected Cinematic style, got %q", req.ImageStyle)
	}
	if req.DurationMode != DurationAuto {
		t.Errorf("expected auto mode, got %q", req.DurationMode)
	}
	if req.RenderMode != RenderAssemble {
		t.Errorf("expected assemble mode, got %q", req.RenderMode)
	}
}

func TestApplyDefaultsTypographicStyle(t *testing.T) {
	req := CreateJobRequest{Topic: "black holes", ImageStyle: "Typographic: Neon"}
	req.ApplyDefaults()

	if req.RenderMode != RenderTemplate {
		t.Errorf("expected template mode, got %q", req.RenderMode)
	}
	if req.TemplateID != "Neon" {
		t.Errorf("expected template Neon, got %q", req.TemplateID)
	}
}

func TestApplyDefaultsExplicitRenderMode(t *testing.T) {
	req := CreateJobRequest{Topic: "black holes", RenderMode: RenderTemplate}
	req.ApplyDefaults()

	if req.RenderMode != RenderTemplate {
		t.Errorf("explicit render mode overridden: %q", req.RenderMode)
	}
	if req.TemplateID != "Minimal" {
		t.Errorf("expected default template Minimal, got %q", req.TemplateID)
	}
}
