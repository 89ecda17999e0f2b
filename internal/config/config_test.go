package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Timeline.FPS)
	assert.Equal(t, "1920x1080", cfg.Timeline.Resolution)
	assert.Equal(t, "cover", cfg.Timeline.ImageFit)
	assert.Equal(t, 0.5, cfg.Timeline.ImageXfadeSec)
	assert.Equal(t, 1.5, cfg.Timeline.AudioFadeSec)
	assert.Equal(t, -12.0, cfg.Timeline.DuckingGainDB)
	assert.Equal(t, 0.0, cfg.Timeline.PaddingLeadSec)
	assert.Equal(t, 190.0, cfg.Timeline.BGMMaxClipSec)
	assert.Equal(t, 24, cfg.Timeline.SubtitleMaxChars)
	assert.Equal(t, "gpt-4.1", cfg.OpenAI.Model)
	assert.Equal(t, 0.2, cfg.OpenAI.Temperature)
	assert.Equal(t, "gemini-2.5-flash", cfg.Vertex.GeminiModel)
	assert.Equal(t, "us-central1", cfg.Vertex.Location)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doctimeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeline:
  fps: 25
  image_fit: contain
  padding_lead_sec: 2
paths:
  bgm_root: music
openai:
  model: from-file
`), 0644))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GENAI_API_KEY", "genai-key")
	t.Setenv("OPENAI_MODEL", "from-env")
	t.Setenv("GCP_PROJECT_ID", "proj-1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Timeline.FPS)
	assert.Equal(t, "contain", cfg.Timeline.ImageFit)
	assert.Equal(t, 2.0, cfg.Timeline.PaddingLeadSec)
	assert.Equal(t, 0.5, cfg.Timeline.ImageXfadeSec, "untouched keys keep their defaults")
	assert.Equal(t, "music", cfg.Paths.BGMRoot)
	assert.Equal(t, "genai-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "from-env", cfg.OpenAI.Model)
	assert.Equal(t, "proj-1", cfg.Vertex.ProjectID)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown fit", "timeline:\n  image_fit: stretch\n"},
		{"zero fps", "timeline:\n  fps: -1\n"},
		{"negative lead", "timeline:\n  padding_lead_sec: -3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
