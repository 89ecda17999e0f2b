package chapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRaw(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestLoadDirSortsByChapterIndex(t *testing.T) {
	dir := t.TempDir()
	// file order disagrees with chapter_index on purpose
	writeRaw(t, dir, "chapter_2_b.json", `{"chapter_index": 0, "id": "b", "duration_sec": 10}`)
	writeRaw(t, dir, "chapter_10_c.json", `{"chapter_index": 2, "id": "c", "duration_sec": 5}`)
	writeRaw(t, dir, "chapter_1_a.json", `{"chapter_index": 1, "id": "a", "duration_sec": 7.5}`)
	writeRaw(t, dir, "notes.json", `{"ignored": true}`)

	batches, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, "b", batches[0].ID)
	assert.Equal(t, "a", batches[1].ID)
	assert.Equal(t, "c", batches[2].ID)
	assert.Equal(t, 7.5, batches[1].DurationSec)
}

func TestFilesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"chapter_10_x.json", "chapter_2_x.json", "chapter_1_x.json"} {
		writeRaw(t, dir, n, `{}`)
	}

	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "chapter_1_x.json", filepath.Base(files[0]))
	assert.Equal(t, "chapter_2_x.json", filepath.Base(files[1]))
	assert.Equal(t, "chapter_10_x.json", filepath.Base(files[2]))
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		dir := t.TempDir()
		writeRaw(t, dir, "chapter_00_a.json", `{"chapter_index": `)
		_, err := LoadDir(dir)
		assert.Error(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		dir := t.TempDir()
		writeRaw(t, dir, "chapter_00_a.json", `{"chapter_index": 0, "duration_sec": 3}`)
		_, err := LoadDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "id")
	})

	t.Run("emotion out of range", func(t *testing.T) {
		dir := t.TempDir()
		writeRaw(t, dir, "chapter_00_a.json", `{"chapter_index": 0, "id": "a", "emotion_level": 11}`)
		_, err := LoadDir(dir)
		assert.Error(t, err)
	})
}

func TestEmotionDefault(t *testing.T) {
	b := &Batch{ID: "a"}
	assert.Equal(t, DefaultEmotionLevel, b.Emotion())

	level := 9
	b.EmotionLevel = &level
	assert.Equal(t, 9, b.Emotion())
}

func TestClampEmotion(t *testing.T) {
	tests := []struct{ in, want int }{{-3, 1}, {0, 1}, {1, 1}, {7, 7}, {10, 10}, {11, 10}}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampEmotion(tt.in), "level %d", tt.in)
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	level := 3
	fade := 0.5
	b := &Batch{
		ChapterIndex:  4,
		ID:            "chapter4",
		Title:         "栄光と代償",
		DurationSec:   150,
		NarrationText: "彼は走った。",
		StillPrompts:  []string{"p1", "p2"},
		EmotionLevel:  &level,
		OutputPaths:   OutputPaths{ImageDir: "zap1/images/chapter4/", VoicePath: "zap1/voice/chapter4.wav"},
		VisualStyle:   &VisualStyle{Grade: "warm", SubtitleFadeIn: &fade},
	}
	path := filepath.Join(dir, FileName(b.ChapterIndex, b.ID))
	assert.Equal(t, "chapter_04_chapter4.json", filepath.Base(path))

	require.NoError(t, Write(path, b))
	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}
