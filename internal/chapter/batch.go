package chapter

import (
	"fmt"
)

// DefaultEmotionLevel is used when a batch carries no emotion_level.
const DefaultEmotionLevel = 5

const (
	MinEmotionLevel = 1
	MaxEmotionLevel = 10
)

// Batch is one chapter record as written by the batch generator and consumed
// by the timeline and subtitle passes.
type Batch struct {
	ChapterIndex  int          `json:"chapter_index" validate:"gte=0"`
	ID            string       `json:"id" validate:"required"`
	Title         string       `json:"title"`
	DurationSec   float64      `json:"duration_sec"`
	NarrationText string       `json:"narration_text"`
	StillPrompts  []string     `json:"still_prompts"`
	MotionPrompts []string     `json:"motion_prompts,omitempty"`
	BGMTag        string       `json:"bgm_tag"`
	SFX           []string     `json:"sfx,omitempty"`
	Lesson        string       `json:"lesson,omitempty"`
	EmotionLevel  *int         `json:"emotion_level,omitempty" validate:"omitempty,min=1,max=10"`
	VoiceSpeaker  string       `json:"voice_speaker,omitempty"`
	OutputPaths   OutputPaths  `json:"output_paths"`
	VisualStyle   *VisualStyle `json:"visual_style,omitempty"`
}

type OutputPaths struct {
	ImageDir  string `json:"image_dir"`
	VoicePath string `json:"voice_path"`
	BGMPath   string `json:"bgm_path,omitempty"`
}

// VisualStyle carries per-chapter overrides injected for single chapter test
// renders.
type VisualStyle struct {
	Grade           string   `json:"grade,omitempty"`
	SubtitleFadeIn  *float64 `json:"subtitle_fade_in,omitempty"`
	SubtitleFadeOut *float64 `json:"subtitle_fade_out,omitempty"`
}

// Emotion returns the chapter's emotion level or DefaultEmotionLevel when the
// record has none.
func (b *Batch) Emotion() int {
	if b.EmotionLevel == nil {
		return DefaultEmotionLevel
	}
	return *b.EmotionLevel
}

// ClampEmotion limits level to the range a batch accepts.
func ClampEmotion(level int) int {
	return min(max(level, MinEmotionLevel), MaxEmotionLevel)
}

// FileName is the batch file name for a chapter at index with the given id.
func FileName(index int, id string) string {
	return fmt.Sprintf("chapter_%02d_%s.json", index, id)
}
