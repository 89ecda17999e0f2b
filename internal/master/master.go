package master

import (
	"os"

	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/ivlev/doctimeline/internal/jsonfile"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// ErrMissingChapters is returned for master files without package.script.chapters.
var ErrMissingChapters = errors.New("master JSON must contain package.script.chapters")

// Master is the per-person package produced by the content generator.
type Master struct {
	Package Package `json:"package"`
}

type Package struct {
	Person       string         `json:"person,omitempty"`
	Script       Script         `json:"script"`
	Thumbnails   []Thumbnail    `json:"thumbnails,omitempty"`
	EmotionCurve []EmotionPoint `json:"emotion_curve,omitempty"`
}

type Script struct {
	Chapters []Chapter `json:"chapters"`
}

type Chapter struct {
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	Time        ChapterTime  `json:"time"`
	Narration   string       `json:"narration,omitempty"`
	Audio       ChapterAudio `json:"audio"`
	Lesson      string       `json:"lesson,omitempty"`
	VisualStyle *VisualStyle `json:"visual_style,omitempty"`
}

type ChapterTime struct {
	DurationSec float64 `json:"duration_sec"`
}

type ChapterAudio struct {
	BGMTag string   `json:"bgm_tag,omitempty"`
	SFX    []string `json:"sfx,omitempty"`
}

type VisualStyle struct {
	Grade           string   `json:"grade,omitempty"`
	SubtitleFadeIn  *float64 `json:"subtitle_fade_in,omitempty"`
	SubtitleFadeOut *float64 `json:"subtitle_fade_out,omitempty"`
}

// Thumbnail is one image prompt; Slot names the chapter id it illustrates.
type Thumbnail struct {
	Slot         string `json:"slot"`
	StillPrompt  string `json:"still_prompt"`
	MotionPrompt string `json:"motion_prompt"`
}

type EmotionPoint struct {
	ChapterIndex int  `json:"chapter_index"`
	Level        *int `json:"level"`
}

// Load reads a master file and checks its required structure. The raw bytes
// are returned as well so the file can be copied without losing fields this
// package does not model.
func Load(path string) (*Master, json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read master %s", path)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return m, json.RawMessage(data), nil
}

// Parse decodes and validates master JSON.
func Parse(data []byte) (*Master, error) {
	var probe struct {
		Package *struct {
			Script *struct {
				Chapters json.RawMessage `json:"chapters"`
			} `json:"script"`
		} `json:"package"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.WithStack(err)
	}
	if probe.Package == nil || probe.Package.Script == nil || len(probe.Package.Script.Chapters) == 0 || string(probe.Package.Script.Chapters) == "null" {
		return nil, ErrMissingChapters
	}

	var m Master
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.WithStack(err)
	}
	return &m, nil
}

// Save writes m to path.
func Save(path string, m *Master) error {
	return jsonfile.Write(path, m)
}

// PersonOrDefault is the package's person, or "project" when unnamed.
func (m *Master) PersonOrDefault() string {
	if m.Package.Person == "" {
		return "project"
	}
	return m.Package.Person
}

// EmotionFor returns the emotion level recorded for the chapter at index,
// clamped to 1..10, or def when the curve has no usable entry.
func (m *Master) EmotionFor(index, def int) int {
	level := def
	for _, p := range m.Package.EmotionCurve {
		if p.ChapterIndex == index {
			if p.Level != nil {
				level = *p.Level
			} else {
				level = def
			}
		}
	}
	return chapter.ClampEmotion(level)
}
