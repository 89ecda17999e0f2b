package timeline

import (
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	TrackVideo     = "video"
	TrackAudio     = "audio"
	TrackSubtitles = "subtitles"

	RoleVoice = "voice"
	RoleBGM   = "bgm"
)

// Project is the editor-facing timeline document.
type Project struct {
	Meta   Meta    `json:"meta"`
	Tracks []Track `json:"tracks"`
	Mix    Mix     `json:"mix"`
}

type Meta struct {
	Name       string `json:"name"`
	FPS        int    `json:"fps"`
	Resolution string `json:"resolution"`
}

type Mix struct {
	Ducking Ducking `json:"ducking"`
}

// Ducking lowers TargetRole by GainDB while UnderRole is audible.
type Ducking struct {
	Enable     bool    `json:"enable"`
	UnderRole  string  `json:"under_role"`
	TargetRole string  `json:"target_role"`
	GainDB     float64 `json:"gain_db"`
}

// Track is one lane of the timeline. Which clip slice is used depends on
// Type; tracks of a type this package does not know are kept verbatim.
type Track struct {
	Type      string
	Role      string
	Images    []ImageClip
	Audio     []AudioClip
	Subtitles []SubtitleClip

	raw json.RawMessage
}

type ImageClip struct {
	Path          string      `json:"path"`
	Start         float64     `json:"start"`
	Duration      float64     `json:"duration"`
	Fit           string      `json:"fit"`
	TransitionIn  *Transition `json:"transition_in"`
	TransitionOut *Transition `json:"transition_out"`
	Motion        Motion      `json:"motion"`
}

type Transition struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
}

type Motion struct {
	Preset       string `json:"preset"`
	EmotionLevel int    `json:"emotion_level"`
}

type AudioClip struct {
	Path     string  `json:"path"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	FadeIn   float64 `json:"fade_in"`
	FadeOut  float64 `json:"fade_out"`
}

type SubtitleClip struct {
	Start    float64       `json:"start"`
	Duration float64       `json:"duration"`
	Text     string        `json:"text"`
	Style    SubtitleStyle `json:"style"`
}

type SubtitleStyle struct {
	FontFamily   string   `json:"font_family"`
	FontSize     int      `json:"font_size"`
	Fill         string   `json:"fill"`
	Stroke       Stroke   `json:"stroke"`
	Align        string   `json:"align"`
	Position     string   `json:"position"`
	MarginBottom int      `json:"margin_bottom"`
	FadeIn       *float64 `json:"fade_in,omitempty"`
	FadeOut      *float64 `json:"fade_out,omitempty"`
}

type Stroke struct {
	Color string `json:"color"`
	Width int    `json:"width"`
}

type trackHeader struct {
	Type string `json:"type"`
	Role string `json:"role,omitempty"`
}

func (t Track) MarshalJSON() ([]byte, error) {
	switch t.Type {
	case TrackVideo:
		return json.Marshal(struct {
			trackHeader
			Clips []ImageClip `json:"clips"`
		}{trackHeader{t.Type, t.Role}, nonNil(t.Images)})
	case TrackAudio:
		return json.Marshal(struct {
			trackHeader
			Clips []AudioClip `json:"clips"`
		}{trackHeader{t.Type, t.Role}, nonNil(t.Audio)})
	case TrackSubtitles:
		return json.Marshal(struct {
			trackHeader
			Clips []SubtitleClip `json:"clips"`
		}{trackHeader{t.Type, t.Role}, nonNil(t.Subtitles)})
	}
	if t.raw != nil {
		return t.raw, nil
	}
	return json.Marshal(struct {
		trackHeader
		Clips []interface{} `json:"clips"`
	}{trackHeader{t.Type, t.Role}, []interface{}{}})
}

func (t *Track) UnmarshalJSON(data []byte) error {
	var h trackHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return errors.WithStack(err)
	}
	*t = Track{Type: h.Type, Role: h.Role}

	var err error
	switch h.Type {
	case TrackVideo:
		var v struct {
			Clips []ImageClip `json:"clips"`
		}
		err = json.Unmarshal(data, &v)
		t.Images = v.Clips
	case TrackAudio:
		var v struct {
			Clips []AudioClip `json:"clips"`
		}
		err = json.Unmarshal(data, &v)
		t.Audio = v.Clips
	case TrackSubtitles:
		var v struct {
			Clips []SubtitleClip `json:"clips"`
		}
		err = json.Unmarshal(data, &v)
		t.Subtitles = v.Clips
	default:
		t.raw = append(json.RawMessage(nil), data...)
	}
	return errors.WithStack(err)
}

// Len is the number of clips on the track.
func (t *Track) Len() int {
	switch t.Type {
	case TrackVideo:
		return len(t.Images)
	case TrackAudio:
		return len(t.Audio)
	case TrackSubtitles:
		return len(t.Subtitles)
	}
	return 0
}

// Find returns the first track with the given type and role.
func (p *Project) Find(typ, role string) *Track {
	for i := range p.Tracks {
		if p.Tracks[i].Type == typ && p.Tracks[i].Role == role {
			return &p.Tracks[i]
		}
	}
	return nil
}

// MergeSubtitles replaces the clips of the subtitles track, appending the
// track when the project has none.
func (p *Project) MergeSubtitles(clips []SubtitleClip) {
	for i := range p.Tracks {
		if p.Tracks[i].Type == TrackSubtitles {
			p.Tracks[i].Subtitles = clips
			p.Tracks[i].raw = nil
			return
		}
	}
	p.Tracks = append(p.Tracks, Track{Type: TrackSubtitles, Subtitles: clips})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
