package subtitle

import (
	"path/filepath"

	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/ivlev/doctimeline/internal/timeline"
)

// DefaultStyle is the caption look used for every chapter.
func DefaultStyle() timeline.SubtitleStyle {
	return timeline.SubtitleStyle{
		FontFamily:   "Hiragino Sans",
		FontSize:     42,
		Fill:         "#FFFFFF",
		Stroke:       timeline.Stroke{Color: "#000000", Width: 4},
		Align:        "center",
		Position:     "bottom_center",
		MarginBottom: 80,
	}
}

// StyleFor applies a chapter's visual_style fade overrides to base.
func StyleFor(base timeline.SubtitleStyle, vs *chapter.VisualStyle) timeline.SubtitleStyle {
	if vs == nil {
		return base
	}
	if vs.SubtitleFadeIn != nil {
		v := *vs.SubtitleFadeIn
		base.FadeIn = &v
	}
	if vs.SubtitleFadeOut != nil {
		v := *vs.SubtitleFadeOut
		base.FadeOut = &v
	}
	return base
}

// Clips converts caption lines into subtitle track clips.
func Clips(lines []Line, style timeline.SubtitleStyle) []timeline.SubtitleClip {
	clips := make([]timeline.SubtitleClip, 0, len(lines))
	for _, l := range lines {
		from, to := timeline.Round3(l.Start), timeline.Round3(l.End)
		clips = append(clips, timeline.SubtitleClip{
			Start:    from,
			Duration: timeline.Round3(to - from),
			Text:     l.Text,
			Style:    style,
		})
	}
	return clips
}

type Generator struct {
	MaxChars int
	Lead     float64
	Style    timeline.SubtitleStyle
}

func NewGenerator(maxChars int, lead float64) *Generator {
	return &Generator{MaxChars: maxChars, Lead: lead, Style: DefaultStyle()}
}

// Output is the result of a subtitle pass.
type Output struct {
	Clips []timeline.SubtitleClip
	Files []string
	// End is the clock after the last chapter and matches timeline.Result.End
	// for the same chapters and lead-in.
	End float64
}

// Generate writes one SRT per chapter with a positive duration into outDir
// (skipped when outDir is empty) and returns the clips for the subtitle track.
// Chapters are timed on the same clock as the timeline builder.
func (g *Generator) Generate(chapters []*chapter.Batch, outDir string) (*Output, error) {
	out := &Output{Clips: []timeline.SubtitleClip{}}
	at := g.Lead
	for _, ch := range chapters {
		dur := ch.DurationSec
		if dur <= 0 {
			continue
		}

		lines := Lines(ch.NarrationText, at, dur, g.MaxChars)
		if outDir != "" {
			path := filepath.Join(outDir, FileName(ch.ChapterIndex, ch.ID))
			if err := WriteSRT(path, lines); err != nil {
				return nil, err
			}
			out.Files = append(out.Files, path)
		}
		out.Clips = append(out.Clips, Clips(lines, StyleFor(g.Style, ch.VisualStyle))...)
		at += dur
	}
	out.End = at
	return out, nil
}
