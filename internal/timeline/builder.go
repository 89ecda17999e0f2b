package timeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/ivlev/doctimeline/internal/media"
	"github.com/pkg/errors"
)

// ClipsPerChapter is the number of image clips every chapter receives.
const ClipsPerChapter = 3

// ShotRow is one line of the review shot list.
type ShotRow struct {
	ChapterIndex int
	ChapterID    string
	ImagePath    string
	StartSec     float64
	DurationSec  float64
}

// Result is everything a single Build produces.
type Result struct {
	Project *Project
	Shots   []ShotRow
	// End is the clock after the last chapter: lead-in plus every positive
	// chapter duration.
	End float64
}

type Builder struct {
	Settings Settings
	Media    media.Resolver
}

func NewBuilder(s Settings, r media.Resolver) *Builder {
	return &Builder{Settings: s, Media: r}
}

// layout is the fold accumulator threaded through the chapters.
type layout struct {
	at     float64
	images []ImageClip
	voice  []AudioClip
	shots  []ShotRow
}

// Build lays the chapters out in the order given. Callers are expected to
// pass chapters sorted by chapter_index, as chapter.LoadDir returns them.
func (b *Builder) Build(chapters []*chapter.Batch) (*Result, error) {
	acc := layout{
		at:     b.Settings.PaddingLeadSec,
		images: []ImageClip{},
		voice:  []AudioClip{},
		shots:  []ShotRow{},
	}

	for _, ch := range chapters {
		next, err := b.place(acc, ch)
		if err != nil {
			return nil, err
		}
		acc = next
	}

	bgmFiles, err := b.Media.BGM()
	if err != nil {
		return nil, errors.Wrap(err, "scan bgm")
	}
	bgm := TileBGM(bgmFiles, acc.at, b.Settings)

	project := b.newProject()
	project.Tracks[0].Images = acc.images
	project.Tracks[1].Audio = acc.voice
	project.Tracks[2].Audio = bgm

	return &Result{Project: project, Shots: acc.shots, End: acc.at}, nil
}

// place emits one chapter's clips, voice and shot rows starting at acc.at and
// returns the advanced accumulator.
func (b *Builder) place(acc layout, ch *chapter.Batch) (layout, error) {
	dur := ch.DurationSec
	if dur <= 0 || math.IsNaN(dur) {
		return acc, nil
	}

	files, err := b.Media.Images(ch.ID)
	if err != nil {
		return acc, errors.Wrapf(err, "scan images for %s", ch.ID)
	}

	start := acc.at
	clips := SplitChapter(start, dur, len(files), Targets(ch.ID, files), ch.Emotion(), b.Settings)
	for _, c := range clips {
		acc.images = append(acc.images, c.clip)
		acc.shots = append(acc.shots, ShotRow{
			ChapterIndex: ch.ChapterIndex,
			ChapterID:    ch.ID,
			ImagePath:    c.source,
			StartSec:     c.clip.Start,
			DurationSec:  c.clip.Duration,
		})
	}

	if voice, ok := b.Media.Voice(ch.ID); ok {
		half := b.Settings.AudioFadeSec / 2
		acc.voice = append(acc.voice, AudioClip{
			Path:     slashPath(voice),
			Start:    Round3(start),
			Duration: Round3(dur),
			FadeIn:   half,
			FadeOut:  half,
		})
	}

	acc.at = start + dur
	return acc, nil
}

func (b *Builder) newProject() *Project {
	return &Project{
		Meta: Meta{
			Name:       b.Settings.Name,
			FPS:        b.Settings.FPS,
			Resolution: b.Settings.Resolution,
		},
		Tracks: []Track{
			{Type: TrackVideo, Images: []ImageClip{}},
			{Type: TrackAudio, Role: RoleVoice, Audio: []AudioClip{}},
			{Type: TrackAudio, Role: RoleBGM, Audio: []AudioClip{}},
			{Type: TrackSubtitles, Subtitles: []SubtitleClip{}},
		},
		Mix: Mix{Ducking: Ducking{
			Enable:     true,
			UnderRole:  RoleVoice,
			TargetRole: RoleBGM,
			GainDB:     b.Settings.DuckingGainDB,
		}},
	}
}

// Placeholder is the stand-in path for a missing image slot (1-based).
func Placeholder(chapterID string, slot int) string {
	return fmt.Sprintf("[MISSING:%s:img%d]", chapterID, slot)
}

// IsPlaceholder reports whether path was produced by Placeholder.
func IsPlaceholder(path string) bool {
	return strings.HasPrefix(path, "[MISSING:") && strings.HasSuffix(path, "]")
}

// Targets turns the discovered files of a chapter into exactly
// ClipsPerChapter image targets: the first three files, the files repeated
// until three, or placeholders when nothing was found.
func Targets(chapterID string, files []string) []string {
	targets := make([]string, 0, ClipsPerChapter)
	if len(files) == 0 {
		for i := 0; i < ClipsPerChapter; i++ {
			targets = append(targets, Placeholder(chapterID, i+1))
		}
		return targets
	}
	for len(targets) < ClipsPerChapter {
		targets = append(targets, files...)
	}
	return targets[:ClipsPerChapter]
}

type placedClip struct {
	clip   ImageClip
	source string
}

// SplitChapter divides dur across targets starting at start. Each slot gets
// dur / max(3, discovered) seconds and the last slot ends exactly at
// start+dur. With more than three discovered files the extra images are never
// placed, so the last clip absorbs their share. Emitted starts and durations
// sit on a shared millisecond grid: every clip ends where the next begins and
// the durations add up to the chapter length.
func SplitChapter(start, dur float64, discovered int, targets []string, emotion int, s Settings) []placedClip {
	per := dur / float64(max(ClipsPerChapter, discovered))
	end := start + dur

	out := make([]placedClip, 0, len(targets))
	cur := start
	for i, path := range targets {
		next := cur + per
		if i == len(targets)-1 {
			next = end
		}
		from, to := Round3(cur), Round3(next)

		clip := ImageClip{
			Path:     slashPath(path),
			Start:    from,
			Duration: Round3(to - from),
			Fit:      s.ImageFit,
			Motion:   Motion{Preset: MotionPreset(emotion, i), EmotionLevel: emotion},
		}
		if i > 0 {
			clip.TransitionIn = &Transition{Type: "fade", Duration: s.ImageXfadeSec}
		}
		if i < len(targets)-1 {
			clip.TransitionOut = &Transition{Type: "fade", Duration: s.ImageXfadeSec}
		}

		out = append(out, placedClip{clip: clip, source: path})
		cur = next
	}
	return out
}

// Round3 rounds to millisecond precision, half away from zero.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func slashPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
