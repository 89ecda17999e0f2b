package master

import (
	"os"
	"path"
	"path/filepath"

	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/pkg/errors"
)

// MaxPromptsPerChapter caps the still and motion prompts copied into a batch.
const MaxPromptsPerChapter = 3

type BatchOptions struct {
	ScriptsDir   string
	ImagesRoot   string
	VoiceRoot    string
	VoiceSpeaker string
}

// Batches converts the master's chapters into batch records. Chapters without
// an id are skipped but still consume their index.
func (m *Master) Batches(opts BatchOptions) []*chapter.Batch {
	type prompts struct{ still, motion []string }
	bySlot := map[string]*prompts{}
	for _, t := range m.Package.Thumbnails {
		if t.Slot == "" {
			continue
		}
		p, ok := bySlot[t.Slot]
		if !ok {
			p = &prompts{}
			bySlot[t.Slot] = p
		}
		p.still = append(p.still, t.StillPrompt)
		p.motion = append(p.motion, t.MotionPrompt)
	}

	imagesRoot := filepath.ToSlash(opts.ImagesRoot)
	voiceRoot := filepath.ToSlash(opts.VoiceRoot)

	var out []*chapter.Batch
	for idx, ch := range m.Package.Script.Chapters {
		if ch.ID == "" {
			continue
		}
		still, motion := []string{}, []string{}
		if p, ok := bySlot[ch.ID]; ok {
			still = head(p.still, MaxPromptsPerChapter)
			motion = head(p.motion, MaxPromptsPerChapter)
		}
		level := m.EmotionFor(idx, chapter.DefaultEmotionLevel)

		b := &chapter.Batch{
			ChapterIndex:  idx,
			ID:            ch.ID,
			Title:         ch.Title,
			DurationSec:   ch.Time.DurationSec,
			NarrationText: ch.Narration,
			StillPrompts:  still,
			MotionPrompts: motion,
			BGMTag:        ch.Audio.BGMTag,
			SFX:           ch.Audio.SFX,
			Lesson:        ch.Lesson,
			EmotionLevel:  &level,
			VoiceSpeaker:  opts.VoiceSpeaker,
			OutputPaths: chapter.OutputPaths{
				ImageDir:  path.Join(imagesRoot, ch.ID) + "/",
				VoicePath: path.Join(voiceRoot, ch.ID+".wav"),
			},
		}
		if vs := ch.VisualStyle; vs != nil {
			b.VisualStyle = &chapter.VisualStyle{
				Grade:           vs.Grade,
				SubtitleFadeIn:  vs.SubtitleFadeIn,
				SubtitleFadeOut: vs.SubtitleFadeOut,
			}
		}
		out = append(out, b)
	}
	return out
}

// WriteBatches writes one chapter_NN_<id>.json per batch into opts.ScriptsDir
// and returns the written paths.
func (m *Master) WriteBatches(opts BatchOptions) ([]*chapter.Batch, []string, error) {
	if err := os.MkdirAll(opts.ScriptsDir, 0755); err != nil {
		return nil, nil, errors.WithStack(err)
	}
	batches := m.Batches(opts)
	paths := make([]string, 0, len(batches))
	for _, b := range batches {
		p := filepath.Join(opts.ScriptsDir, chapter.FileName(b.ChapterIndex, b.ID))
		if err := chapter.Write(p, b); err != nil {
			return nil, nil, err
		}
		paths = append(paths, p)
	}
	return batches, paths, nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string{}, s...)
}
