package master

import (
	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/pkg/errors"
)

// ExtractChapter returns a master holding only the chapter at index. The
// chapter becomes index 0 and keeps the first emotion level recorded for it.
func (m *Master) ExtractChapter(index int) (*Master, error) {
	chapters := m.Package.Script.Chapters
	if len(chapters) == 0 {
		return nil, ErrMissingChapters
	}
	if index < 0 || index >= len(chapters) {
		return nil, errors.Errorf("chapter index %d out of range (0..%d)", index, len(chapters)-1)
	}

	level := chapter.DefaultEmotionLevel
	for _, p := range m.Package.EmotionCurve {
		if p.ChapterIndex == index {
			if p.Level != nil {
				level = chapter.ClampEmotion(*p.Level)
			}
			break
		}
	}
	pkg := m.Package
	pkg.Script = Script{Chapters: []Chapter{chapters[index]}}
	pkg.EmotionCurve = []EmotionPoint{{ChapterIndex: 0, Level: &level}}
	return &Master{Package: pkg}, nil
}

// InjectVisualStyle adds a grade and symmetric subtitle fades to the batch at
// path.
func InjectVisualStyle(path, grade string, fade float64) (*chapter.Batch, error) {
	b, err := chapter.Read(path)
	if err != nil {
		return nil, err
	}
	in, out := fade, fade
	b.VisualStyle = &chapter.VisualStyle{Grade: grade, SubtitleFadeIn: &in, SubtitleFadeOut: &out}
	if err := chapter.Write(path, b); err != nil {
		return nil, err
	}
	return b, nil
}
