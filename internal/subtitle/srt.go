package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm).
// Negative values clamp to zero.
func FormatTimestamp(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	total := int64(math.Round(sec * 1000))
	ms := total % 1000
	s := total / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", s/3600, (s/60)%60, s%60, ms)
}

// FileName is the SRT file name for a chapter.
func FileName(index int, id string) string {
	return fmt.Sprintf("chapter_%02d_%s.srt", index, id)
}

// EncodeSRT writes lines as numbered SRT cues separated by blank lines.
func EncodeSRT(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", l.Index, FormatTimestamp(l.Start), FormatTimestamp(l.End), l.Text); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(bw.Flush())
}

// WriteSRT writes lines into path.
func WriteSRT(path string, lines []Line) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithStack(err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if err := EncodeSRT(f, lines); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.WithStack(f.Close())
}
