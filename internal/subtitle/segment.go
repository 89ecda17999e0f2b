package subtitle

import "strings"

// breakRunes end a caption line as soon as they are appended.
const breakRunes = ".。!?\n"

// Line is one caption with absolute times in seconds.
type Line struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Split breaks narration into caption texts. A line ends after a sentence
// mark or a line break, or once it holds maxChars characters. Lines are
// trimmed and blank ones dropped.
func Split(text string, maxChars int) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))

	var parts []string
	var buf strings.Builder
	n := 0
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			parts = append(parts, s)
		}
		buf.Reset()
		n = 0
	}

	for _, r := range text {
		buf.WriteRune(r)
		n++
		if strings.ContainsRune(breakRunes, r) || (maxChars > 0 && n >= maxChars) {
			flush()
		}
	}
	flush()
	return parts
}

// Lines splits text and spreads the lines evenly over [start, start+dur).
// The last line always ends at start+dur.
func Lines(text string, start, dur float64, maxChars int) []Line {
	parts := Split(text, maxChars)
	if len(parts) == 0 {
		return nil
	}

	seg := dur / float64(len(parts))
	end := start + dur
	lines := make([]Line, 0, len(parts))
	cur := start
	for i, p := range parts {
		next := cur + seg
		if i == len(parts)-1 {
			next = end
		}
		lines = append(lines, Line{Index: i + 1, Start: cur, End: next, Text: p})
		cur = next
	}
	return lines
}
