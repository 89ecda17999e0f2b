package preview

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/doctimeline/internal/timeline"
)

// Keyframe is the camera at a point of a clip. CX and CY are the centre of
// the view as fractions of the source frame.
type Keyframe struct {
	Time float64
	Zoom float64
	CX   float64
	CY   float64
}

// KeyframesFor approximates a motion preset with a start and an end camera.
func KeyframesFor(preset string, dur float64) []Keyframe {
	slow := strings.HasSuffix(preset, "-slow")
	base := strings.TrimSuffix(preset, "-slow")

	peak := 1.2
	if slow {
		peak = 1.1
	}

	start := Keyframe{Time: 0, Zoom: 1, CX: 0.5, CY: 0.5}
	end := Keyframe{Time: dur, Zoom: 1, CX: 0.5, CY: 0.5}
	switch base {
	case timeline.PresetZoomIn:
		end.Zoom = peak
	case timeline.PresetZoomOut:
		start.Zoom = peak
	case timeline.PresetPanRight:
		start.Zoom, end.Zoom = 1.15, 1.15
		start.CX, end.CX = 0.4, 0.6
	case timeline.PresetPanLeft:
		start.Zoom, end.Zoom = 1.15, 1.15
		start.CX, end.CX = 0.6, 0.4
	}
	return []Keyframe{start, end}
}

// Frames is the number of output frames for dur seconds, at least one.
func Frames(dur float64, fps int) int {
	n := int(math.Round(dur * float64(fps)))
	if n < 1 {
		n = 1
	}
	return n
}

// piecewise builds a zoompan expression interpolating value linearly between
// keyframes over the output frame number.
func piecewise(kfs []Keyframe, fps int, value func(Keyframe) float64) string {
	if len(kfs) == 0 {
		return "0"
	}
	if len(kfs) == 1 {
		return fmt.Sprintf("%.6f", value(kfs[0]))
	}

	var sb strings.Builder
	for i := 0; i < len(kfs)-1; i++ {
		startFrame := int(kfs[i].Time * float64(fps))
		endFrame := int(kfs[i+1].Time * float64(fps))
		a, b := value(kfs[i]), value(kfs[i+1])
		if endFrame > startFrame {
			fmt.Fprintf(&sb, "if(lte(on,%d),%.6f+(on-%d)/%d*(%.6f),", endFrame, a, startFrame, endFrame-startFrame, b-a)
		} else {
			fmt.Fprintf(&sb, "if(lte(on,%d),%.6f,", endFrame, a)
		}
	}
	fmt.Fprintf(&sb, "%.6f", value(kfs[len(kfs)-1]))
	sb.WriteString(strings.Repeat(")", len(kfs)-1))
	return sb.String()
}

// ZoomPan renders keyframes as a zoompan filter producing frames frames of
// width x height.
func ZoomPan(kfs []Keyframe, frames, fps, width, height int) string {
	z := piecewise(kfs, fps, func(k Keyframe) float64 { return k.Zoom })
	cx := piecewise(kfs, fps, func(k Keyframe) float64 { return k.CX })
	cy := piecewise(kfs, fps, func(k Keyframe) float64 { return k.CY })
	return fmt.Sprintf("zoompan=z='%s':x='iw*(%s)-iw/zoom/2':y='ih*(%s)-ih/zoom/2':d=%d:s=%dx%d:fps=%d",
		z, cx, cy, frames, width, height, fps)
}

// Framing pre-scales the source to twice the output size, cropping for
// "cover" and letterboxing for "contain".
func Framing(fit string, width, height int) string {
	w, h := width*2, height*2
	if fit == "contain" {
		return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h, w, h)
	}
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", w, h, w, h)
}

// Fades turns clip transitions into fade filters; empty when there are none.
func Fades(clip timeline.ImageClip) []string {
	var out []string
	if t := clip.TransitionIn; t != nil && t.Duration > 0 {
		out = append(out, fmt.Sprintf("fade=t=in:st=0:d=%.3f", t.Duration))
	}
	if t := clip.TransitionOut; t != nil && t.Duration > 0 {
		st := math.Max(0, clip.Duration-t.Duration)
		out = append(out, fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", st, t.Duration))
	}
	return out
}

// SegmentFilter is the complete -vf chain for one video clip.
func SegmentFilter(clip timeline.ImageClip, width, height, fps int, label string) string {
	frames := Frames(clip.Duration, fps)
	parts := []string{
		Framing(clip.Fit, width, height),
		ZoomPan(KeyframesFor(clip.Motion.Preset, clip.Duration), frames, fps, width, height),
	}
	parts = append(parts, Fades(clip)...)
	if label != "" {
		parts = append(parts, fmt.Sprintf("drawtext=text='%s':x=10:y=10:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5", escapeDrawtext(label)))
	}
	parts = append(parts, fmt.Sprintf("scale=%d:%d", width, height))
	return strings.Join(parts, ",")
}

func escapeDrawtext(s string) string {
	return strings.NewReplacer(`\`, `\\`, "'", `\'`, ":", `\:`, "%", `\%`).Replace(s)
}
