package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"

	"github.com/ivlev/doctimeline/internal/timeline"
	"github.com/pkg/errors"
)

// Segment is one video clip ready for encoding.
type Segment struct {
	Index    int
	Frame    image.Image
	Duration float64
	Filter   string
}

// AudioMix describes the soundtrack laid under the concatenated segments.
type AudioMix struct {
	Voice  []timeline.AudioClip
	BGM    []timeline.AudioClip
	GainDB float64
	Total  float64
}

type VideoEncoder interface {
	EncodeSegment(ctx context.Context, seg Segment, outPath string) error
	Concatenate(ctx context.Context, segmentPaths []string, mix AudioMix, finalPath string) error
}

// FFmpegEncoder encodes with the ffmpeg binary on PATH.
type FFmpegEncoder struct {
	Codec   string
	Quality int
	FPS     int
}

// EncodeSegment streams the frame as raw RGBA into ffmpeg, which expands it
// into the clip with the segment filter.
func (e *FFmpegEncoder) EncodeSegment(ctx context.Context, seg Segment, outPath string) error {
	b := seg.Frame.Bounds()
	args := e.segmentArgs(b.Dx(), b.Dy(), seg, outPath)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "stdin pipe")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "ffmpeg start")
	}

	if err := writeRawRGBA(stdin, seg.Frame); err != nil {
		stdin.Close()
		_ = cmd.Wait()
		return errors.Wrapf(err, "write frame of segment %d", seg.Index)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return errors.Wrapf(err, "ffmpeg segment %d: %s", seg.Index, tail(out.String()))
	}
	return nil
}

func (e *FFmpegEncoder) segmentArgs(w, h int, seg Segment, outPath string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-i", "-",
		"-vf", seg.Filter,
		"-t", fmt.Sprintf("%.3f", seg.Duration),
		"-r", fmt.Sprintf("%d", e.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", e.Codec,
	}
	args = append(args, QualityArgs(e.Codec, e.Quality)...)
	return append(args, outPath)
}

// Concatenate joins the segments and mixes the soundtrack in one pass.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, mix AudioMix, finalPath string) error {
	args := e.concatArgs(segmentPaths, mix, finalPath)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "ffmpeg concat: %s", tail(string(out)))
	}
	return nil
}

func (e *FFmpegEncoder) concatArgs(segmentPaths []string, mix AudioMix, finalPath string) []string {
	args := []string{"-y"}
	for _, p := range segmentPaths {
		args = append(args, "-i", p)
	}

	var graph []string
	var inputs strings.Builder
	for i := range segmentPaths {
		fmt.Fprintf(&inputs, "[%d:v]", i)
	}
	graph = append(graph, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[vout]", inputs.String(), len(segmentPaths)))

	next := len(segmentPaths)
	var labels []string
	addClip := func(c timeline.AudioClip, gainDB float64, prefix string) {
		args = append(args, "-i", c.Path)
		label := fmt.Sprintf("[%s%d]", prefix, next)
		graph = append(graph, AudioClipFilter(next, c, gainDB)+label)
		labels = append(labels, label)
		next++
	}
	for _, c := range mix.Voice {
		addClip(c, 0, "v")
	}
	for _, c := range mix.BGM {
		addClip(c, mix.GainDB, "b")
	}
	if len(labels) > 0 {
		graph = append(graph, fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[aout]", strings.Join(labels, ""), len(labels)))
	}

	args = append(args, "-filter_complex", strings.Join(graph, ";"), "-map", "[vout]")
	if len(labels) > 0 {
		args = append(args, "-map", "[aout]", "-c:a", "aac")
	}
	if mix.Total > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", mix.Total))
	}
	args = append(args, "-c:v", e.Codec, "-pix_fmt", "yuv420p")
	args = append(args, QualityArgs(e.Codec, e.Quality)...)
	return append(args, finalPath)
}

// AudioClipFilter trims, fades, attenuates and positions input idx as the
// clip describes.
func AudioClipFilter(idx int, c timeline.AudioClip, gainDB float64) string {
	parts := []string{fmt.Sprintf("atrim=0:%.3f", c.Duration), "asetpts=PTS-STARTPTS"}
	if c.FadeIn > 0 {
		parts = append(parts, fmt.Sprintf("afade=t=in:st=0:d=%.3f", c.FadeIn))
	}
	if c.FadeOut > 0 && c.Duration > c.FadeOut {
		parts = append(parts, fmt.Sprintf("afade=t=out:st=%.3f:d=%.3f", c.Duration-c.FadeOut, c.FadeOut))
	}
	if gainDB != 0 {
		parts = append(parts, fmt.Sprintf("volume=%gdB", gainDB))
	}
	ms := int64(c.Start*1000 + 0.5)
	parts = append(parts, fmt.Sprintf("adelay=%d|%d", ms, ms))
	return fmt.Sprintf("[%d:a]%s", idx, strings.Join(parts, ","))
}

// QualityArgs maps one quality number onto the rate control of each encoder.
func QualityArgs(codec string, quality int) []string {
	switch codec {
	case "h264_videotoolbox":
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 600 {
		s = "..." + s[len(s)-600:]
	}
	return s
}
