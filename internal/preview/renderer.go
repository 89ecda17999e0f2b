package preview

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ivlev/doctimeline/internal/system"
	"github.com/ivlev/doctimeline/internal/timeline"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// ErrNoClips is returned when the project has no video clips to render.
var ErrNoClips = errors.New("project has no video clips")

// Renderer turns a timeline project into a low resolution preview video.
type Renderer struct {
	Encoder VideoEncoder
	Width   int
	Height  int
	FPS     int
	Workers int
	// BaseDir resolves relative clip paths.
	BaseDir string
	// Debug burns the clip name and motion preset into each segment.
	Debug  bool
	TmpDir string
}

// Render encodes every video clip of project in parallel, then joins them
// with the voice and BGM tracks into out.
func (r *Renderer) Render(ctx context.Context, project *timeline.Project, out string) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	video := project.Find(timeline.TrackVideo, "")
	if video == nil || len(video.Images) == 0 {
		return ErrNoClips
	}
	clips := video.Images

	tmp, err := os.MkdirTemp(r.TmpDir, "doctimeline_preview_")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.RemoveAll(tmp)

	labels := r.Debug
	if labels {
		if !system.CheckFilterSupport(ctx, "drawtext") {
			log.Warn("drawtext filter unavailable, debug labels disabled")
			labels = false
		}
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	paths := make([]string, len(clips))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, clip := range clips {
		g.Go(func() error {
			label := ""
			if labels {
				label = fmt.Sprintf("%d %s %s", i+1, filepath.Base(clip.Path), clip.Motion.Preset)
			}
			seg := Segment{
				Index:    i,
				Frame:    r.loadFrame(gctx, clip.Path),
				Duration: clip.Duration,
				Filter:   SegmentFilter(clip, r.Width, r.Height, r.FPS, label),
			}
			p := filepath.Join(tmp, fmt.Sprintf("seg_%04d.mp4", i))
			if err := r.Encoder.EncodeSegment(gctx, seg, p); err != nil {
				return err
			}
			paths[i] = p
			n := done.Add(1)
			log.Debug("segment encoded", logger.Data{"done": n, "total": len(clips)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("segments encoded", logger.Data{"count": len(paths), "elapsed": time.Since(start).String()})

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return errors.WithStack(err)
	}
	if err := r.Encoder.Concatenate(ctx, paths, r.mixFor(project), out); err != nil {
		return err
	}

	log.Info("preview rendered", logger.Data{"out": out, "elapsed": time.Since(start).String()})
	return nil
}

func (r *Renderer) mixFor(project *timeline.Project) AudioMix {
	mix := AudioMix{Total: ClipsEnd(project.Find(timeline.TrackVideo, "").Images)}
	if t := project.Find(timeline.TrackAudio, timeline.RoleVoice); t != nil {
		mix.Voice = r.resolveAudio(t.Audio)
	}
	if t := project.Find(timeline.TrackAudio, timeline.RoleBGM); t != nil {
		mix.BGM = r.resolveAudio(t.Audio)
	}
	if d := project.Mix.Ducking; d.Enable && len(mix.Voice) > 0 {
		mix.GainDB = d.GainDB
	}
	return mix
}

func (r *Renderer) resolveAudio(clips []timeline.AudioClip) []timeline.AudioClip {
	out := make([]timeline.AudioClip, 0, len(clips))
	for _, c := range clips {
		c.Path = r.resolve(c.Path)
		out = append(out, c)
	}
	return out
}

// loadFrame decodes the clip image at the output size. Placeholders and
// unreadable files become black frames so the picture stays in step with the
// audio.
func (r *Renderer) loadFrame(ctx context.Context, path string) image.Image {
	black := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	if timeline.IsPlaceholder(path) {
		return black
	}

	f, err := os.Open(r.resolve(path))
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("image unreadable, using black frame", logger.Data{"path": path})
		return black
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("image undecodable, using black frame", logger.Data{"path": path})
		return black
	}
	return img
}

func (r *Renderer) resolve(path string) string {
	p := filepath.FromSlash(path)
	if r.BaseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.BaseDir, p)
}

// ClipsEnd is the latest end time over clips.
func ClipsEnd(clips []timeline.ImageClip) float64 {
	end := 0.0
	for _, c := range clips {
		end = max(end, c.Start+c.Duration)
	}
	return end
}
