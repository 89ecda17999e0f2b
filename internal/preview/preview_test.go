package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ivlev/doctimeline/internal/timeline"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyframesFor(t *testing.T) {
	tests := []struct {
		preset     string
		start, end Keyframe
	}{
		{timeline.PresetZoomIn, Keyframe{0, 1, 0.5, 0.5}, Keyframe{4, 1.2, 0.5, 0.5}},
		{timeline.PresetZoomIn + "-slow", Keyframe{0, 1, 0.5, 0.5}, Keyframe{4, 1.1, 0.5, 0.5}},
		{timeline.PresetZoomOut, Keyframe{0, 1.2, 0.5, 0.5}, Keyframe{4, 1, 0.5, 0.5}},
		{timeline.PresetPanRight, Keyframe{0, 1.15, 0.4, 0.5}, Keyframe{4, 1.15, 0.6, 0.5}},
		{timeline.PresetPanLeft + "-slow", Keyframe{0, 1.15, 0.6, 0.5}, Keyframe{4, 1.15, 0.4, 0.5}},
		{"unknown", Keyframe{0, 1, 0.5, 0.5}, Keyframe{4, 1, 0.5, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			assert.Equal(t, []Keyframe{tt.start, tt.end}, KeyframesFor(tt.preset, 4))
		})
	}
}

func TestFrames(t *testing.T) {
	assert.Equal(t, 90, Frames(3, 30))
	assert.Equal(t, 1, Frames(0.001, 30))
	assert.Equal(t, 1, Frames(0, 30))
}

func TestPiecewise(t *testing.T) {
	zoom := func(k Keyframe) float64 { return k.Zoom }

	assert.Equal(t, "0", piecewise(nil, 30, zoom))
	assert.Equal(t, "1.500000", piecewise([]Keyframe{{Zoom: 1.5}}, 30, zoom))
	assert.Equal(t,
		"if(lte(on,60),1.000000+(on-0)/60*(0.200000),1.200000)",
		piecewise(KeyframesFor(timeline.PresetZoomIn, 2), 30, zoom))

	three := []Keyframe{{Time: 0, Zoom: 1}, {Time: 1, Zoom: 2}, {Time: 1, Zoom: 3}}
	assert.Equal(t,
		"if(lte(on,30),1.000000+(on-0)/30*(1.000000),if(lte(on,30),2.000000,3.000000))",
		piecewise(three, 30, zoom))
}

func TestZoomPan(t *testing.T) {
	f := ZoomPan([]Keyframe{{Zoom: 1, CX: 0.5, CY: 0.5}}, 45, 30, 640, 360)
	assert.Equal(t, "zoompan=z='1.000000':x='iw*(0.500000)-iw/zoom/2':y='ih*(0.500000)-ih/zoom/2':d=45:s=640x360:fps=30", f)
}

func TestFraming(t *testing.T) {
	assert.Equal(t, "scale=1280:720:force_original_aspect_ratio=increase,crop=1280:720", Framing("cover", 640, 360))
	assert.Equal(t, "scale=1280:720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2", Framing("contain", 640, 360))
}

func TestFades(t *testing.T) {
	clip := timeline.ImageClip{Duration: 10}
	assert.Empty(t, Fades(clip))

	clip.TransitionIn = &timeline.Transition{Type: "fade", Duration: 0.5}
	clip.TransitionOut = &timeline.Transition{Type: "fade", Duration: 0.5}
	assert.Equal(t, []string{"fade=t=in:st=0:d=0.500", "fade=t=out:st=9.500:d=0.500"}, Fades(clip))

	short := timeline.ImageClip{Duration: 0.2, TransitionOut: &timeline.Transition{Duration: 0.5}}
	assert.Equal(t, []string{"fade=t=out:st=0.000:d=0.500"}, Fades(short))
}

func TestSegmentFilter(t *testing.T) {
	clip := timeline.ImageClip{
		Duration: 3,
		Fit:      "cover",
		Motion:   timeline.Motion{Preset: timeline.PresetZoomOut},
	}

	f := SegmentFilter(clip, 640, 360, 30, "")
	assert.True(t, strings.HasPrefix(f, "scale=1280:720:force_original_aspect_ratio=increase,crop=1280:720,zoompan="))
	assert.Contains(t, f, ":d=90:s=640x360:fps=30")
	assert.True(t, strings.HasSuffix(f, ",scale=640:360"))
	assert.NotContains(t, f, "drawtext")

	labeled := SegmentFilter(clip, 640, 360, 30, "1 a:b.png it's")
	assert.Contains(t, labeled, `drawtext=text='1 a\:b.png it\'s'`)
}

func TestQualityArgs(t *testing.T) {
	assert.Equal(t, []string{"-b:v", "2800k"}, QualityArgs("h264_videotoolbox", 28))
	assert.Equal(t, []string{"-cq", "28"}, QualityArgs("h264_nvenc", 28))
	assert.Equal(t, []string{"-crf", "28", "-preset", "medium"}, QualityArgs("libx264", 28))
}

func TestAudioClipFilter(t *testing.T) {
	c := timeline.AudioClip{Path: "v.wav", Start: 2, Duration: 10, FadeIn: 0.75, FadeOut: 0.75}
	assert.Equal(t,
		"[3:a]atrim=0:10.000,asetpts=PTS-STARTPTS,afade=t=in:st=0:d=0.750,afade=t=out:st=9.250:d=0.750,adelay=2000|2000",
		AudioClipFilter(3, c, 0))

	bgm := timeline.AudioClip{Path: "m.mp3", Start: 0, Duration: 5, FadeIn: 0.5}
	assert.Equal(t,
		"[1:a]atrim=0:5.000,asetpts=PTS-STARTPTS,afade=t=in:st=0:d=0.500,volume=-12dB,adelay=0|0",
		AudioClipFilter(1, bgm, -12))
}

func TestSegmentArgs(t *testing.T) {
	e := &FFmpegEncoder{Codec: "libx264", Quality: 28, FPS: 30}
	args := e.segmentArgs(320, 180, Segment{Duration: 2.5, Filter: "null"}, "out.mp4")
	assert.Equal(t, []string{
		"-y", "-f", "rawvideo", "-pixel_format", "rgba", "-video_size", "320x180", "-i", "-",
		"-vf", "null", "-t", "2.500", "-r", "30", "-pix_fmt", "yuv420p", "-c:v", "libx264",
		"-crf", "28", "-preset", "medium", "out.mp4",
	}, args)
}

func TestConcatArgs(t *testing.T) {
	e := &FFmpegEncoder{Codec: "libx264", Quality: 28, FPS: 30}
	mix := AudioMix{
		Voice:  []timeline.AudioClip{{Path: "v.wav", Start: 1, Duration: 4}},
		BGM:    []timeline.AudioClip{{Path: "m.mp3", Start: 0, Duration: 6}},
		GainDB: -12,
		Total:  6,
	}
	args := e.concatArgs([]string{"a.mp4", "b.mp4"}, mix, "final.mp4")

	graph := strings.Join([]string{
		"[0:v][1:v]concat=n=2:v=1:a=0[vout]",
		"[2:a]atrim=0:4.000,asetpts=PTS-STARTPTS,adelay=1000|1000[v2]",
		"[3:a]atrim=0:6.000,asetpts=PTS-STARTPTS,volume=-12dB,adelay=0|0[b3]",
		"[v2][b3]amix=inputs=2:duration=longest:dropout_transition=0:normalize=0[aout]",
	}, ";")
	assert.Equal(t, []string{
		"-y", "-i", "a.mp4", "-i", "b.mp4", "-i", "v.wav", "-i", "m.mp3",
		"-filter_complex", graph,
		"-map", "[vout]", "-map", "[aout]", "-c:a", "aac",
		"-t", "6.000",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-crf", "28", "-preset", "medium",
		"final.mp4",
	}, args)
}

func TestConcatArgsWithoutAudio(t *testing.T) {
	e := &FFmpegEncoder{Codec: "libx264", Quality: 20}
	args := e.concatArgs([]string{"a.mp4"}, AudioMix{}, "final.mp4")
	assert.NotContains(t, args, "[aout]")
	assert.NotContains(t, args, "-t")
	assert.Contains(t, args, "[0:v]concat=n=1:v=1:a=0[vout]")
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, img))
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, buf.Bytes())
}

type fakeEncoder struct {
	mu       sync.Mutex
	segments map[int]Segment
	concat   []string
	mix      AudioMix
	failAt   int
}

func (f *fakeEncoder) EncodeSegment(_ context.Context, seg Segment, outPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && seg.Index == f.failAt {
		return errors.New("encoder crashed")
	}
	if f.segments == nil {
		f.segments = map[int]Segment{}
	}
	f.segments[seg.Index] = seg
	return nil
}

func (f *fakeEncoder) Concatenate(_ context.Context, paths []string, mix AudioMix, _ string) error {
	f.concat = paths
	f.mix = mix
	return nil
}

func testProject(imagePath string) *timeline.Project {
	return &timeline.Project{
		Tracks: []timeline.Track{
			{Type: timeline.TrackVideo, Images: []timeline.ImageClip{
				{Path: imagePath, Start: 0, Duration: 2, Fit: "cover", Motion: timeline.Motion{Preset: timeline.PresetZoomIn}},
				{Path: timeline.Placeholder("c", 2), Start: 2, Duration: 3, Fit: "cover", Motion: timeline.Motion{Preset: timeline.PresetPanLeft}},
			}},
			{Type: timeline.TrackAudio, Role: timeline.RoleVoice, Audio: []timeline.AudioClip{{Path: "voice/c.wav", Start: 0, Duration: 5}}},
			{Type: timeline.TrackAudio, Role: timeline.RoleBGM, Audio: []timeline.AudioClip{{Path: "bgm/a.mp3", Start: 0, Duration: 5}}},
		},
		Mix: timeline.Mix{Ducking: timeline.Ducking{Enable: true, GainDB: -12}},
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0755))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 4))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "1.png"), buf.Bytes(), 0644))

	enc := &fakeEncoder{}
	r := &Renderer{Encoder: enc, Width: 32, Height: 18, FPS: 10, Workers: 2, BaseDir: dir, TmpDir: t.TempDir()}
	ctx := logger.New().WithContext(context.Background())

	require.NoError(t, r.Render(ctx, testProject("images/1.png"), filepath.Join(dir, "out", "preview.mp4")))

	require.Len(t, enc.segments, 2)
	assert.Equal(t, image.Rect(0, 0, 8, 4), enc.segments[0].Frame.Bounds())
	assert.Equal(t, image.Rect(0, 0, 32, 18), enc.segments[1].Frame.Bounds(), "placeholders become black frames")
	assert.Contains(t, enc.segments[1].Filter, ":d=30:s=32x18:fps=10")

	require.Len(t, enc.concat, 2)
	assert.True(t, strings.HasSuffix(enc.concat[0], "seg_0000.mp4"))
	assert.True(t, strings.HasSuffix(enc.concat[1], "seg_0001.mp4"))
	assert.Equal(t, 5.0, enc.mix.Total)
	assert.Equal(t, -12.0, enc.mix.GainDB)
	require.Len(t, enc.mix.Voice, 1)
	assert.Equal(t, filepath.Join(dir, "voice", "c.wav"), enc.mix.Voice[0].Path)
	assert.Equal(t, filepath.Join(dir, "bgm", "a.mp3"), enc.mix.BGM[0].Path)
}

func TestRenderMissingImageUsesBlackFrame(t *testing.T) {
	enc := &fakeEncoder{}
	r := &Renderer{Encoder: enc, Width: 16, Height: 9, FPS: 10, Workers: 1, BaseDir: t.TempDir(), TmpDir: t.TempDir()}
	ctx := logger.New().WithContext(context.Background())

	require.NoError(t, r.Render(ctx, testProject("images/missing.png"), filepath.Join(t.TempDir(), "p.mp4")))
	assert.Equal(t, image.Rect(0, 0, 16, 9), enc.segments[0].Frame.Bounds())
}

func TestRenderErrors(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())

	r := &Renderer{Encoder: &fakeEncoder{}, Width: 16, Height: 9, FPS: 10, TmpDir: t.TempDir()}
	err := r.Render(ctx, &timeline.Project{}, filepath.Join(t.TempDir(), "p.mp4"))
	assert.ErrorIs(t, err, ErrNoClips)

	enc := &fakeEncoder{failAt: 1}
	r = &Renderer{Encoder: enc, Width: 16, Height: 9, FPS: 10, Workers: 2, TmpDir: t.TempDir()}
	err = r.Render(ctx, testProject(timeline.Placeholder("c", 1)), filepath.Join(t.TempDir(), "p.mp4"))
	assert.EqualError(t, err, "encoder crashed")
	assert.Nil(t, enc.concat)
}

func TestClipsEnd(t *testing.T) {
	assert.Equal(t, 0.0, ClipsEnd(nil))
	assert.Equal(t, 7.5, ClipsEnd([]timeline.ImageClip{{Start: 0, Duration: 2}, {Start: 5, Duration: 2.5}, {Start: 1, Duration: 1}}))
}
