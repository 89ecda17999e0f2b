package imagegen

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// halves is a w x h image, red on the left and blue on the right.
func halves(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, red)
			} else {
				img.Set(x, y, blue)
			}
		}
	}
	return img
}

func assertNear(t *testing.T, want, got color.RGBA, msgAndArgs ...interface{}) {
	t.Helper()
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	ok := diff(want.R, got.R) <= 2 && diff(want.G, got.G) <= 2 && diff(want.B, got.B) <= 2 && diff(want.A, got.A) <= 2
	assert.True(t, ok, append([]interface{}{"want %v got %v", want, got}, msgAndArgs...)...)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeImages struct {
	payloads [][]byte
	errs     []error
	calls    int
}

func (f *fakeImages) Generate(_ context.Context, _ string) ([]byte, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.payloads[i], nil
}

func TestMetaReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, WriteMeta(path, &Meta{ImagePrompts: []string{"a"}}))

	m, err := ReadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, "untitled", m.Title)
	assert.Equal(t, []string{"a"}, m.ImagePrompts)

	require.NoError(t, WriteMeta(path, &Meta{Title: "x"}))
	_, err = ReadMeta(path)
	assert.ErrorIs(t, err, ErrNoPrompts)
}

func TestRunSkipsFailures(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())
	good := encodePNG(t, halves(4, 4))
	gen := &fakeImages{
		payloads: [][]byte{good, nil, []byte("this is plain text"), good},
		errs:     []error{nil, errors.New("quota"), nil, nil},
	}
	dir := t.TempDir()

	r := &Runner{Gen: gen, CostPerImage: 0.04}
	rep, err := r.Run(ctx, &Meta{Title: "Walt/Disney", ImagePrompts: []string{"p1", "p2", "p3", "p4"}}, dir)
	require.NoError(t, err)

	assert.Equal(t, 4, rep.Total)
	assert.Equal(t, 2, rep.Generated)
	assert.InDelta(t, 0.08, rep.CostUSD, 1e-9)
	assert.Equal(t, []string{
		filepath.Join(dir, "01_Walt_Disney.png"),
		filepath.Join(dir, "04_Walt_Disney.png"),
	}, rep.Files)

	data, err := os.ReadFile(rep.Files[0])
	require.NoError(t, err)
	assert.Equal(t, good, data, "png payloads are stored untouched without a fit mode")
}

func TestRunFitsToSize(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())
	gen := &fakeImages{payloads: [][]byte{encodePNG(t, halves(200, 100))}}

	r := &Runner{Gen: gen, Fit: FitCover, Width: 90, Height: 160}
	rep, err := r.Run(ctx, &Meta{Title: "t", ImagePrompts: []string{"p"}}, t.TempDir())
	require.NoError(t, err)
	require.Len(t, rep.Files, 1)

	f, err := os.Open(rep.Files[0])
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Width)
	assert.Equal(t, 160, cfg.Height)
}

func TestRunNoPrompts(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), &Meta{}, t.TempDir())
	assert.ErrorIs(t, err, ErrNoPrompts)
}

func TestFitCover(t *testing.T) {
	dst := Fit(halves(200, 100), 100, 100, FitCover)
	assert.Equal(t, image.Rect(0, 0, 100, 100), dst.Bounds())
	assertNear(t, red, dst.RGBAAt(10, 50))
	assertNear(t, blue, dst.RGBAAt(90, 50))
}

func TestFitContain(t *testing.T) {
	dst := Fit(halves(200, 100), 100, 100, FitContain)
	assertNear(t, color.RGBA{A: 255}, dst.RGBAAt(50, 5), "letterbox bar")
	assertNear(t, color.RGBA{A: 255}, dst.RGBAAt(50, 95), "letterbox bar")
	assertNear(t, red, dst.RGBAAt(10, 50))
	assertNear(t, blue, dst.RGBAAt(90, 50))
}

func TestParseSize(t *testing.T) {
	w, h, err := ParseSize("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	for _, bad := range []string{"", "1920", "ax1", "0x10", "10x-1"} {
		_, _, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}
