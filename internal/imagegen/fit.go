package imagegen

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

const (
	FitCover   = "cover"
	FitContain = "contain"
)

// ParseSize reads a WIDTHxHEIGHT resolution string.
func ParseSize(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("invalid size %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, errors.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, errors.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}

// Fit scales src onto a w x h canvas. Cover fills the canvas and crops the
// overflow around the centre; contain shows the whole image on black bars.
func Fit(src image.Image, w, h int, mode string) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}

	switch mode {
	case FitContain:
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
		// the smaller ratio keeps the whole source visible
		tw, th := w, sh*w/sw
		if th > h {
			tw, th = sw*h/sh, h
		}
		x0, y0 := (w-tw)/2, (h-th)/2
		draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+tw, y0+th), src, sb, draw.Src, nil)
	default:
		cw, ch := sw, sw*h/w
		if ch > sh {
			cw, ch = sh*w/h, sh
		}
		x0 := sb.Min.X + (sw-cw)/2
		y0 := sb.Min.Y + (sh-ch)/2
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(x0, y0, x0+cw, y0+ch), draw.Src, nil)
	}
	return dst
}
