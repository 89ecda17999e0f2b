package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ivlev/doctimeline/internal/genai"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	_ "golang.org/x/image/webp"
)

// Report summarises one Run.
type Report struct {
	Generated int
	Total     int
	CostUSD   float64
	Files     []string
}

// Runner generates one PNG per meta prompt.
type Runner struct {
	Gen genai.ImageGenerator
	// Fit is "", FitCover or FitContain. Empty keeps the model's framing.
	Fit          string
	Width        int
	Height       int
	CostPerImage float64
}

// Run generates every prompt of meta into outDir as NN_<title>.png. Failed
// prompts are logged and skipped.
func (r *Runner) Run(ctx context.Context, meta *Meta, outDir string) (*Report, error) {
	log := logger.FromContext(ctx)

	if len(meta.ImagePrompts) == 0 {
		return nil, ErrNoPrompts
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	report := &Report{Total: len(meta.ImagePrompts)}
	for i, prompt := range meta.ImagePrompts {
		if err := ctx.Err(); err != nil {
			return report, errors.WithStack(err)
		}
		n := i + 1
		log.Info("generating image", logger.Data{"scene": n, "total": report.Total})

		data, err := r.Gen.Generate(ctx, prompt)
		if err != nil {
			log.Err(err).Warn("image generation failed", logger.Data{"scene": n})
			continue
		}
		out, err := r.prepare(data)
		if err != nil {
			log.Err(err).Warn("unusable image payload", logger.Data{"scene": n})
			continue
		}

		path := filepath.Join(outDir, fmt.Sprintf("%02d_%s.png", n, safeName(meta.Title)))
		if err := os.WriteFile(path, out, 0644); err != nil {
			return report, errors.WithStack(err)
		}
		log.Info("image saved", logger.Data{"path": path})
		report.Generated++
		report.Files = append(report.Files, path)
	}

	report.CostUSD = float64(report.Generated) * r.CostPerImage
	log.Info("image generation finished", logger.Data{
		"generated": report.Generated,
		"total":     report.Total,
		"cost_usd":  fmt.Sprintf("%.2f", report.CostUSD),
	})
	return report, nil
}

// prepare checks that data is an image and returns PNG bytes, fitted to the
// runner's size when a fit mode is set.
func (r *Runner) prepare(data []byte) ([]byte, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, errors.Errorf("payload is %s, not an image", mtype.String())
	}
	if r.Fit == "" && mtype.Is("image/png") {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", mtype.String())
	}
	if r.Fit != "" {
		img = Fit(img, r.Width, r.Height, r.Fit)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func safeName(title string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(title)
}
