// Package shorts produces the content package for a vertical documentary
// short: story, image prompts and marketing copy in one model call.
package shorts

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ivlev/doctimeline/internal/genai"
	"github.com/ivlev/doctimeline/internal/imagegen"
	"github.com/ivlev/doctimeline/internal/jsonfile"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const (
	RawResponseFile = "raw_response.txt"
	PackageFile     = "shorts_package.json"
	MetaFile        = "meta.json"
)

// Package is the subset of the model's reply this pipeline reads. The full
// reply is stored verbatim next to it.
type Package struct {
	MusicPrompt      string        `json:"music_prompt"`
	ThumbnailPrompts []ScenePrompt `json:"thumbnail_prompts"`
	MotionPrompts    []ScenePrompt `json:"motion_prompts"`
	SEO              struct {
		Titles []string `json:"titles"`
	} `json:"seo"`
}

type ScenePrompt struct {
	SceneFocus string `json:"scene_focus"`
	Prompt     string `json:"prompt"`
}

// Result lists what Generate wrote.
type Result struct {
	Person       string
	PackageDir   string
	ResponsePath string
	PackagePath  string
	MetaPath     string
	Package      *Package
	Images       *imagegen.Report
}

type Generator struct {
	Text       genai.TextGenerator
	OutputRoot string
	// Images is used only when Generate is asked for images.
	Images    *imagegen.Runner
	ImagesOut string
}

// Generate asks the text model for the package of person and writes it under
// OutputRoot/<slug>/.
func (g *Generator) Generate(ctx context.Context, person string, autoImages bool) (*Result, error) {
	log := logger.FromContext(ctx)

	log.Info("requesting shorts package", logger.Data{"person": person})
	raw, err := g.Text.Generate(ctx, BuildPrompt(person))
	if err != nil {
		return nil, err
	}

	data, err := genai.ExtractJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse shorts package")
	}
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, errors.Wrap(err, "decode shorts package")
	}

	dir := filepath.Join(g.OutputRoot, Slug(person))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	res := &Result{
		Person:       person,
		PackageDir:   dir,
		ResponsePath: filepath.Join(dir, RawResponseFile),
		PackagePath:  filepath.Join(dir, PackageFile),
		MetaPath:     filepath.Join(dir, MetaFile),
		Package:      &pkg,
	}
	if err := os.WriteFile(res.ResponsePath, []byte(raw), 0644); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := jsonfile.Write(res.PackagePath, data); err != nil {
		return nil, err
	}
	meta := MetaFor(person, &pkg)
	if err := imagegen.WriteMeta(res.MetaPath, meta); err != nil {
		return nil, err
	}
	log.Info("shorts package written", logger.Data{"dir": dir, "thumbnails": len(meta.ImagePrompts)})

	if autoImages && len(meta.ImagePrompts) > 0 {
		if g.Images == nil {
			return res, errors.New("image generation requested but no image generator is configured")
		}
		title := "short"
		if len(pkg.SEO.Titles) > 0 && pkg.SEO.Titles[0] != "" {
			title = pkg.SEO.Titles[0]
		}
		report, err := g.Images.Run(ctx, &imagegen.Meta{Title: title, ImagePrompts: meta.ImagePrompts}, g.ImagesOut)
		if err != nil {
			return res, err
		}
		res.Images = report
	}
	return res, nil
}

// MetaFor builds the image generator's meta from a package. Prompts without
// text are dropped; descriptions keep one entry per thumbnail.
func MetaFor(person string, pkg *Package) *imagegen.Meta {
	meta := &imagegen.Meta{
		Title:        person + " Documentary Thumbnails",
		ImagePrompts: []string{},
		Descriptions: []string{},
	}
	for _, p := range pkg.ThumbnailPrompts {
		if p.Prompt != "" {
			meta.ImagePrompts = append(meta.ImagePrompts, p.Prompt)
		}
		meta.Descriptions = append(meta.Descriptions, p.SceneFocus)
	}
	return meta
}

var nonSlugRE = regexp.MustCompile(`[^a-z0-9]+`)

// Slug is the ASCII folder name of a package. Names with no ASCII letters or
// digits fall back to "short".
func Slug(person string) string {
	s := nonSlugRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(person)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "short"
	}
	return s
}
