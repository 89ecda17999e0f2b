// Package scripts writes one narration script per planned chapter and a
// meta.json describing the set.
package scripts

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/ivlev/doctimeline/internal/genai"
	"github.com/ivlev/doctimeline/internal/jsonfile"
	"github.com/ivlev/doctimeline/internal/system"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// DefaultLength is the narration length, in Japanese characters, requested
// per chapter.
const DefaultLength = 1100

type PlanEntry struct {
	ID    string
	Title string
	BGM   string
}

// DefaultPlan is the six-part story arc.
var DefaultPlan = []PlanEntry{
	{ID: "opening", Title: "プロローグ", BGM: "dramatic.mp3"},
	{ID: "chapter1", Title: "少年時代", BGM: "calm.mp3"},
	{ID: "chapter2", Title: "挑戦と失敗", BGM: "tense.mp3"},
	{ID: "chapter3", Title: "新たなる希望", BGM: "inspiring.mp3"},
	{ID: "chapter4", Title: "栄光と代償", BGM: "tense.mp3"},
	{ID: "ending", Title: "エピローグ", BGM: "inspiring.mp3"},
}

// DefaultTemplate is used when no prompt file is given.
const DefaultTemplate = `あなたはドキュメンタリー番組の脚本家です。{{.Person}}の生涯を描く動画の「{{.Section}}」パートのナレーション原稿を書いてください。
- 約{{.Length}}文字の日本語
- 具体的な年月日、場所、人物名、引用（「...」）を含める
- 史実に忠実に。不確かな点は「伝えられている」と明記する
- 最後にこのパートの教訓を一文で添える
ナレーション本文のみを出力してください。`

type Meta struct {
	Title    string        `json:"title"`
	Chapters []MetaChapter `json:"chapters"`
}

type MetaChapter struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	BGM        string `json:"bgm"`
	ScriptPath string `json:"script_path"`
}

type promptData struct {
	Person  string
	Section string
	Length  int
}

// Generator fills <OutputsRoot>/scripts with <id>.txt files. Existing files
// are kept, so an interrupted run resumes where it stopped.
type Generator struct {
	Text        genai.TextGenerator
	OutputsRoot string
	Plan        []PlanEntry
	Length      int
	tmpl        *template.Template
}

func NewGenerator(text genai.TextGenerator, outputsRoot, promptTemplate string) (*Generator, error) {
	if promptTemplate == "" {
		promptTemplate = DefaultTemplate
	}
	tmpl, err := template.New("script").Parse(promptTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parse script prompt")
	}
	return &Generator{
		Text:        text,
		OutputsRoot: outputsRoot,
		Plan:        DefaultPlan,
		Length:      DefaultLength,
		tmpl:        tmpl,
	}, nil
}

func (g *Generator) ScriptsDir() string {
	return filepath.Join(g.OutputsRoot, "scripts")
}

// Generate writes the missing scripts for person and then meta.json. A chapter
// whose generation fails is logged and left for the next run.
func (g *Generator) Generate(ctx context.Context, person string) (*Meta, error) {
	log := logger.FromContext(ctx)

	dir := g.ScriptsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	log.Info("generating chapter scripts", logger.Data{"person": person, "chapters": len(g.Plan)})
	for _, ch := range g.Plan {
		p := filepath.Join(dir, ch.ID+".txt")
		if system.FileExists(p) {
			log.Info("script exists, skipping", logger.Data{"chapter": ch.ID})
			continue
		}

		prompt, err := g.prompt(person, ch.Title)
		if err != nil {
			return nil, err
		}
		text, err := g.Text.Generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.WithStack(ctx.Err())
			}
			log.Err(err).Warn("script generation failed", logger.Data{"chapter": ch.ID})
			continue
		}
		if err := os.WriteFile(p, []byte(text), 0644); err != nil {
			return nil, errors.WithStack(err)
		}
		log.Info("script saved", logger.Data{"chapter": ch.ID, "path": p})
	}

	meta := &Meta{Title: person + "の物語", Chapters: make([]MetaChapter, 0, len(g.Plan))}
	root := filepath.ToSlash(g.OutputsRoot)
	for _, ch := range g.Plan {
		meta.Chapters = append(meta.Chapters, MetaChapter{
			ID:         ch.ID,
			Title:      ch.Title,
			BGM:        ch.BGM,
			ScriptPath: path.Join(root, "scripts", ch.ID+".txt"),
		})
	}
	metaPath := filepath.Join(g.OutputsRoot, "meta.json")
	if err := jsonfile.Write(metaPath, meta); err != nil {
		return nil, err
	}
	log.Info("meta written", logger.Data{"path": metaPath})
	return meta, nil
}

func (g *Generator) prompt(person, section string) (string, error) {
	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, promptData{Person: person, Section: section, Length: g.Length})
	if err != nil {
		return "", errors.Wrap(err, "render script prompt")
	}
	return buf.String(), nil
}
