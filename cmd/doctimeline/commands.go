package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/ivlev/doctimeline/internal/config"
	"github.com/ivlev/doctimeline/internal/export"
	"github.com/ivlev/doctimeline/internal/genai"
	"github.com/ivlev/doctimeline/internal/imagegen"
	"github.com/ivlev/doctimeline/internal/master"
	"github.com/ivlev/doctimeline/internal/media"
	"github.com/ivlev/doctimeline/internal/pipeline"
	"github.com/ivlev/doctimeline/internal/preview"
	"github.com/ivlev/doctimeline/internal/scripts"
	"github.com/ivlev/doctimeline/internal/shorts"
	"github.com/ivlev/doctimeline/internal/subtitle"
	"github.com/ivlev/doctimeline/internal/system"
	"github.com/ivlev/doctimeline/internal/timeline"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/urfave/cli/v2"
)

func resolverFor(p config.PathsConfig) media.Resolver {
	return media.NewFSResolver(p.ImagesRoot, p.VoiceRoot, p.BGMRoot)
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "lay chapter batches out into a project timeline and shot list",
		Flags: append(pathFlags(),
			&cli.StringFlag{Name: "out-ccproj", Value: "zap1/output/walt_capcut.ccproj", Usage: "project file to write"},
			&cli.StringFlag{Name: "out-csv", Value: "zap1/output/shotlist.csv", Usage: "shot list to write"},
			&cli.StringFlag{Name: "person", Usage: "prefix for the project name"},
			&cli.BoolFlag{Name: "subtitles", Value: true, Usage: "fill the subtitle track and write SRT files"},
		),
		Action: func(c *cli.Context) error {
			log := logger.FromContext(c.Context)
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyPathFlags(c, &cfg.Paths)

			batches, err := chapter.LoadDir(cfg.Paths.ScriptsDir)
			if err != nil {
				return err
			}
			settings := timeline.SettingsFromConfig(cfg.Timeline, c.String("person"))
			res, err := timeline.NewBuilder(settings, resolverFor(cfg.Paths)).Build(batches)
			if err != nil {
				return err
			}
			for _, s := range res.Shots {
				if timeline.IsPlaceholder(s.ImagePath) {
					log.Warn("missing image", logger.Data{"chapter": s.ChapterID, "placeholder": s.ImagePath})
				}
			}

			if c.Bool("subtitles") {
				gen := subtitle.NewGenerator(cfg.Timeline.SubtitleMaxChars, cfg.Timeline.PaddingLeadSec)
				out, err := gen.Generate(batches, filepath.Join(cfg.Paths.OutputsRoot, "subtitles"))
				if err != nil {
					return err
				}
				res.Project.MergeSubtitles(out.Clips)
			}

			if err := timeline.WriteProject(c.String("out-ccproj"), res.Project); err != nil {
				return err
			}
			if err := timeline.WriteShotList(c.String("out-csv"), res.Shots); err != nil {
				return err
			}
			log.Info("timeline built", logger.Data{
				"project":  c.String("out-ccproj"),
				"shotlist": c.String("out-csv"),
				"chapters": len(batches),
				"end_sec":  res.End,
			})
			return nil
		},
	}
}

func subtitlesCommand() *cli.Command {
	return &cli.Command{
		Name:  "subtitles",
		Usage: "write per-chapter SRT files and merge them into a project",
		Flags: append(pathFlags(),
			&cli.StringFlag{Name: "srt-dir", Usage: "SRT output directory (default <outputs>/subtitles)"},
			&cli.StringFlag{Name: "project", Usage: "project file to merge the subtitle track into"},
		),
		Action: func(c *cli.Context) error {
			log := logger.FromContext(c.Context)
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyPathFlags(c, &cfg.Paths)

			batches, err := chapter.LoadDir(cfg.Paths.ScriptsDir)
			if err != nil {
				return err
			}
			srtDir := c.String("srt-dir")
			if srtDir == "" {
				srtDir = filepath.Join(cfg.Paths.OutputsRoot, "subtitles")
			}
			out, err := subtitle.NewGenerator(cfg.Timeline.SubtitleMaxChars, cfg.Timeline.PaddingLeadSec).Generate(batches, srtDir)
			if err != nil {
				return err
			}
			log.Info("subtitles written", logger.Data{"files": len(out.Files), "clips": len(out.Clips)})

			projectPath := c.String("project")
			if projectPath == "" {
				return nil
			}
			if !system.FileExists(projectPath) {
				log.Warn("project not found, subtitle track not merged", logger.Data{"project": projectPath})
				return nil
			}
			p, err := timeline.ReadProject(projectPath)
			if err != nil {
				return err
			}
			p.MergeSubtitles(out.Clips)
			return timeline.WriteProject(projectPath, p)
		},
	}
}

func makeAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "make-all",
		Usage: "run the whole flow for one master package",
		Flags: append(pathFlags(),
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "master JSON (default: newest under packages_dir)"},
			&cli.BoolFlag{Name: "export", Usage: "export the finished project through the editor"},
			&cli.BoolFlag{Name: "probe-voice", Usage: "compare voice file lengths with chapter durations"},
		),
		Action: func(c *cli.Context) error {
			log := logger.FromContext(c.Context)
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyPathFlags(c, &cfg.Paths)

			pkg := c.String("package")
			if pkg == "" {
				pkg, err = system.FindLatest(cfg.Paths.PackagesDir, []string{".json"})
				if err != nil {
					return errors.Wrap(err, "no --package given")
				}
				log.Info("using newest package", logger.Data{"package": pkg})
			}

			runner := pipeline.NewRunner(cfg, resolverFor(cfg.Paths), exporterFor(cfg.Export), system.GetAudioDuration)
			state, err := runner.Run(c.Context, pipeline.Options{
				PackagePath: pkg,
				Export:      c.Bool("export"),
				ProbeVoice:  c.Bool("probe-voice"),
			})
			if err != nil {
				return err
			}
			for _, s := range state.Steps {
				fmt.Printf("%-18s %-8s %s\n", s.Name, s.Status, s.Detail)
			}
			return nil
		},
	}
}

func exporterFor(e config.ExportConfig) *export.GUIExporter {
	return &export.GUIExporter{Command: e.Command, Script: e.Script}
}

func packageCommand() *cli.Command {
	return &cli.Command{
		Name:      "package",
		Usage:     "generate a shorts content package for a person",
		ArgsUsage: "<person>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "packages", Usage: "package output root (default packages_dir)"},
			&cli.BoolFlag{Name: "auto-images", Usage: "generate the thumbnail images as well"},
		},
		Action: func(c *cli.Context) error {
			person := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if person == "" {
				return errors.New("person name is required")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			override(c, &cfg.Paths.PackagesDir, "packages")

			text, err := genai.NewOpenAIText(cfg.OpenAI)
			if err != nil {
				return err
			}
			gen := &shorts.Generator{
				Text:       text.WithSystem("You are a documentary producer. Reply with a single JSON object."),
				OutputRoot: cfg.Paths.PackagesDir,
				ImagesOut:  cfg.Paths.ImagesOut,
			}
			if c.Bool("auto-images") {
				gen.Images, err = imagenRunner(c.Context, cfg, "")
				if err != nil {
					return err
				}
			}

			res, err := gen.Generate(c.Context, person, c.Bool("auto-images"))
			if err != nil {
				return err
			}
			fmt.Println(res.PackageDir)
			if res.Images != nil {
				fmt.Printf("images: %d/%d, estimated cost $%.2f\n", res.Images.Generated, res.Images.Total, res.Images.CostUSD)
			}
			return nil
		},
	}
}

func imagenRunner(ctx context.Context, cfg *config.Config, fit string) (*imagegen.Runner, error) {
	svc, err := genai.NewVertexService(ctx, cfg.Vertex)
	if err != nil {
		return nil, err
	}
	r := &imagegen.Runner{
		Gen:          genai.NewImagen(svc, cfg.Vertex),
		Fit:          fit,
		CostPerImage: cfg.Vertex.ImageCostUSD,
	}
	if fit != "" {
		r.Width, r.Height, err = imagegen.ParseSize(cfg.Timeline.Resolution)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func imagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "images",
		Usage: "generate one image per prompt of a meta.json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "meta", Value: "meta.json", Usage: "meta file with title and image_prompts"},
			&cli.StringFlag{Name: "out", Usage: "image output directory (default images_out)"},
			&cli.StringFlag{Name: "fit", Usage: "cover or contain to fit images to the timeline resolution"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			override(c, &cfg.Paths.ImagesOut, "out")

			fit := c.String("fit")
			if fit != "" && fit != imagegen.FitCover && fit != imagegen.FitContain {
				return errors.Errorf("unknown fit %q", fit)
			}

			meta, err := imagegen.ReadMeta(c.String("meta"))
			if err != nil {
				return err
			}
			runner, err := imagenRunner(c.Context, cfg, fit)
			if err != nil {
				return err
			}
			report, err := runner.Run(c.Context, meta, cfg.Paths.ImagesOut)
			if err != nil {
				return err
			}
			fmt.Printf("images: %d/%d, estimated cost $%.2f\n", report.Generated, report.Total, report.CostUSD)
			return nil
		},
	}
}

func scriptsCommand() *cli.Command {
	return &cli.Command{
		Name:      "scripts",
		Usage:     "write narration scripts for every planned chapter",
		ArgsUsage: "<person>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "outputs", Usage: "outputs root (default outputs_root)"},
			&cli.StringFlag{Name: "template", Usage: "file holding a custom prompt template"},
			&cli.IntFlag{Name: "length", Value: scripts.DefaultLength, Usage: "target characters per chapter"},
		},
		Action: func(c *cli.Context) error {
			person := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if person == "" {
				return errors.New("person name is required")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			override(c, &cfg.Paths.OutputsRoot, "outputs")

			tmpl := ""
			if p := c.String("template"); p != "" {
				data, err := readFile(p)
				if err != nil {
					return err
				}
				tmpl = data
			}

			svc, err := genai.NewVertexService(c.Context, cfg.Vertex)
			if err != nil {
				return err
			}
			gen, err := scripts.NewGenerator(genai.NewGeminiText(svc, cfg.Vertex), cfg.Paths.OutputsRoot, tmpl)
			if err != nil {
				return err
			}
			gen.Length = c.Int("length")

			meta, err := gen.Generate(c.Context, person)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d chapters in %s\n", meta.Title, len(meta.Chapters), gen.ScriptsDir())
			return nil
		},
	}
}

func assignBGMCommand() *cli.Command {
	return &cli.Command{
		Name:  "assign-bgm",
		Usage: "assign background music to chapter batches round robin",
		Flags: pathFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyPathFlags(c, &cfg.Paths)

			assigned, err := master.AssignBGM(cfg.Paths.ScriptsDir, cfg.Paths.BGMRoot)
			if err != nil {
				return err
			}
			for _, a := range assigned {
				fmt.Printf("%s -> %s\n", filepath.Base(a.BatchPath), a.BGMPath)
			}
			return nil
		},
	}
}

func singleChapterCommand() *cli.Command {
	return &cli.Command{
		Name:  "single-chapter",
		Usage: "cut one chapter out of a master for a quick test run",
		Flags: append(pathFlags(),
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Required: true, Usage: "master JSON"},
			&cli.IntFlag{Name: "index", Usage: "zero-based chapter index"},
			&cli.StringFlag{Name: "grade", Value: "warm", Usage: "visual grade for the batch"},
			&cli.Float64Flag{Name: "fade", Value: 0.5, Usage: "subtitle fade in and out seconds"},
		),
		Action: func(c *cli.Context) error {
			log := logger.FromContext(c.Context)
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			applyPathFlags(c, &cfg.Paths)

			m, _, err := master.Load(c.String("package"))
			if err != nil {
				return err
			}
			single, err := m.ExtractChapter(c.Int("index"))
			if err != nil {
				return err
			}

			slug := master.Slugify(single.PersonOrDefault())
			testMaster := filepath.Join(cfg.Paths.OutputsRoot, fmt.Sprintf("%s_chapter%d_test.json", slug, c.Int("index")))
			if err := master.Save(testMaster, single); err != nil {
				return err
			}

			_, written, err := single.WriteBatches(master.BatchOptions{
				ScriptsDir:   cfg.Paths.ScriptsDir,
				ImagesRoot:   cfg.Paths.ImagesRoot,
				VoiceRoot:    cfg.Paths.VoiceRoot,
				VoiceSpeaker: cfg.Timeline.VoiceSpeaker,
			})
			if err != nil {
				return err
			}
			if len(written) == 0 {
				return errors.New("the selected chapter has no id, nothing written")
			}
			if _, err := master.InjectVisualStyle(written[0], c.String("grade"), c.Float64("fade")); err != nil {
				return err
			}
			log.Info("single chapter prepared", logger.Data{"master": testMaster, "batch": written[0]})
			return nil
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "render a low resolution draft video of a project",
		ArgsUsage: "<project>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "video to write (default <project>_preview.mp4)"},
			&cli.StringFlag{Name: "base-dir", Usage: "directory relative media paths are resolved against"},
			&cli.IntFlag{Name: "workers", Usage: "parallel segment encoders (default preview.workers)"},
			&cli.BoolFlag{Name: "debug", Usage: "burn clip names and motion presets into the video"},
		},
		Action: func(c *cli.Context) error {
			projectPath := c.Args().First()
			if projectPath == "" {
				return errors.New("project path is required")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			system.InitResourceLimits(c.Context)

			p, err := timeline.ReadProject(projectPath)
			if err != nil {
				return err
			}

			codec := cfg.Preview.Encoder
			if codec == "" {
				codec = system.GetBestH264Encoder(c.Context)
			}
			workers := cfg.Preview.Workers
			if c.IsSet("workers") {
				workers = c.Int("workers")
			}
			workers = min(workers, runtime.NumCPU())
			fps := p.Meta.FPS
			if fps <= 0 {
				fps = cfg.Timeline.FPS
			}

			out := c.String("out")
			if out == "" {
				out = strings.TrimSuffix(projectPath, filepath.Ext(projectPath)) + "_preview.mp4"
			}
			r := &preview.Renderer{
				Encoder: &preview.FFmpegEncoder{Codec: codec, Quality: cfg.Preview.Quality, FPS: fps},
				Width:   cfg.Preview.Width,
				Height:  cfg.Preview.Height,
				FPS:     fps,
				Workers: workers,
				BaseDir: c.String("base-dir"),
				Debug:   c.Bool("debug"),
			}
			return r.Render(c.Context, p, out)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "copy a project into the editor and export it",
		ArgsUsage: "<project>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "exported video (default <output_dir>/exported/<person>_final.mp4)"},
			&cli.BoolFlag{Name: "copy-only", Usage: "skip the GUI export"},
		},
		Action: func(c *cli.Context) error {
			log := logger.FromContext(c.Context)
			projectPath := c.Args().First()
			if projectPath == "" {
				return errors.New("project path is required")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			person := export.PersonFromProjectPath(projectPath)
			if base := cfg.Export.CapCutProjectsDir; base != "" {
				dest, err := export.CopyToProjects(projectPath, person, base)
				if err != nil {
					return err
				}
				log.Info("copied to editor projects", logger.Data{"dest": dest})
			} else {
				log.Warn("capcut_projects_dir not set, copy skipped")
			}
			if c.Bool("copy-only") {
				return nil
			}

			out := c.String("out")
			if out == "" {
				out = filepath.Join(cfg.Paths.OutputDir, "exported", person+"_final.mp4")
			}
			return exporterFor(cfg.Export).Export(c.Context, projectPath, out)
		},
	}
}
