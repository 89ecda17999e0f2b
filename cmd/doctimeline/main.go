package main

import (
	"context"
	"os"

	"github.com/ivlev/doctimeline/internal/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()
	ctx := log.WithContext(context.Background())

	app := &cli.App{
		Name:  "doctimeline",
		Usage: "build documentary timelines from chapter scripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"DOCTIMELINE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			buildCommand(),
			subtitlesCommand(),
			makeAllCommand(),
			packageCommand(),
			imagesCommand(),
			scriptsCommand(),
			assignBGMCommand(),
			singleChapterCommand(),
			previewCommand(),
			exportCommand(),
		},
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Err(err).Fatal("doctimeline failed")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

// override replaces *dst with the named flag when it was given.
func override(c *cli.Context, dst *string, flag string) {
	if c.IsSet(flag) {
		*dst = c.String(flag)
	}
}

func pathFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "scripts", Usage: "chapter batch directory"},
		&cli.StringFlag{Name: "images", Usage: "image root, one folder per chapter id"},
		&cli.StringFlag{Name: "voice", Usage: "voice root holding <id>.wav"},
		&cli.StringFlag{Name: "bgm", Usage: "background music directory"},
		&cli.StringFlag{Name: "outputs", Usage: "generated outputs root"},
		&cli.StringFlag{Name: "out", Usage: "project output directory"},
	}
}

func applyPathFlags(c *cli.Context, p *config.PathsConfig) {
	override(c, &p.ScriptsDir, "scripts")
	override(c, &p.ImagesRoot, "images")
	override(c, &p.VoiceRoot, "voice")
	override(c, &p.BGMRoot, "bgm")
	override(c, &p.OutputsRoot, "outputs")
	override(c, &p.OutputDir, "out")
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(data), nil
}
