// Package pipeline runs the whole make-all flow for one master package.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/ivlev/doctimeline/internal/config"
	"github.com/ivlev/doctimeline/internal/export"
	"github.com/ivlev/doctimeline/internal/jsonfile"
	"github.com/ivlev/doctimeline/internal/master"
	"github.com/ivlev/doctimeline/internal/media"
	"github.com/ivlev/doctimeline/internal/subtitle"
	"github.com/ivlev/doctimeline/internal/timeline"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	StepMaster    = "save_master"
	StepBatches   = "create_batches"
	StepTimeline  = "build_timeline"
	StepSubtitles = "subtitles"
	StepVoice     = "probe_voice"
	StepCopy      = "copy_to_projects"
	StepExport    = "export"
)

// VoiceDriftTolerance is the largest voice/chapter length difference, in
// seconds, accepted without a warning.
const VoiceDriftTolerance = 0.5

// Exporter renders a finished project to a video file.
type Exporter interface {
	Export(ctx context.Context, projectPath, outPath string) error
}

// DurationProber measures a media file in seconds.
type DurationProber func(ctx context.Context, path string) (float64, error)

type Options struct {
	PackagePath string
	Export      bool
	ProbeVoice  bool
}

type Runner struct {
	Config   *config.Config
	Media    media.Resolver
	Exporter Exporter
	Probe    DurationProber
	Now      func() time.Time
}

func NewRunner(cfg *config.Config, r media.Resolver, ex Exporter, probe DurationProber) *Runner {
	return &Runner{Config: cfg, Media: r, Exporter: ex, Probe: probe, Now: time.Now}
}

// Run executes every step for the package and writes <out>/<slug>_run.json.
// Copying into the editor folder and exporting never fail the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunState, error) {
	log := logger.FromContext(ctx)
	paths := r.Config.Paths
	state := newRunState(opts.PackagePath, r.Now())

	m, raw, err := master.Load(opts.PackagePath)
	if err != nil {
		return nil, err
	}
	state.Person = m.PersonOrDefault()
	state.Slug = master.Slugify(state.Person)
	log = log.Data(logger.Data{"run_id": state.ID, "slug": state.Slug})
	ctx = log.WithContext(ctx)

	statePath := filepath.Join(paths.OutputDir, state.Slug+"_run.json")
	finish := func(runErr error) (*RunState, error) {
		state.FinishedAt = r.Now()
		if err := WriteRunState(statePath, state); err != nil {
			log.Err(err).Warn("could not write run state")
		}
		if runErr != nil {
			return state, runErr
		}
		log.Info("run finished", logger.Data{"state": statePath})
		return state, nil
	}

	masterOut := filepath.Join(paths.OutputsRoot, state.Slug+"_master.json")
	if err := r.step(state, StepMaster, func(res *StepResult) error {
		res.Outputs = []string{masterOut}
		return jsonfile.Write(masterOut, raw)
	}); err != nil {
		return finish(err)
	}

	var batches []*chapter.Batch
	if err := r.step(state, StepBatches, func(res *StepResult) error {
		_, written, err := m.WriteBatches(master.BatchOptions{
			ScriptsDir:   paths.ScriptsDir,
			ImagesRoot:   paths.ImagesRoot,
			VoiceRoot:    paths.VoiceRoot,
			VoiceSpeaker: r.Config.Timeline.VoiceSpeaker,
		})
		if err != nil {
			return err
		}
		res.Outputs = written
		batches, err = chapter.LoadDir(paths.ScriptsDir)
		if err != nil {
			return errors.Wrap(err, "reload batches")
		}
		res.Detail = fmt.Sprintf("%d batches", len(batches))
		if extra := len(batches) - len(written); extra > 0 {
			log.Warn("scripts directory holds batches from an earlier package", logger.Data{
				"dir":     paths.ScriptsDir,
				"written": len(written),
				"loaded":  len(batches),
			})
			res.Detail += fmt.Sprintf(", %d stale", extra)
		}
		return nil
	}); err != nil {
		return finish(err)
	}

	projectPath := filepath.Join(paths.OutputDir, state.Slug+"_capcut.ccproj")
	shotPath := filepath.Join(paths.OutputDir, state.Slug+"_shotlist.csv")
	var built *timeline.Result
	if err := r.step(state, StepTimeline, func(res *StepResult) error {
		settings := timeline.SettingsFromConfig(r.Config.Timeline, state.Person)
		var err error
		built, err = timeline.NewBuilder(settings, r.Media).Build(batches)
		if err != nil {
			return err
		}
		res.Detail = fmt.Sprintf("%d shots, %.3fs", len(built.Shots), built.End)
		return nil
	}); err != nil {
		return finish(err)
	}
	r.warnMissing(ctx, built.Shots)

	if err := r.step(state, StepSubtitles, func(res *StepResult) error {
		gen := subtitle.NewGenerator(r.Config.Timeline.SubtitleMaxChars, r.Config.Timeline.PaddingLeadSec)
		out, err := gen.Generate(batches, filepath.Join(paths.OutputsRoot, "subtitles"))
		if err != nil {
			return err
		}
		built.Project.MergeSubtitles(out.Clips)
		if err := timeline.WriteProject(projectPath, built.Project); err != nil {
			return err
		}
		if err := timeline.WriteShotList(shotPath, built.Shots); err != nil {
			return err
		}
		res.Outputs = append(out.Files, projectPath, shotPath)
		res.Detail = fmt.Sprintf("%d subtitle clips", len(out.Clips))
		return nil
	}); err != nil {
		return finish(err)
	}
	state.ProjectPath = projectPath
	state.ShotListPath = shotPath
	state.TimelineEnd = built.End

	if opts.ProbeVoice && r.Probe != nil {
		r.step(state, StepVoice, func(res *StepResult) error {
			drifted := r.probeVoices(ctx, batches)
			res.Detail = fmt.Sprintf("%d voice files off by more than %.1fs", drifted, VoiceDriftTolerance)
			return nil
		})
	} else {
		r.skip(state, StepVoice, "not requested")
	}

	if base := r.Config.Export.CapCutProjectsDir; base != "" {
		r.step(state, StepCopy, func(res *StepResult) error {
			dest, err := export.CopyToProjects(projectPath, export.PersonFromProjectPath(projectPath), base)
			if err != nil {
				log.Err(err).Warn("copy to editor projects failed")
				return err
			}
			res.Outputs = []string{dest}
			return nil
		})
	} else {
		r.skip(state, StepCopy, "no projects directory configured")
	}

	if opts.Export && r.Exporter != nil {
		exported := filepath.Join(paths.OutputDir, "exported", state.Slug+"_final.mp4")
		r.step(state, StepExport, func(res *StepResult) error {
			if err := os.MkdirAll(filepath.Dir(exported), 0755); err != nil {
				return errors.WithStack(err)
			}
			if err := r.Exporter.Export(ctx, projectPath, exported); err != nil {
				log.Err(err).Warn("editor export failed")
				return err
			}
			res.Outputs = []string{exported}
			return nil
		})
	} else {
		r.skip(state, StepExport, "not requested")
	}

	return finish(nil)
}

func (r *Runner) step(state *RunState, name string, fn func(*StepResult) error) error {
	start := r.Now()
	res := StepResult{Name: name, Status: StatusOK}
	err := fn(&res)
	res.DurationMS = r.Now().Sub(start).Milliseconds()
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
	}
	state.Steps = append(state.Steps, res)
	return err
}

func (r *Runner) skip(state *RunState, name, why string) {
	state.Steps = append(state.Steps, StepResult{Name: name, Status: StatusSkipped, Detail: why})
}

func (r *Runner) warnMissing(ctx context.Context, shots []timeline.ShotRow) {
	log := logger.FromContext(ctx)
	reported := map[string]bool{}
	for _, s := range shots {
		if timeline.IsPlaceholder(s.ImagePath) && !reported[s.ChapterID] {
			reported[s.ChapterID] = true
			log.Warn("no images for chapter, placeholders used", logger.Data{"chapter": s.ChapterID})
		}
	}
}

// probeVoices compares each voice file with its chapter length and returns how
// many differ by more than VoiceDriftTolerance. The timeline is never changed.
func (r *Runner) probeVoices(ctx context.Context, batches []*chapter.Batch) int {
	log := logger.FromContext(ctx)
	drifted := 0
	for _, b := range batches {
		if b.DurationSec <= 0 {
			continue
		}
		path, ok := r.Media.Voice(b.ID)
		if !ok {
			continue
		}
		d, err := r.Probe(ctx, path)
		if err != nil {
			log.Err(err).Warn("voice probe failed", logger.Data{"chapter": b.ID})
			continue
		}
		if math.Abs(d-b.DurationSec) > VoiceDriftTolerance {
			drifted++
			log.Warn("voice length differs from chapter", logger.Data{
				"chapter":      b.ID,
				"voice_sec":    d,
				"duration_sec": b.DurationSec,
			})
		}
	}
	return drifted
}
