// Package export hands a finished timeline project to the video editor.
package export

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// ProjectSuffix separates the person from the rest of a project file name.
const ProjectSuffix = "_capcut"

// ErrNoProjectsDir is returned when the editor's projects folder is unknown.
var ErrNoProjectsDir = errors.New("editor projects directory is not configured")

// PersonFromProjectPath recovers the person part of <person>_capcut.ccproj.
func PersonFromProjectPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.Index(stem, ProjectSuffix); i >= 0 {
		return stem[:i]
	}
	return stem
}

// CopyToProjects copies the project into <baseDir>/<Person>/<Person>.ccproj,
// with spaces in the person replaced by underscores, and returns the
// destination.
func CopyToProjects(projectPath, person, baseDir string) (string, error) {
	if baseDir == "" {
		return "", ErrNoProjectsDir
	}
	name := strings.ReplaceAll(person, " ", "_")
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.WithStack(err)
	}
	dest := filepath.Join(dir, name+filepath.Ext(projectPath))

	src, err := os.Open(projectPath)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", errors.WithStack(err)
	}
	return dest, errors.WithStack(dst.Close())
}

// GUIExporter drives the editor's export through an external automation
// script invoked as `<Command> <Script> --project <p> --out <mp4>`.
type GUIExporter struct {
	Command string
	Script  string
}

func (g *GUIExporter) Args(projectPath, outPath string) []string {
	return []string{g.Script, "--project", projectPath, "--out", outPath}
}

// Export runs the automation script and waits for it to finish.
func (g *GUIExporter) Export(ctx context.Context, projectPath, outPath string) error {
	log := logger.FromContext(ctx)

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return errors.WithStack(err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.Command, g.Args(projectPath, outPath)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr

	log.Info("starting editor export", logger.Data{"project": projectPath, "out": outPath})
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "export script: %s", strings.TrimSpace(stderr.String()))
	}
	log.Info("editor export finished", logger.Data{"out": outPath})
	return nil
}
