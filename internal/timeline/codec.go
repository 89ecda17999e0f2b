package timeline

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/doctimeline/internal/jsonfile"
	"github.com/pkg/errors"
)

// ShotListHeader is the first row of every shot list.
var ShotListHeader = []string{"chapter_index", "chapter_id", "image_path", "start_sec", "duration_sec"}

// WriteProject writes the project JSON to path.
func WriteProject(path string, p *Project) error {
	return jsonfile.Write(path, p)
}

// ReadProject loads a project JSON written by WriteProject or by hand.
func ReadProject(path string) (*Project, error) {
	var p Project
	if err := jsonfile.Read(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// EncodeShotList writes rows as CSV with the standard header.
func EncodeShotList(w io.Writer, rows []ShotRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ShotListHeader); err != nil {
		return errors.WithStack(err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.ChapterIndex),
			r.ChapterID,
			r.ImagePath,
			formatSeconds(r.StartSec),
			formatSeconds(r.DurationSec),
		}
		if err := cw.Write(rec); err != nil {
			return errors.WithStack(err)
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}

// WriteShotList writes the shot list CSV to path.
func WriteShotList(path string, rows []ShotRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithStack(err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if err := EncodeShotList(f, rows); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.WithStack(f.Close())
}

// formatSeconds prints the shortest representation, always with a decimal
// point ("12.0", "33.333").
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
