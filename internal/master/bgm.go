package master

import (
	"path/filepath"

	"github.com/ivlev/doctimeline/internal/chapter"
	"github.com/ivlev/doctimeline/internal/media"
	"github.com/pkg/errors"
)

// ErrNoBGM is returned when the music folder has nothing to assign.
var ErrNoBGM = errors.New("no background music files found")

var assignableBGM = []string{".mp3", ".wav", ".m4a"}

// Assignment records the track given to one batch file.
type Assignment struct {
	BatchPath string
	BGMPath   string
}

// AssignBGM walks the batches of scriptsDir in order and writes a music file
// from bgmRoot into each output_paths.bgm_path, cycling through the folder.
func AssignBGM(scriptsDir, bgmRoot string) ([]Assignment, error) {
	tracks, err := media.ScanDir(bgmRoot, assignableBGM)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, errors.Wrap(ErrNoBGM, bgmRoot)
	}

	files, err := chapter.Files(scriptsDir)
	if err != nil {
		return nil, err
	}

	out := make([]Assignment, 0, len(files))
	for i, f := range files {
		b, err := chapter.Read(f)
		if err != nil {
			return nil, err
		}
		track := filepath.ToSlash(tracks[i%len(tracks)])
		b.OutputPaths.BGMPath = track
		if err := chapter.Write(f, b); err != nil {
			return nil, err
		}
		out = append(out, Assignment{BatchPath: f, BGMPath: track})
	}
	return out, nil
}
