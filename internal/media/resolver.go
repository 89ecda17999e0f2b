package media

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/pkg/errors"
)

var (
	ImageExtensions = []string{".png", ".jpg", ".jpeg"}
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac"}
)

// Resolver maps chapters to the media files that exist for them. All lists
// come back in natural order.
type Resolver interface {
	Images(chapterID string) ([]string, error)
	Voice(chapterID string) (string, bool)
	BGM() ([]string, error)
}

// FSResolver reads the conventional media tree:
//
//	<ImagesRoot>/<chapter id>/*.{png,jpg,jpeg}
//	<VoiceRoot>/<chapter id>.wav
//	<BGMRoot>/*.{mp3,wav,m4a,flac}
type FSResolver struct {
	ImagesRoot string
	VoiceRoot  string
	BGMRoot    string
}

func NewFSResolver(imagesRoot, voiceRoot, bgmRoot string) *FSResolver {
	return &FSResolver{ImagesRoot: imagesRoot, VoiceRoot: voiceRoot, BGMRoot: bgmRoot}
}

func (r *FSResolver) Images(chapterID string) ([]string, error) {
	return ScanDir(filepath.Join(r.ImagesRoot, chapterID), ImageExtensions)
}

func (r *FSResolver) Voice(chapterID string) (string, bool) {
	p := filepath.Join(r.VoiceRoot, chapterID+".wav")
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return "", false
	}
	return p, true
}

func (r *FSResolver) BGM() ([]string, error) {
	return ScanDir(r.BGMRoot, AudioExtensions)
}

// ScanDir returns the files of dir whose extension, compared case-insensitively,
// is one of exts. A missing directory is an empty result.
func ScanDir(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if HasExtension(entry.Name(), exts) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Sort(natural.StringSlice(paths))
	return paths, nil
}

func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// StaticResolver serves fixed lists, mostly for tests and dry runs.
type StaticResolver struct {
	ImagesByChapter map[string][]string
	Voices          map[string]string
	BGMFiles        []string
}

func (r *StaticResolver) Images(chapterID string) ([]string, error) {
	return append([]string(nil), r.ImagesByChapter[chapterID]...), nil
}

func (r *StaticResolver) Voice(chapterID string) (string, bool) {
	p, ok := r.Voices[chapterID]
	return p, ok
}

func (r *StaticResolver) BGM() ([]string, error) {
	return append([]string(nil), r.BGMFiles...), nil
}
