package system

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/doctimeline/internal/media"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// ErrNotFound is returned when a lookup finds no matching file.
var ErrNotFound = errors.New("no matching file found")

// InitResourceLimits raises the open file limit for runs that keep many
// ffmpeg pipes open at once.
func InitResourceLimits(ctx context.Context) {
	log := logger.FromContext(ctx)

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Err(err).Warn("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Err(err).Warn("could not raise open file limit")
		return
	}
	log.Info("open file limit raised", logger.Data{"limit": rLimit.Cur})
}

// FindLatest returns the most recently modified file under dir whose
// extension is one of exts. Subdirectories are searched as well.
func FindLatest(dir string, exts []string) (string, error) {
	var latestFile string
	var latestTime time.Time

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !media.HasExtension(d.Name(), exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = path
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "search %s", dir)
	}

	if latestFile == "" {
		return "", errors.Wrapf(ErrNotFound, "%s (%s)", dir, strings.Join(exts, ", "))
	}
	return latestFile, nil
}

// GetAudioDuration asks ffprobe for the container duration of path in seconds.
func GetAudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, errors.Wrapf(err, "ffprobe %s: %s", path, strings.TrimSpace(string(out)))
	}
	return ParseDuration(string(out))
}

// ParseDuration reads the bare number printed by ffprobe.
func ParseDuration(out string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse duration %q", strings.TrimSpace(out))
	}
	return d, nil
}

// GetBestH264Encoder picks a hardware encoder when ffmpeg offers one and falls
// back to libx264.
func GetBestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// CheckFilterSupport reports whether the local ffmpeg build has the named
// filter.
func CheckFilterSupport(ctx context.Context, name string) bool {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-filters").CombinedOutput()
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
