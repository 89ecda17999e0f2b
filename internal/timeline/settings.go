package timeline

import (
	"strings"

	"github.com/ivlev/doctimeline/internal/config"
)

// Settings are the cosmetic timing knobs of the layout. None of them change
// the structural guarantees of Build.
type Settings struct {
	Name              string
	FPS               int
	Resolution        string
	ImageFit          string
	ImageXfadeSec     float64
	AudioFadeSec      float64
	BGMFirstFadeInSec float64
	DuckingGainDB     float64
	PaddingLeadSec    float64
	BGMMaxClipSec     float64
}

func DefaultSettings() Settings {
	return Settings{
		Name:              "Documentary Auto Timeline",
		FPS:               30,
		Resolution:        "1920x1080",
		ImageFit:          "cover",
		ImageXfadeSec:     0.5,
		AudioFadeSec:      1.5,
		BGMFirstFadeInSec: 0.5,
		DuckingGainDB:     -12,
		PaddingLeadSec:    0,
		BGMMaxClipSec:     190,
	}
}

// SettingsFromConfig derives layout settings; person, when set, prefixes the
// project name.
func SettingsFromConfig(c config.TimelineConfig, person string) Settings {
	return Settings{
		Name:              strings.TrimSpace(person + " " + c.ProjectName),
		FPS:               c.FPS,
		Resolution:        c.Resolution,
		ImageFit:          c.ImageFit,
		ImageXfadeSec:     c.ImageXfadeSec,
		AudioFadeSec:      c.AudioFadeSec,
		BGMFirstFadeInSec: c.BGMFirstFadeInSec,
		DuckingGainDB:     c.DuckingGainDB,
		PaddingLeadSec:    c.PaddingLeadSec,
		BGMMaxClipSec:     c.BGMMaxClipSec,
	}
}
