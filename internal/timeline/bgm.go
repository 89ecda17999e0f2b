package timeline

// TileBGM covers [0, total) with background music tiles taken round-robin
// from files. Every tile after the first starts AudioFadeSec early and is
// lengthened by the same amount so consecutive tiles cross-fade. An empty
// pool yields an empty track.
func TileBGM(files []string, total float64, s Settings) []AudioClip {
	clips := []AudioClip{}
	if len(files) == 0 || s.BGMMaxClipSec <= 0 {
		return clips
	}

	xfade := s.AudioFadeSec
	tpos := 0.0
	for idx := 0; tpos < total; idx++ {
		remaining := total - tpos
		clipLen := min(s.BGMMaxClipSec, remaining)

		start, dur, fadeIn := tpos, clipLen, s.BGMFirstFadeInSec
		if idx > 0 {
			start = max(0, tpos-xfade)
			dur = clipLen + xfade
			fadeIn = xfade
		}

		clips = append(clips, AudioClip{
			Path:     slashPath(files[idx%len(files)]),
			Start:    Round3(start),
			Duration: Round3(dur),
			FadeIn:   fadeIn,
			FadeOut:  xfade,
		})

		if clipLen >= remaining {
			break
		}
		tpos += clipLen
	}
	return clips
}
