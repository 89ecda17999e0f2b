package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileBGMEmptyPool(t *testing.T) {
	assert.Empty(t, TileBGM(nil, 500, DefaultSettings()))
	assert.Empty(t, TileBGM([]string{"a.mp3"}, 0, DefaultSettings()))
}

func TestTileBGMSingleTile(t *testing.T) {
	clips := TileBGM([]string{`bgm\a.mp3`}, 100, DefaultSettings())
	require.Len(t, clips, 1)
	assert.Equal(t, AudioClip{Path: "bgm/a.mp3", Start: 0, Duration: 100, FadeIn: 0.5, FadeOut: 1.5}, clips[0])
}

func TestTileBGMCrossfades(t *testing.T) {
	clips := TileBGM([]string{"a.mp3", "b.mp3"}, 400, DefaultSettings())
	require.Len(t, clips, 3)

	assert.Equal(t, AudioClip{Path: "a.mp3", Start: 0, Duration: 190, FadeIn: 0.5, FadeOut: 1.5}, clips[0])
	assert.Equal(t, AudioClip{Path: "b.mp3", Start: 188.5, Duration: 191.5, FadeIn: 1.5, FadeOut: 1.5}, clips[1])
	assert.Equal(t, AudioClip{Path: "a.mp3", Start: 378.5, Duration: 21.5, FadeIn: 1.5, FadeOut: 1.5}, clips[2])
}

func TestTileBGMCoversTimeline(t *testing.T) {
	totals := []float64{1, 189.999, 190, 380, 380.001, 1234.567, 5000}
	for _, total := range totals {
		clips := TileBGM([]string{"a.mp3", "b.wav", "c.flac"}, total, DefaultSettings())
		require.NotEmpty(t, clips)

		last := clips[len(clips)-1]
		assert.GreaterOrEqual(t, last.Start+last.Duration+1e-9, total, "total=%v", total)
		assert.Equal(t, 0.0, clips[0].Start)

		for i := 1; i < len(clips); i++ {
			prevEnd := clips[i-1].Start + clips[i-1].Duration
			assert.InDelta(t, 1.5, prevEnd-clips[i].Start, 1e-6, "overlap between tile %d and %d", i-1, i)
			assert.Greater(t, clips[i].Duration, 1.5, "no zero-length tail tile")
		}
	}
}

func TestTileBGMExactMultipleHasNoTail(t *testing.T) {
	clips := TileBGM([]string{"a.mp3"}, 380, DefaultSettings())
	assert.Len(t, clips, 2)
}

func TestTileBGMRoundRobin(t *testing.T) {
	s := DefaultSettings()
	s.BGMMaxClipSec = 10
	clips := TileBGM([]string{"a", "b", "c"}, 70, s)
	require.Len(t, clips, 7)

	var paths []string
	for _, c := range clips {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, paths)
}
