package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMotionPreset(t *testing.T) {
	tests := []struct {
		level, slot int
		want        string
	}{
		{1, 0, "kenburns-zoom-out-slow"},
		{1, 1, "kenburns-zoom-out"},
		{2, 2, "kenburns-zoom-out-slow"},
		{3, 0, "kenburns-pan-right"},
		{4, 1, "kenburns-pan-right"},
		{5, 0, "kenburns-zoom-in-slow"},
		{6, 1, "kenburns-zoom-in"},
		{7, 0, "kenburns-pan-left"},
		{8, 2, "kenburns-pan-left"},
		{9, 1, "kenburns-zoom-in"},
		{10, 0, "kenburns-zoom-in-slow"},
		{10, 1, "kenburns-zoom-in"},
		{0, 1, "kenburns-zoom-out"},
		{-4, 0, "kenburns-zoom-out-slow"},
		{42, 3, "kenburns-zoom-in"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MotionPreset(tt.level, tt.slot), "level=%d slot=%d", tt.level, tt.slot)
	}
}

func TestMotionPresetIsTotal(t *testing.T) {
	for level := -2; level <= 12; level++ {
		for slot := 0; slot < 6; slot++ {
			got := MotionPreset(level, slot)
			assert.True(t, strings.HasPrefix(got, "kenburns-"))
			assert.Equal(t, got, MotionPreset(level, slot))
			if strings.HasSuffix(got, "-slow") {
				assert.Equal(t, 0, slot%2)
				assert.Contains(t, got, "zoom")
			}
		}
	}
}
