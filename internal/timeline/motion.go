package timeline

import "strings"

const (
	PresetZoomOut  = "kenburns-zoom-out"
	PresetPanRight = "kenburns-pan-right"
	PresetZoomIn   = "kenburns-zoom-in"
	PresetPanLeft  = "kenburns-pan-left"

	slowSuffix = "-slow"
)

// MotionPreset picks the Ken Burns preset for an image slot of a chapter with
// the given emotion level. Calmer chapters pull out, intense ones push in, and
// zooms on even slots run at the slow variant.
func MotionPreset(level, slot int) string {
	var preset string
	switch {
	case level <= 2:
		preset = PresetZoomOut
	case level <= 4:
		preset = PresetPanRight
	case level <= 6:
		preset = PresetZoomIn
	case level <= 8:
		preset = PresetPanLeft
	default:
		preset = PresetZoomIn
	}
	if slot%2 == 0 && strings.Contains(preset, "zoom") {
		preset += slowSuffix
	}
	return preset
}
