package surface

import (
	"math"

	"github.com/tomz197/cubesketch/internal/loop/config"
)

// ClampScale derives the resolution scale factor from a display density.
// Non-positive and non-finite densities fall back to 1; the result never
// exceeds config.MaxScale.
func ClampScale(density float64) float64 {
	if math.IsNaN(density) || math.IsInf(density, 0) || density <= 0 {
		return 1
	}
	return math.Min(density, config.MaxScale)
}

// PhysicalSize returns the raster buffer size for a logical size at scale:
// floor(logical × scale) in each dimension, never below one pixel.
func PhysicalSize(logicalW, logicalH int, scale float64) (width, height int) {
	width = int(math.Floor(float64(logicalW) * scale))
	height = int(math.Floor(float64(logicalH) * scale))
	return max(1, width), max(1, height)
}
