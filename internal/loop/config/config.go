// Package config centralizes all tunable game parameters.
package config

import "time"

// Resolution scaling. Drawing coordinates arrive in logical units (one unit per
// terminal sub-pixel) and are multiplied by the scale factor before they reach
// the raster buffer.
const (
	MaxScale                = 2.0 // Upper bound for any density-derived scale factor
	DefaultDensity          = 2.0 // Surface density when SKETCH_DENSITY is unset
	DefaultReferenceDensity = 1.0 // Renderer density when SKETCH_REFERENCE_DENSITY is unset
)

// Drawing
const (
	UndoCapacity    = 30  // Snapshots kept by the undo history
	StrokeWidth     = 3.0 // Logical units
	TermStrokeWidth = 1.5 // Thinner pen for terminal-sized surfaces
)

// Rounds
const (
	DefaultDuration     = "5" // Seconds, as typed into the duration field
	MaxDurationDigits   = 4
	RevealDecodeTimeout = 5 * time.Second // Upper bound on decoding both reveal layers
)

// Render area. Larger terminals get a centered, bordered canvas.
const (
	MaxTermWidth  = 160
	MaxTermHeight = 60
	HUDRows       = 1 // Text rows reserved below the canvas for the HUD
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Session hub
const (
	ServerTickRate = 10 // Snapshots per second
	ServerTickTime = time.Second / ServerTickRate
)

// Client rendering
const (
	ClientTargetFPS       = 30
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)
