package config

import loopconfig "github.com/tomz197/cubesketch/internal/loop/config"

// Game holds the per-session game settings read from the environment.
type Game struct {
	Duration         string  // SKETCH_DURATION, initial countdown field
	Density          float64 // SKETCH_DENSITY, drawing surface density
	ReferenceDensity float64 // SKETCH_REFERENCE_DENSITY, cube renderer density
}

// LoadGame reads the game settings.
func LoadGame() Game {
	return Game{
		Duration:         GetEnv("SKETCH_DURATION", loopconfig.DefaultDuration),
		Density:          GetEnvFloat("SKETCH_DENSITY", loopconfig.DefaultDensity),
		ReferenceDensity: GetEnvFloat("SKETCH_REFERENCE_DENSITY", loopconfig.DefaultReferenceDensity),
	}
}
