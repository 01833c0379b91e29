package client

import (
	"time"

	"github.com/tomz197/cubesketch/internal/draw"
	"github.com/tomz197/cubesketch/internal/game"
	"github.com/tomz197/cubesketch/internal/input"
)

// ClientState holds per-session state that is not part of the game flow:
// input, the duration field, screen bookkeeping and connection status.
type ClientState struct {
	Input         input.Input
	Duration      string            // Countdown seconds as typed by the player
	Shutdown      bool              // Server is shutting down
	termSizeFunc  draw.TermSizeFunc // Function to get terminal size
	Running       bool              // Client loop running
	delta         time.Duration     // Frame delta time
	shutdownTimer float64           // Countdown before auto-disconnect on shutdown
	isInactive    bool              // Whether the client is in inactive warning state

	// Last drawn screen, to redraw only on change
	prevPhase   game.Phase
	wasInactive bool
	wasShutdown bool
	frameKey    frameKey
	hud         string
}

// frameKey identifies what the canvas currently shows.
type frameKey struct {
	phase           game.Phase
	surfaceVersion  uint64
	rendererVersion uint64
	width, height   int
}

// NewClientState creates a new initialized client state.
func NewClientState(duration string) *ClientState {
	return &ClientState{
		Duration: duration,
		Running:  true,
	}
}
