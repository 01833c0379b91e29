package client

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/cubesketch/internal/draw"
	"github.com/tomz197/cubesketch/internal/game"
	"github.com/tomz197/cubesketch/internal/input"
	"github.com/tomz197/cubesketch/internal/loop/config"
	"github.com/tomz197/cubesketch/internal/loop/server"
	"github.com/tomz197/cubesketch/internal/scene"
	"github.com/tomz197/cubesketch/internal/surface"
)

// Client handles rendering and input for a single connection. Everything it
// owns is only touched from the goroutine running Run.
type Client struct {
	hub          server.Hub
	handle       *server.ClientHandle
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	styles       draw.Styles
	reader       *bufio.Reader
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	logger       *log.Logger

	surface          *surface.Surface
	renderer         *scene.Renderer
	flow             *game.Flow
	density          float64
	referenceDensity float64
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc     draw.TermSizeFunc
	Username         string
	Logger           *log.Logger
	Density          float64    // Drawing surface density; 0 means config.DefaultDensity
	ReferenceDensity float64    // Cube renderer density; 0 means config.DefaultReferenceDensity
	Duration         string     // Initial countdown field; empty means config.DefaultDuration
	Clock            game.Clock // Countdown clock; nil means the wall clock
	Rand             *rand.Rand // Pose randomness; nil means randomly seeded
}

// NewClient creates a new client registered with the given hub. It fails when
// the terminal size cannot be read.
func NewClient(hub server.Hub, r *bufio.Reader, w io.Writer, opts ClientOptions) (*Client, error) {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	density := opts.Density
	if density == 0 {
		density = config.DefaultDensity
	}
	referenceDensity := opts.ReferenceDensity
	if referenceDensity == 0 {
		referenceDensity = config.DefaultReferenceDensity
	}
	duration := opts.Duration
	if duration == "" {
		duration = config.DefaultDuration
	}

	termWidth, termHeight, err := draw.TerminalSizeRawWith(termSizeFunc)
	if err != nil {
		return nil, fmt.Errorf("client: read terminal size: %w", err)
	}

	state := NewClientState(duration)
	state.termSizeFunc = termSizeFunc

	// Canvas with clamped dimensions for max render resolution
	renderWidth, renderHeight, offsetCol, offsetRow := layout(termWidth, termHeight)
	canvas := draw.NewCanvas(renderWidth, renderHeight)
	canvas.SetOffset(offsetCol, offsetRow)
	chunkWriter := draw.NewChunkWriter(w, offsetCol, offsetRow)

	sf := surface.New(surface.WithLineWidth(config.TermStrokeWidth))
	var rendererOpts []scene.Option
	if opts.Rand != nil {
		rendererOpts = append(rendererOpts, scene.WithRand(opts.Rand))
	}
	renderer := scene.NewRenderer(rendererOpts...)

	pixelW, pixelH := canvas.PixelSize()
	sf.Configure(pixelW, pixelH, density)
	renderer.Configure(pixelW, pixelH, referenceDensity)

	c := &Client{
		hub:              hub,
		handle:           hub.RegisterClient(opts.Username),
		state:            state,
		canvas:           canvas,
		chunkWriter:      chunkWriter,
		styles:           draw.NewStyles(w),
		reader:           r,
		writer:           w,
		lastInput:        time.Now(),
		inputStream:      input.StartStream(r),
		username:         opts.Username,
		termSizeFunc:     termSizeFunc,
		logger:           logger.With("user", opts.Username),
		surface:          sf,
		renderer:         renderer,
		density:          density,
		referenceDensity: referenceDensity,
	}
	c.flow = game.NewFlow(game.FlowOptions{
		Renderer: renderer,
		Surface:  sf,
		Duration: game.DurationFunc(func() string { return c.state.Duration }),
		Clock:    opts.Clock,
		Logger:   c.logger,
	})
	return c, nil
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	input.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer input.DisableMouse(c.writer)
	draw.ClearScreen(c.writer)

	defer c.flow.Close()

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		// Process input
		c.processInput()

		// Check for server events
		c.processServerEvents()

		// Handle screen resize
		c.updateScreen()

		// Timer and reveal continuations
		c.flow.Poll()

		if c.state.Shutdown {
			c.updateShutdownState()
		}

		// Draw frame
		if err := c.drawFrame(); err != nil {
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	// Unregister from server
	c.hub.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads input and applies it to the game.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)
	c.applyInput(c.state.Input)
}

func (c *Client) applyInput(in input.Input) {

	if len(in.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.Quit {
		c.state.Running = false
		return
	}
	if c.state.Shutdown {
		return
	}

	c.handlePointer(in.Pointer)

	// Escape drops the stroke being drawn.
	if in.Escape && c.surface.Drawing() {
		c.surface.EndStroke()
		c.flow.Undo()
	}

	if in.Undo {
		c.flow.Undo()
	}

	phase := c.flow.State().Phase
	if phase != game.PhaseCountdown {
		c.editDuration(in)
	}

	switch {
	case in.Next:
		c.beginRound(c.flow.Next)
	case in.Retry:
		c.beginRound(c.flow.Retry)
	case in.Start && phase == game.PhaseIdle:
		c.beginRound(c.flow.Start)
	}
}

// beginRound runs a round-starting action and reports the round to the hub.
func (c *Client) beginRound(action func()) {
	c.surface.EndStroke()
	round := c.flow.State().Round
	action()
	if c.flow.State().Round != round {
		c.hub.RecordRound(c.handle.ID)
	}
}

// handlePointer turns pointer events into strokes. Drawing is only possible
// while the countdown runs.
func (c *Client) handlePointer(events []input.Pointer) {
	for _, ev := range events {
		if c.flow.State().Phase != game.PhaseCountdown {
			c.surface.EndStroke()
			continue
		}

		x, y, inside := c.canvas.TerminalToPixel(ev.Col, ev.Row)
		p := surface.Point{X: x, Y: y}

		switch ev.Kind {
		case input.PointerDown:
			if inside {
				c.surface.BeginStroke(p)
			}
		case input.PointerMove:
			if !inside {
				c.surface.EndStroke()
				continue
			}
			if err := c.surface.ExtendStroke(p); err != nil {
				c.logger.Warn("stroke failed", "err", err)
			}
		case input.PointerUp, input.PointerLeave:
			c.surface.EndStroke()
		}
	}
}

// editDuration applies digit and backspace keys to the duration field.
func (c *Client) editDuration(in input.Input) {
	if in.Backspace && len(c.state.Duration) > 0 {
		c.state.Duration = c.state.Duration[:len(c.state.Duration)-1]
	}
	for _, d := range in.Digits {
		if len(c.state.Duration) < config.MaxDurationDigits {
			c.state.Duration += string(d)
		}
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventServerShutdown:
				c.state.Shutdown = true
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area, and reconfigures the surface and the cube
// renderer for the new pixel size.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := draw.TerminalSizeRawWith(c.termSizeFunc)
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := layout(termWidth, termHeight)

	if renderWidth == c.canvas.TerminalWidth() && renderHeight == c.canvas.TerminalHeight() &&
		offsetCol == c.canvas.OffsetCol() && offsetRow == c.canvas.OffsetRow() {
		return
	}

	draw.ClearScreen(c.writer)
	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.canvas.ForceRedraw()
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
	c.state.hud = ""

	pixelW, pixelH := c.canvas.PixelSize()
	c.surface.EndStroke()
	c.surface.Configure(pixelW, pixelH, c.density)
	c.renderer.Configure(pixelW, pixelH, c.referenceDensity)
	c.logger.Debug("resized", "cols", renderWidth, "rows", renderHeight, "scale", c.surface.CurrentScale())
}

// layout reserves the HUD rows, then clamps the remaining terminal area to the
// max render resolution and computes the centering offset for it.
func layout(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	return clampTermSize(termWidth, max(1, termHeight-config.HUDRows))
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(max(1, termWidth), config.MaxTermWidth)
	renderHeight = min(max(1, termHeight), config.MaxTermHeight)
	offsetCol = max(0, (termWidth-renderWidth)/2)
	offsetRow = max(0, (termHeight-renderHeight)/2)
	return
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
