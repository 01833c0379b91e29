package client

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/tomz197/cubesketch/internal/draw"
	"github.com/tomz197/cubesketch/internal/game"
	"github.com/tomz197/cubesketch/internal/loop/config"
)

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	st := c.flow.State()

	// On phase or overlay transitions, do a full terminal clear so UI elements
	// from the previous screen don't persist.
	if st.Phase != c.state.prevPhase ||
		c.state.isInactive != c.state.wasInactive ||
		c.state.Shutdown != c.state.wasShutdown {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.frameKey = frameKey{}
		c.state.hud = ""
		c.state.prevPhase = st.Phase
		c.state.wasInactive = c.state.isInactive
		c.state.wasShutdown = c.state.Shutdown
	}

	width := c.canvas.TerminalWidth()
	height := c.canvas.TerminalHeight()

	if c.state.Shutdown {
		c.drawShutdownScreen(width/2, height/2)
		return c.chunkWriter.Flush()
	}
	if c.state.isInactive {
		c.drawInactivityScreen(width/2, height/2)
		return c.chunkWriter.Flush()
	}

	c.updateCanvas(st.Phase)

	// Render changed cells to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawHUD(st)

	if c.chunkWriter.Len() == 0 {
		return nil
	}
	return c.chunkWriter.Flush()
}

// updateCanvas copies the image for the current phase into the canvas when
// it changed: the cube while idle, the sketch or reveal on paper afterwards.
func (c *Client) updateCanvas(phase game.Phase) {
	width, height := c.canvas.PixelSize()
	key := frameKey{
		phase:  phase,
		width:  width,
		height: height,
	}
	if phase == game.PhaseIdle {
		key.rendererVersion = c.renderer.Version()
	} else {
		key.surfaceVersion = c.surface.Version()
	}
	if key == c.state.frameKey {
		return
	}
	c.state.frameKey = key

	if phase == game.PhaseIdle {
		c.canvas.Blit(c.renderer.Image(), draw.Paper)
		return
	}
	c.canvas.Blit(c.surface.Image(), draw.Paper)
}

// drawHUD writes the status line below the canvas when its text changed.
func (c *Client) drawHUD(st game.State) {
	hud := c.hudText(st)
	if hud == c.state.hud {
		return
	}
	c.state.hud = hud

	width := c.canvas.TerminalWidth()
	row := c.canvas.TerminalHeight() + 1
	if c.canvas.OffsetRow() >= 1 {
		row++ // Below the bottom border
	}
	c.chunkWriter.ClearLine(row, width)
	c.chunkWriter.WriteCentered(row, width, hud)
}

func (c *Client) hudText(st game.State) string {
	s := c.styles
	key := func(k, label string) string {
		return s.Key.Render(k) + " " + s.Muted.Render(label)
	}
	sep := s.Muted.Render("  ·  ")

	var parts []string
	switch st.Phase {
	case game.PhaseIdle:
		parts = []string{
			s.Title.Render("Memorize the cube"),
			s.Text.Render("seconds") + " " + s.Field.Render(c.state.Duration),
			key("space", "start"),
			key("q", "quit"),
		}
	case game.PhaseCountdown:
		secs := int(math.Ceil(c.flow.Remaining().Seconds()))
		parts = []string{
			s.Title.Render("Draw it!"),
			s.Countdown.Render(fmt.Sprintf("%ds", secs)),
			key("ctrl+z", "undo"),
			key("r", "retry"),
			key("t", "next"),
		}
	case game.PhaseRevealed:
		title := s.Title.Render("How close were you?")
		if st.Revealing {
			title = s.Muted.Render("Revealing...")
		} else if out, ok := c.flow.LastReveal(); ok && out.Err != nil {
			title = s.Warning.Render("Reveal failed")
		}
		parts = []string{
			title,
			s.Text.Render("seconds") + " " + s.Field.Render(c.state.Duration),
			key("r", "retry"),
			key("t", "next"),
			key("ctrl+z", "undo"),
			key("q", "quit"),
		}
	}

	if st.Phase != game.PhaseIdle && c.flow.DurationErr() != nil {
		parts = slices.Insert(parts, 1, s.Warning.Render("invalid seconds, no countdown"))
	}

	if snap := c.hub.GetSnapshot(); snap.Players > 1 {
		parts = append(parts, s.Muted.Render(fmt.Sprintf("%d sketching", snap.Players)))
	}
	return strings.Join(parts, sep)
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	cw := c.chunkWriter
	width := centerX * 2
	cw.WriteCentered(centerY-2, width, c.styles.Warning.Render("INACTIVITY WARNING"))

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	cw.WriteCentered(centerY, width, c.styles.Text.Render(msg))
	cw.WriteCentered(centerY+2, width, c.styles.Muted.Render("Press any key to continue"))
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	cw := c.chunkWriter
	width := centerX * 2
	cw.WriteCentered(centerY-3, width, c.styles.Warning.Render("SERVER SHUTTING DOWN"))
	cw.WriteCentered(centerY-1, width, c.styles.Text.Render("The server is restarting for maintenance."))
	cw.WriteCentered(centerY, width, c.styles.Text.Render("Please reconnect in a moment."))

	remaining := int(c.state.shutdownTimer) + 1
	countdown := fmt.Sprintf("Disconnecting in %d seconds...", remaining)
	cw.WriteCentered(centerY+2, width, c.styles.Text.Render(countdown))
	cw.WriteCentered(centerY+4, width, c.styles.Muted.Render("Press Q to disconnect now"))
}
