package draw

import (
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// BlockUpperHalf is drawn in every cell: its foreground paints the upper
// pixel, the background the lower one.
const BlockUpperHalf = '▀'

// Paper is the default canvas background.
var Paper = color.RGBA{255, 255, 255, 255}

type cell struct {
	top, bottom color.RGBA
}

// Canvas is a truecolor drawing buffer with 2x vertical resolution using
// half-block characters. One terminal column is one pixel wide and one row
// holds two pixels, so its pixel size is termWidth × termHeight*2.
type Canvas struct {
	termWidth      int // Actual terminal columns
	termHeight     int // Actual terminal rows
	subPixelHeight int // termHeight * 2

	frame *image.RGBA // Current pixels, termWidth × subPixelHeight
	drawn []cell      // Cells as last written to the terminal
	valid bool        // drawn matches what is on screen

	scaler xdraw.Scaler

	// Offset for centering the render area when terminal is larger than max resolution.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	renderBuf strings.Builder // Buffer for batching render output
	numBuf    [20]byte
}

// NewCanvas creates a canvas for the given terminal dimensions, filled with Paper.
func NewCanvas(termWidth, termHeight int) *Canvas {
	c := &Canvas{scaler: xdraw.BiLinear}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions. The pixels are reset
// to Paper when the size changes.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(1, termWidth)
	termHeight = max(1, termHeight)
	if c.frame != nil && termWidth == c.termWidth && termHeight == c.termHeight {
		return
	}

	c.termWidth = termWidth
	c.termHeight = termHeight
	c.subPixelHeight = termHeight * 2
	c.frame = image.NewRGBA(image.Rect(0, 0, termWidth, c.subPixelHeight))
	c.drawn = make([]cell, termWidth*termHeight)
	c.valid = false
	c.Fill(Paper)
}

// SetOffset sets the column and row offset for centering the canvas.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.valid = false
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render write every cell.
func (c *Canvas) ForceRedraw() {
	c.valid = false
}

// Fill sets every pixel to col.
func (c *Canvas) Fill(col color.RGBA) {
	pix := c.frame.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = col.R, col.G, col.B, col.A
	}
}

// Blit fills the canvas with paper and stretches src over it. Transparent
// parts of src show the paper.
func (c *Canvas) Blit(src image.Image, paper color.RGBA) {
	c.Fill(paper)
	if src == nil {
		return
	}
	sb := src.Bounds()
	db := c.frame.Bounds()
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() {
		xdraw.Draw(c.frame, db, src, sb.Min, xdraw.Over)
		return
	}
	c.scaler.Scale(c.frame, db, src, sb, xdraw.Over, nil)
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// Render writes the cells that changed since the previous Render, or all of
// them after a resize or ForceRedraw.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()

	var fg, bg color.RGBA
	styled := false
	lastRow, lastCol := -1, -1

	for row := 0; row < c.termHeight; row++ {
		for col := 0; col < c.termWidth; col++ {
			next := cell{
				top:    c.frame.RGBAAt(col, row*2),
				bottom: c.frame.RGBAAt(col, row*2+1),
			}
			idx := row*c.termWidth + col
			if c.valid && c.drawn[idx] == next {
				continue
			}
			c.drawn[idx] = next

			// Consecutive cells on a row continue from the cursor.
			if row != lastRow || col != lastCol+1 {
				c.moveCursor(row+1+c.offsetRow, col+1+c.offsetCol)
			}
			lastRow, lastCol = row, col

			if !styled || next.top != fg {
				c.color("38", next.top)
				fg = next.top
			}
			if !styled || next.bottom != bg {
				c.color("48", next.bottom)
				bg = next.bottom
			}
			styled = true
			c.renderBuf.WriteRune(BlockUpperHalf)
		}
	}
	if styled {
		c.renderBuf.WriteString("\033[0m")
	}
	c.valid = true

	// Write output in chunks for optimal network flow
	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		io.WriteString(w, chunk)
		data = data[len(chunk):]
	}
}

func (c *Canvas) moveCursor(row, col int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

// color appends a 24-bit SGR color; layer is "38" for foreground, "48" for background.
func (c *Canvas) color(layer string, col color.RGBA) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.WriteString(layer)
	c.renderBuf.WriteString(";2;")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col.R), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col.G), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col.B), 10))
	c.renderBuf.WriteByte('m')
}

// RenderBorder draws a box border around the canvas area when the terminal
// exceeds the max render resolution on either axis.
// Draws horizontal borders when there is vertical offset, vertical borders
// when there is horizontal offset, and corners when both are present.
func (c *Canvas) RenderBorder(w io.Writer) {
	hasH := c.offsetCol >= 1 // Room for left/right vertical bars
	hasV := c.offsetRow >= 1 // Room for top/bottom horizontal bars

	// Border positions (1-based terminal coordinates)
	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1

	var buf strings.Builder
	line := strings.Repeat("─", c.termWidth)

	if hasV {
		if hasH {
			buf.WriteString(cursorTo(top, left) + "┌" + line + "┐")
			buf.WriteString(cursorTo(bottom, left) + "└" + line + "┘")
		} else {
			buf.WriteString(cursorTo(top, c.offsetCol+1) + line)
			buf.WriteString(cursorTo(bottom, c.offsetCol+1) + line)
		}
	}

	if hasH {
		startRow := top + 1
		endRow := bottom
		if !hasV {
			// No horizontal borders, side bars span full canvas height
			startRow = c.offsetRow + 1
			endRow = c.offsetRow + c.termHeight + 1
		}
		for row := startRow; row < endRow; row++ {
			buf.WriteString(cursorTo(row, left) + "│" + cursorTo(row, right) + "│")
		}
	}

	io.WriteString(w, buf.String())
}

func cursorTo(row, col int) string {
	return "\033[" + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "H"
}

// PixelSize returns the canvas size in pixels: one per column, two per row.
func (c *Canvas) PixelSize() (width, height int) {
	return c.termWidth, c.subPixelHeight
}

// TerminalWidth returns the actual terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the actual terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// TerminalToPixel maps a 1-based terminal cell to the pixel-space point at
// the centre of the cell. ok is false for cells outside the canvas.
func (c *Canvas) TerminalToPixel(col, row int) (x, y float64, ok bool) {
	cx := col - 1 - c.offsetCol
	cy := row - 1 - c.offsetRow
	if cx < 0 || cx >= c.termWidth || cy < 0 || cy >= c.termHeight {
		return 0, 0, false
	}
	return float64(cx) + 0.5, float64(cy*2) + 1, true
}
