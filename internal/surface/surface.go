// Package surface implements the freehand drawing surface: a resolution-scaled
// raster buffer that records pointer strokes and keeps a bounded history of
// whole-buffer snapshots for undo.
package surface

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"

	"github.com/tomz197/cubesketch/internal/loop/config"
)

// ErrSizeMismatch is returned when replacement pixels do not match the
// physical buffer size.
var ErrSizeMismatch = errors.New("surface: image size does not match physical buffer")

// Point is a position in logical units.
type Point struct {
	X, Y float64
}

// Option configures a Surface.
type Option func(*Surface)

// WithLineWidth sets the stroke width in logical units.
func WithLineWidth(width float64) Option {
	return func(s *Surface) {
		if width > 0 {
			s.lineWidth = width
		}
	}
}

// WithColor sets the stroke color.
func WithColor(c color.Color) Option {
	return func(s *Surface) {
		s.color = c
	}
}

// WithCapacity sets how many undo snapshots are kept.
func WithCapacity(n int) Option {
	return func(s *Surface) {
		s.history = NewHistory(n)
	}
}

// Surface is a raster drawing buffer with a logical and a physical size.
// Drawing calls take logical coordinates; the context transform maps them
// onto the physical buffer.
type Surface struct {
	dc       *gg.Context
	logicalW int
	logicalH int
	scale    float64
	history  *History

	// Stroke session
	drawing bool
	last    Point

	lineWidth float64
	color     color.Color
	version   uint64 // Bumped on every pixel mutation
}

// New creates a 1×1 surface at scale 1. Call Configure before drawing.
func New(opts ...Option) *Surface {
	s := &Surface{
		dc:        gg.NewContext(1, 1),
		logicalW:  1,
		logicalH:  1,
		scale:     1,
		history:   NewHistory(config.UndoCapacity),
		lineWidth: config.StrokeWidth,
		color:     color.Black,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure sets the logical size and derives the scale factor from density.
// The physical buffer is reallocated (and therefore blanked) only when its
// size changes, so repeated calls with the same arguments keep the drawing.
// The transform is rebuilt from identity on every call.
func (s *Surface) Configure(logicalW, logicalH int, density float64) {
	logicalW = max(1, logicalW)
	logicalH = max(1, logicalH)
	scale := ClampScale(density)
	width, height := PhysicalSize(logicalW, logicalH, scale)

	if width != s.dc.Width() || height != s.dc.Height() {
		// Dimensions are always >= 1, so Resize cannot fail.
		_ = s.dc.Resize(width, height)
		s.version++
	}

	s.logicalW = logicalW
	s.logicalH = logicalH
	s.scale = scale
	s.dc.Identity()
	s.dc.Scale(scale, scale)
}

// BeginStroke checkpoints the buffer and starts a stroke at p.
func (s *Surface) BeginStroke(p Point) {
	s.checkpoint()
	s.drawing = true
	s.last = p
}

// ExtendStroke draws a segment from the previous point to p.
// Without an active stroke it does nothing.
func (s *Surface) ExtendStroke(p Point) error {
	if !s.drawing {
		return nil
	}

	s.dc.SetLineWidth(s.lineWidth)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.SetColor(s.color)
	s.dc.MoveTo(s.last.X, s.last.Y)
	s.dc.LineTo(p.X, p.Y)
	err := s.dc.Stroke()

	s.last = p
	s.version++
	if err != nil {
		return fmt.Errorf("surface: stroke: %w", err)
	}
	return nil
}

// EndStroke finishes the current stroke session.
func (s *Surface) EndStroke() {
	s.drawing = false
}

// Drawing reports whether a stroke session is active.
func (s *Surface) Drawing() bool {
	return s.drawing
}

// Undo restores the most recent checkpoint. It reports false when the
// history is empty.
func (s *Surface) Undo() bool {
	snap, ok := s.history.Pop()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// UndoDepth returns the number of checkpoints that can be undone.
func (s *Surface) UndoDepth() int {
	return s.history.Len()
}

// Clear checkpoints the buffer and blanks it.
func (s *Surface) Clear() {
	s.checkpoint()
	s.dc.Clear()
	s.version++
}

// ExportImage encodes the physical buffer as PNG.
func (s *Surface) ExportImage() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("surface: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Image returns a copy of the physical buffer.
func (s *Surface) Image() *image.RGBA {
	return s.dc.ResizeTarget().ToImage()
}

// ReplacePixels overwrites the whole physical buffer with img.
// img must have exactly the physical size.
func (s *Surface) ReplacePixels(img *image.RGBA) error {
	pm := s.dc.ResizeTarget()
	b := img.Bounds()
	if b.Dx() != pm.Width() || b.Dy() != pm.Height() {
		return fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrSizeMismatch, b.Dx(), b.Dy(), pm.Width(), pm.Height())
	}

	data := pm.Data()
	rowLen := pm.Width() * 4
	for y := 0; y < pm.Height(); y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(data[y*rowLen:(y+1)*rowLen], img.Pix[src:src+rowLen])
	}
	s.version++
	return nil
}

// CurrentScale returns the active resolution scale factor.
func (s *Surface) CurrentScale() float64 {
	return s.scale
}

// LogicalSize returns the layout size in logical units.
func (s *Surface) LogicalSize() (width, height int) {
	return s.logicalW, s.logicalH
}

// PhysicalSize returns the raster buffer size in pixels.
func (s *Surface) PhysicalSize() (width, height int) {
	return s.dc.Width(), s.dc.Height()
}

// Version changes whenever the buffer content may have changed.
func (s *Surface) Version() uint64 {
	return s.version
}

func (s *Surface) checkpoint() {
	pm := s.dc.ResizeTarget()
	s.history.Push(newSnapshot(pm.Width(), pm.Height(), pm.Data()))
}

// restore writes snap back into the buffer. A snapshot taken before a resize
// is pasted at the origin, clipped to the current size.
func (s *Surface) restore(snap Snapshot) {
	pm := s.dc.ResizeTarget()
	data := pm.Data()
	s.version++

	if snap.width == pm.Width() && snap.height == pm.Height() {
		copy(data, snap.pix)
		return
	}

	clear(data)
	w := min(snap.width, pm.Width()) * 4
	h := min(snap.height, pm.Height())
	for y := 0; y < h; y++ {
		copy(data[y*pm.Width()*4:y*pm.Width()*4+w], snap.pix[y*snap.width*4:])
	}
}
