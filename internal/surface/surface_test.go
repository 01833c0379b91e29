package surface

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"
	"testing"
)

func pixels(s *Surface) []byte {
	return s.Image().Pix
}

func hasInk(s *Surface) bool {
	pix := pixels(s)
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			return true
		}
	}
	return false
}

// drawSegment performs one complete stroke, which is exactly one checkpoint.
func drawSegment(t *testing.T, s *Surface, from, to Point) {
	t.Helper()
	s.BeginStroke(from)
	if err := s.ExtendStroke(to); err != nil {
		t.Fatalf("ExtendStroke: %v", err)
	}
	s.EndStroke()
}

func TestClampScale(t *testing.T) {
	tests := []struct {
		density float64
		want    float64
	}{
		{1, 1},
		{1.5, 1.5},
		{2, 2},
		{3, 2},
		{0, 1},
		{-1, 1},
		{math.NaN(), 1},
		{math.Inf(1), 1},
	}
	for _, tt := range tests {
		if got := ClampScale(tt.density); got != tt.want {
			t.Errorf("ClampScale(%v) = %v, want %v", tt.density, got, tt.want)
		}
	}
}

func TestSurface_Configure_PhysicalSize(t *testing.T) {
	tests := []struct {
		w, h    int
		density float64
	}{
		{1, 1, 1},
		{100, 50, 2},
		{120, 80, 1.5},
		{33, 17, 1.25},
		{7, 9, 0.5},
		{640, 480, 1.1},
		{3, 3, 3}, // clamped to 2
	}
	for _, tt := range tests {
		s := New()
		s.Configure(tt.w, tt.h, tt.density)
		scale := ClampScale(tt.density)
		wantW := int(math.Floor(float64(tt.w) * scale))
		wantH := int(math.Floor(float64(tt.h) * scale))
		gotW, gotH := s.PhysicalSize()
		if gotW != wantW || gotH != wantH {
			t.Errorf("Configure(%d, %d, %v): physical %dx%d, want %dx%d",
				tt.w, tt.h, tt.density, gotW, gotH, wantW, wantH)
		}
		if s.CurrentScale() != scale {
			t.Errorf("CurrentScale() = %v, want %v", s.CurrentScale(), scale)
		}
		img := s.Image()
		if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
			t.Errorf("Image() bounds %v, want %dx%d", img.Bounds(), wantW, wantH)
		}
	}
}

func TestSurface_Configure_NeverBelowOnePixel(t *testing.T) {
	s := New()
	s.Configure(1, 1, 0.3)
	w, h := s.PhysicalSize()
	if w != 1 || h != 1 {
		t.Errorf("physical %dx%d, want 1x1", w, h)
	}
}

func TestSurface_Configure_IdempotentKeepsDrawing(t *testing.T) {
	s := New()
	s.Configure(40, 30, 2)
	drawSegment(t, s, Point{5, 5}, Point{30, 20})
	before := append([]byte(nil), pixels(s)...)

	s.Configure(40, 30, 2)
	s.Configure(40, 30, 2)

	if !bytes.Equal(before, pixels(s)) {
		t.Error("repeated Configure with the same size changed the buffer")
	}
	if s.CurrentScale() != 2 {
		t.Errorf("CurrentScale() = %v, want 2 (scale must not accumulate)", s.CurrentScale())
	}
}

func TestSurface_Configure_ScaleIsRederived(t *testing.T) {
	s := New()
	s.Configure(50, 50, 2)
	s.Configure(50, 50, 1)
	s.Configure(50, 50, 2)
	drawSegment(t, s, Point{10, 25}, Point{40, 25})

	img := s.Image()
	// At scale 2 the logical point (25, 25) lands on physical (50, 50).
	if a := img.RGBAAt(50, 50).A; a == 0 {
		t.Error("expected ink at physical (50, 50)")
	}
	// A transform accumulated to 4x would have drawn at (100, 100), off the
	// 100x100 buffer, leaving row 50 empty.
}

func TestSurface_ExtendStroke_WithoutBeginIsNoop(t *testing.T) {
	s := New()
	s.Configure(20, 20, 1)
	v := s.Version()

	if err := s.ExtendStroke(Point{5, 5}); err != nil {
		t.Fatalf("ExtendStroke: %v", err)
	}
	if s.Version() != v {
		t.Error("ExtendStroke without BeginStroke mutated the surface")
	}
	if hasInk(s) {
		t.Error("ExtendStroke without BeginStroke drew pixels")
	}
	if s.UndoDepth() != 0 {
		t.Errorf("UndoDepth() = %d, want 0", s.UndoDepth())
	}
}

func TestSurface_EndStroke_StopsDrawing(t *testing.T) {
	s := New()
	s.Configure(20, 20, 1)
	s.BeginStroke(Point{2, 2})
	if !s.Drawing() {
		t.Fatal("Drawing() = false after BeginStroke")
	}
	s.EndStroke()
	v := s.Version()
	if err := s.ExtendStroke(Point{15, 15}); err != nil {
		t.Fatalf("ExtendStroke: %v", err)
	}
	if s.Version() != v || hasInk(s) {
		t.Error("ExtendStroke after EndStroke drew pixels")
	}
}

func TestSurface_Stroke_StaysWithinScaledBounds(t *testing.T) {
	const scale = 2.0
	const width = 3.0
	s := New(WithLineWidth(width))
	s.Configure(60, 40, scale)

	from, to := Point{10, 10}, Point{30, 20}
	drawSegment(t, s, from, to)

	// Round caps extend half the line width past each end point.
	pad := width/2*scale + 1
	minX := math.Min(from.X, to.X)*scale - pad
	maxX := math.Max(from.X, to.X)*scale + pad
	minY := math.Min(from.Y, to.Y)*scale - pad
	maxY := math.Max(from.Y, to.Y)*scale + pad

	img := s.Image()
	b := img.Bounds()
	inked := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A == 0 {
				continue
			}
			inked++
			if float64(x) < minX || float64(x) > maxX || float64(y) < minY || float64(y) > maxY {
				t.Fatalf("ink at physical (%d, %d) outside scaled stroke bounds [%v..%v]x[%v..%v]",
					x, y, minX, maxX, minY, maxY)
			}
		}
	}
	if inked == 0 {
		t.Fatal("stroke drew no pixels")
	}
	// Midpoint of the segment, scaled.
	if img.RGBAAt(40, 30).A == 0 {
		t.Error("expected ink at the scaled midpoint (40, 30)")
	}
}

func TestSurface_Undo_EmptyIsNoop(t *testing.T) {
	s := New()
	s.Configure(10, 10, 1)
	before := append([]byte(nil), pixels(s)...)
	v := s.Version()

	if s.Undo() {
		t.Error("Undo() = true on empty history")
	}
	if s.Version() != v || !bytes.Equal(before, pixels(s)) {
		t.Error("Undo on empty history changed the buffer")
	}
}

func TestSurface_Undo_RestoresPreStrokeState(t *testing.T) {
	s := New()
	s.Configure(30, 30, 2)
	blank := append([]byte(nil), pixels(s)...)

	drawSegment(t, s, Point{3, 3}, Point{25, 25})
	if !hasInk(s) {
		t.Fatal("stroke drew nothing")
	}
	if !s.Undo() {
		t.Fatal("Undo() = false after a stroke")
	}
	if !bytes.Equal(blank, pixels(s)) {
		t.Error("Undo did not restore the pre-stroke buffer")
	}
}

func TestSurface_Undo_ReverseChronologicalWithinCapacity(t *testing.T) {
	const capacity = 8
	s := New(WithCapacity(capacity))
	s.Configure(40, 40, 1.5)

	var states [][]byte
	for i := 0; i < capacity; i++ {
		states = append(states, append([]byte(nil), pixels(s)...))
		if i%3 == 2 {
			s.Clear()
			continue
		}
		y := float64(4 + i*4)
		drawSegment(t, s, Point{2, y}, Point{36, y})
	}
	if s.UndoDepth() != capacity {
		t.Fatalf("UndoDepth() = %d, want %d", s.UndoDepth(), capacity)
	}

	for i := capacity - 1; i >= 0; i-- {
		if !s.Undo() {
			t.Fatalf("Undo() = false with %d checkpoints left", i+1)
		}
		if !bytes.Equal(states[i], pixels(s)) {
			t.Fatalf("undo #%d did not restore checkpoint %d", capacity-i, i)
		}
	}
	if s.Undo() {
		t.Error("Undo() = true past the recorded history")
	}
}

func TestSurface_Undo_EvictsOldestBeyondCapacity(t *testing.T) {
	const capacity = 4
	const total = 7
	s := New(WithCapacity(capacity))
	s.Configure(40, 40, 1)

	var states [][]byte
	for i := 0; i < total; i++ {
		states = append(states, append([]byte(nil), pixels(s)...))
		y := float64(3 + i*5)
		drawSegment(t, s, Point{2, y}, Point{36, y})
	}
	if s.UndoDepth() != capacity {
		t.Fatalf("UndoDepth() = %d, want %d", s.UndoDepth(), capacity)
	}

	for i := total - 1; i >= total-capacity; i-- {
		if !s.Undo() {
			t.Fatalf("Undo() = false, want checkpoint %d", i)
		}
		if !bytes.Equal(states[i], pixels(s)) {
			t.Fatalf("undo did not restore checkpoint %d", i)
		}
	}

	// The oldest total-capacity checkpoints were evicted.
	final := append([]byte(nil), pixels(s)...)
	if s.Undo() {
		t.Fatal("Undo() = true for an evicted checkpoint")
	}
	if !bytes.Equal(final, pixels(s)) {
		t.Error("failed Undo changed the buffer")
	}
	if bytes.Equal(states[0], final) {
		t.Error("buffer equals the state before the first stroke; eviction is not FIFO")
	}
}

func TestSurface_Clear_IsUndoable(t *testing.T) {
	s := New()
	s.Configure(20, 20, 2)
	drawSegment(t, s, Point{2, 2}, Point{18, 18})
	drawn := append([]byte(nil), pixels(s)...)

	s.Clear()
	if hasInk(s) {
		t.Fatal("Clear left ink behind")
	}
	s.Undo()
	if !bytes.Equal(drawn, pixels(s)) {
		t.Error("Undo after Clear did not restore the drawing")
	}
}

func TestSurface_Undo_AfterResizeClipsSnapshot(t *testing.T) {
	s := New()
	s.Configure(20, 20, 1)
	drawSegment(t, s, Point{1, 1}, Point{19, 1})
	drawSegment(t, s, Point{1, 10}, Point{19, 10})

	s.Configure(10, 30, 1)
	if !s.Undo() {
		t.Fatal("Undo() = false")
	}
	w, h := s.PhysicalSize()
	if w != 10 || h != 30 {
		t.Fatalf("physical %dx%d, want 10x30", w, h)
	}
	img := s.Image()
	if img.RGBAAt(5, 1).A == 0 {
		t.Error("expected the first stroke to survive inside the clipped region")
	}
	if img.RGBAAt(5, 25).A != 0 {
		t.Error("expected rows beyond the snapshot to be blank")
	}
}

func TestSurface_ExportImage_PhysicalSize(t *testing.T) {
	s := New()
	s.Configure(50, 30, 2)
	drawSegment(t, s, Point{5, 5}, Point{45, 25})

	data, err := s.ExportImage()
	if err != nil {
		t.Fatalf("ExportImage: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("exported bounds %v, want 100x60", img.Bounds())
	}
}

func TestSurface_ReplacePixels(t *testing.T) {
	s := New()
	s.Configure(8, 4, 2)

	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	v := s.Version()
	if err := s.ReplacePixels(img); err != nil {
		t.Fatalf("ReplacePixels: %v", err)
	}
	if s.Version() == v {
		t.Error("Version() unchanged after ReplacePixels")
	}
	if !bytes.Equal(img.Pix, pixels(s)) {
		t.Error("buffer does not match replacement pixels")
	}

	err := s.ReplacePixels(image.NewRGBA(image.Rect(0, 0, 8, 4)))
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("ReplacePixels(logical-sized image) error = %v, want ErrSizeMismatch", err)
	}
}

func TestHistory_PushPop(t *testing.T) {
	h := NewHistory(2)
	h.Push(newSnapshot(1, 1, []byte{1, 0, 0, 0}))
	h.Push(newSnapshot(1, 1, []byte{2, 0, 0, 0}))
	h.Push(newSnapshot(1, 1, []byte{3, 0, 0, 0}))

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	for _, want := range []byte{3, 2} {
		s, ok := h.Pop()
		if !ok || s.pix[0] != want {
			t.Errorf("Pop() = %v, %v; want pix[0]=%d", s.pix, ok, want)
		}
	}
	if _, ok := h.Pop(); ok {
		t.Error("Pop() on empty history returned ok")
	}
}

func TestHistory_SnapshotDoesNotAlias(t *testing.T) {
	pix := []byte{9, 9, 9, 9}
	s := newSnapshot(1, 1, pix)
	pix[0] = 0
	if s.pix[0] != 9 {
		t.Error("snapshot aliases the source buffer")
	}
}
