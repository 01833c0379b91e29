// Package reveal merges the reference render and the player's sketch into the
// final comparison image.
//
// Decoding both layers happens in the background; compositing starts only
// after both decodes resolved and always draws the reference before the
// sketch, so the sketch stays on top.
package reveal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// ErrNoLayers is returned when neither layer could be decoded. The target is
// left untouched in that case.
var ErrNoLayers = errors.New("reveal: no layer decoded")

// errEmptyLayer is reported for a layer with no image data.
var errEmptyLayer = errors.New("empty image data")

// Target is the surface the comparison image is written into.
type Target interface {
	// PhysicalSize returns the raster size both layers are stretched to.
	PhysicalSize() (width, height int)
	// ReplacePixels overwrites the whole raster buffer.
	ReplacePixels(img *image.RGBA) error
}

// DecodeFunc turns encoded image data into an image.
type DecodeFunc func(data []byte) (image.Image, error)

// Layers holds the decoded inputs. A nil image means its decode failed and
// the matching error says why.
type Layers struct {
	Reference    image.Image
	Sketch       image.Image
	ReferenceErr error
	SketchErr    error
}

// Result describes a finished composite.
type Result struct {
	Width, Height  int // Target physical size
	ReferenceDrawn bool
	SketchDrawn    bool
	ReferenceErr   error
	SketchErr      error
}

// Err joins the per-layer decode errors.
func (r Result) Err() error {
	return errors.Join(r.ReferenceErr, r.SketchErr)
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithScaler sets the interpolator used when a layer's size differs from the
// target's physical size.
func WithScaler(s xdraw.Scaler) Option {
	return func(c *Compositor) {
		c.scaler = s
	}
}

// WithDecoder replaces the image decoder.
func WithDecoder(fn DecodeFunc) Option {
	return func(c *Compositor) {
		c.decode = fn
	}
}

// Compositor draws the reveal image.
type Compositor struct {
	scaler xdraw.Scaler
	decode DecodeFunc
}

// New creates a compositor that decodes PNG, JPEG, BMP and WebP layers and
// stretches with Catmull-Rom interpolation.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		scaler: xdraw.CatmullRom,
		decode: decodeImage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errEmptyLayer
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Pending is an in-flight decode of both layers.
type Pending struct {
	done   chan struct{}
	layers Layers
	err    error
}

// Done is closed once both decodes have finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the decoded layers. It must only be called after Done is
// closed. The error is non-nil only when the decode context was cancelled.
func (p *Pending) Result() (Layers, error) {
	return p.layers, p.err
}

// Begin starts decoding both layers concurrently.
func (c *Compositor) Begin(ctx context.Context, reference, sketch []byte) *Pending {
	p := &Pending{done: make(chan struct{})}

	go func() {
		defer close(p.done)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := c.decode(reference)
			if err != nil {
				p.layers.ReferenceErr = fmt.Errorf("reveal: decode reference: %w", err)
			}
			p.layers.Reference = img
			return gctx.Err()
		})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := c.decode(sketch)
			if err != nil {
				p.layers.SketchErr = fmt.Errorf("reveal: decode sketch: %w", err)
			}
			p.layers.Sketch = img
			return gctx.Err()
		})
		p.err = g.Wait()
	}()

	return p
}

// Composite writes the comparison image into target: a blank buffer of the
// target's physical size, the reference stretched over it, then the sketch
// stretched on top. A layer that failed to decode is skipped.
func (c *Compositor) Composite(layers Layers, target Target) (Result, error) {
	width, height := target.PhysicalSize()
	res := Result{
		Width:        width,
		Height:       height,
		ReferenceErr: layers.ReferenceErr,
		SketchErr:    layers.SketchErr,
	}
	if layers.Reference == nil && layers.Sketch == nil {
		return res, fmt.Errorf("%w: %w", ErrNoLayers, res.Err())
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if layers.Reference != nil {
		c.drawLayer(dst, layers.Reference)
		res.ReferenceDrawn = true
	}
	if layers.Sketch != nil {
		c.drawLayer(dst, layers.Sketch)
		res.SketchDrawn = true
	}

	if err := target.ReplacePixels(dst); err != nil {
		return res, fmt.Errorf("reveal: write target: %w", err)
	}
	return res, nil
}

// Reveal decodes both layers, waits for them, and composites the result.
func (c *Compositor) Reveal(ctx context.Context, reference, sketch []byte, target Target) (Result, error) {
	p := c.Begin(ctx, reference, sketch)
	<-p.Done()
	layers, err := p.Result()
	if err != nil {
		return Result{}, err
	}
	return c.Composite(layers, target)
}

// drawLayer stretches src over the whole of dst. Layers that already match
// the target size are copied without resampling.
func (c *Compositor) drawLayer(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	db := dst.Bounds()
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() {
		xdraw.Draw(dst, db, src, sb.Min, xdraw.Over)
		return
	}
	c.scaler.Scale(dst, db, src, sb, xdraw.Over, nil)
}
