// Package scene renders the reference cube: a unit cube at the origin seen
// from a fixed camera, with a randomizable orientation and field of view.
package scene

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/gogpu/gg"

	"github.com/tomz197/cubesketch/internal/surface"
)

// Pose is the randomizable part of the view.
type Pose struct {
	RotX, RotY, RotZ float64 // Cube rotation in radians, applied Z then Y then X
	FOV              float64 // Vertical field of view in degrees
}

// DefaultPose shows the cube unrotated through a 60° lens.
var DefaultPose = Pose{FOV: 60}

// Field of view range for randomized poses, in degrees.
const (
	minFOV   = 40.0
	fovRange = 50.0
	nearClip = 0.1
)

var (
	cameraEye = vec3{2, 2, 3}
	worldUp   = vec3{0, 1, 0}
)

type face struct {
	normal, u, v vec3
}

// cubeFaces lists the six faces of a unit cube with two tangent axes each.
var cubeFaces = [6]face{
	{normal: vec3{1, 0, 0}, u: vec3{0, 1, 0}, v: vec3{0, 0, 1}},
	{normal: vec3{-1, 0, 0}, u: vec3{0, 1, 0}, v: vec3{0, 0, 1}},
	{normal: vec3{0, 1, 0}, u: vec3{1, 0, 0}, v: vec3{0, 0, 1}},
	{normal: vec3{0, -1, 0}, u: vec3{1, 0, 0}, v: vec3{0, 0, 1}},
	{normal: vec3{0, 0, 1}, u: vec3{1, 0, 0}, v: vec3{0, 1, 0}},
	{normal: vec3{0, 0, -1}, u: vec3{1, 0, 0}, v: vec3{0, 1, 0}},
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRand sets the random source used by RandomizePose.
func WithRand(rng *rand.Rand) Option {
	return func(r *Renderer) {
		r.rng = rng
	}
}

// WithPose sets the initial pose.
func WithPose(p Pose) Option {
	return func(r *Renderer) {
		r.pose = p
	}
}

// Renderer draws the cube into its own raster buffer. Its resolution scale is
// independent of the drawing surface's.
type Renderer struct {
	dc       *gg.Context
	rng      *rand.Rand
	pose     Pose
	logicalW int
	logicalH int
	scale    float64
	version  uint64
	err      error // Last render error, reported by Snapshot
}

// NewRenderer creates a renderer with a 1×1 viewport. Call Configure to size it.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		dc:       gg.NewContext(1, 1),
		pose:     DefaultPose,
		logicalW: 1,
		logicalH: 1,
		scale:    1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

// Configure sizes the viewport and re-renders.
func (r *Renderer) Configure(logicalW, logicalH int, density float64) {
	r.logicalW = max(1, logicalW)
	r.logicalH = max(1, logicalH)
	r.scale = surface.ClampScale(density)
	width, height := surface.PhysicalSize(r.logicalW, r.logicalH, r.scale)
	_ = r.dc.Resize(width, height)
	r.dc.Identity()
	r.dc.Scale(r.scale, r.scale)
	r.err = r.Render()
}

// RandomizePose picks a new orientation and field of view, then renders once.
func (r *Renderer) RandomizePose() {
	r.pose = Pose{
		RotX: r.rng.Float64() * 2 * math.Pi,
		RotY: r.rng.Float64() * 2 * math.Pi,
		RotZ: r.rng.Float64() * 2 * math.Pi,
		FOV:  minFOV + r.rng.Float64()*fovRange,
	}
	r.err = r.Render()
}

// SetPose replaces the pose and renders once.
func (r *Renderer) SetPose(p Pose) {
	r.pose = p
	r.err = r.Render()
}

// Pose returns the current pose.
func (r *Renderer) Pose() Pose {
	return r.pose
}

// Snapshot renders the current view and returns it as PNG.
func (r *Renderer) Snapshot() ([]byte, error) {
	if err := r.Render(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("scene: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Image returns a copy of the last rendered frame.
func (r *Renderer) Image() *image.RGBA {
	return r.dc.ResizeTarget().ToImage()
}

// Version changes after every render.
func (r *Renderer) Version() uint64 {
	return r.version
}

// Err returns the error of the most recent render, if any.
func (r *Renderer) Err() error {
	return r.err
}

type projectedFace struct {
	corners [4]gg.Point
	depth   float64
	r, g, b float64
}

// Render draws the cube on a white background.
func (r *Renderer) Render() error {
	r.version++
	r.dc.ClearWithColor(gg.White)

	w := float64(r.logicalW)
	h := float64(r.logicalH)
	aspect := w / h
	tanHalf := math.Tan(r.pose.FOV * math.Pi / 360)

	forward := cameraEye.mul(-1).normalize()
	right := forward.cross(worldUp).normalize()
	up := right.cross(forward)

	faces := make([]projectedFace, 0, 3)
	for _, f := range cubeFaces {
		n := rotateEuler(f.normal, r.pose.RotX, r.pose.RotY, r.pose.RotZ)
		center := n.mul(0.5)
		if n.dot(cameraEye.sub(center)) <= 0 {
			continue // Back face
		}
		u := rotateEuler(f.u, r.pose.RotX, r.pose.RotY, r.pose.RotZ).mul(0.5)
		v := rotateEuler(f.v, r.pose.RotX, r.pose.RotY, r.pose.RotZ).mul(0.5)
		corners := [4]vec3{
			center.add(u).add(v),
			center.add(u).sub(v),
			center.sub(u).sub(v),
			center.sub(u).add(v),
		}

		pf := projectedFace{depth: center.sub(cameraEye).length()}
		visible := true
		for i, c := range corners {
			d := c.sub(cameraEye)
			z := d.dot(forward)
			if z < nearClip {
				visible = false
				break
			}
			ndcX := d.dot(right) / (z * tanHalf * aspect)
			ndcY := d.dot(up) / (z * tanHalf)
			pf.corners[i] = gg.Pt((ndcX+1)/2*w, (1-ndcY)/2*h)
		}
		if !visible {
			continue
		}

		// Normal-mapped shading: view-space normal remapped to [0, 1].
		pf.r = n.dot(right)*0.5 + 0.5
		pf.g = n.dot(up)*0.5 + 0.5
		pf.b = -n.dot(forward)*0.5 + 0.5
		faces = append(faces, pf)
	}

	// Far faces first.
	sort.Slice(faces, func(i, j int) bool {
		return faces[i].depth > faces[j].depth
	})

	for _, f := range faces {
		r.dc.MoveTo(f.corners[0].X, f.corners[0].Y)
		for _, c := range f.corners[1:] {
			r.dc.LineTo(c.X, c.Y)
		}
		r.dc.ClosePath()
		r.dc.SetRGB(f.r, f.g, f.b)
		if err := r.dc.Fill(); err != nil {
			return fmt.Errorf("scene: fill face: %w", err)
		}
	}
	return nil
}
