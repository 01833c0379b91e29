package scene

import "math"

type vec3 struct {
	X, Y, Z float64
}

func (a vec3) add(b vec3) vec3 { return vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a vec3) sub(b vec3) vec3 { return vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a vec3) mul(s float64) vec3 { return vec3{a.X * s, a.Y * s, a.Z * s} }
func (a vec3) dot(b vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a vec3) length() float64 { return math.Sqrt(a.dot(a)) }
func (a vec3) normalize() vec3 { return a.mul(1 / a.length()) }
func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// rotateEuler applies an XYZ-order Euler rotation: the Z rotation first,
// then Y, then X.
func rotateEuler(v vec3, rx, ry, rz float64) vec3 {
	sz, cz := math.Sincos(rz)
	v = vec3{v.X*cz - v.Y*sz, v.X*sz + v.Y*cz, v.Z}
	sy, cy := math.Sincos(ry)
	v = vec3{v.X*cy + v.Z*sy, v.Y, -v.X*sy + v.Z*cy}
	sx, cx := math.Sincos(rx)
	return vec3{v.X, v.Y*cx - v.Z*sx, v.Y*sx + v.Z*cx}
}
