// Package linear provides the float32 vector, matrix, and Euler-rotation
// kit used by the scene graph and the packet tracer.
//
// Types are fixed-size arrays rather than structs so the compiler can keep
// them in registers and auto-vectorize component loops. Angles are degrees
// throughout; matrices are 4x4 row-major with column vectors (M * v).
package linear

import "math"

// V3 is a 3-component float32 vector.
// Components are addressed by local axis: 0=I, 1=J, 2=K (X, Y, Z in world).
type V3 [3]float32

// V4 is a 4-component float32 vector (homogeneous coordinates).
type V4 [4]float32

// Inf is the float32 positive infinity. Clipper boxes use +-Inf to mean
// "unbounded along this axis".
var Inf = float32(math.Inf(+1))

// Add returns v + w.
func (v V3) Add(w V3) V3 {
	return V3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v V3) Sub(w V3) V3 {
	return V3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns v scaled by s.
func (v V3) Scale(s float32) V3 {
	return V3{v[0] * s, v[1] * s, v[2] * s}
}

// MulEach returns the component-wise product of v and w.
func (v V3) MulEach(w V3) V3 {
	return V3{v[0] * w[0], v[1] * w[1], v[2] * w[2]}
}

// Neg returns -v.
func (v V3) Neg() V3 {
	return V3{-v[0], -v[1], -v[2]}
}

// Dot returns the dot product of v and w.
func (v V3) Dot(w V3) float32 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Cross returns the cross product of v and w.
func (v V3) Cross(w V3) V3 {
	return V3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Len returns the length of v.
func (v V3) Len() float32 {
	return Sqrt(v.Dot(v))
}

// Norm returns v scaled to unit length.
// Returns the zero vector if v has zero length.
func (v V3) Norm() V3 {
	l := v.Len()
	if l == 0 {
		return V3{}
	}
	return v.Scale(1 / l)
}

// Min returns the component-wise minimum of v and w.
// Infinities participate per IEEE-754 ordering.
func (v V3) Min(w V3) V3 {
	return V3{min(v[0], w[0]), min(v[1], w[1]), min(v[2], w[2])}
}

// Max returns the component-wise maximum of v and w.
func (v V3) Max(w V3) V3 {
	return V3{max(v[0], w[0]), max(v[1], w[1]), max(v[2], w[2])}
}

// LessEq reports whether v <= w component-wise.
func (v V3) LessEq(w V3) bool {
	return v[0] <= w[0] && v[1] <= w[1] && v[2] <= w[2]
}

// IsFinite reports whether every component of v is finite.
func (v V3) IsFinite() bool {
	for i := range v {
		if float64(v[i]) != float64(v[i]) || v[i] >= Inf || v[i] <= -Inf {
			return false
		}
	}
	return true
}

// Splat returns a V3 with all components set to s.
func Splat(s float32) V3 {
	return V3{s, s, s}
}

// Sqrt is float32 square root.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// Abs is float32 absolute value.
func Abs(x float32) float32 {
	return float32(math.Abs(float64(x)))
}
