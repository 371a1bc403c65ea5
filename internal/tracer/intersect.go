package tracer

import (
	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/object"
	"github.com/gogpu/quadray/scene"
)

// localPoint maps a world point into a surface's local frame: through the
// trnode inverse when the side-car carries one, then through the signed
// axis permutation.
func localPoint(b *object.Batch, p linear.V3) linear.V3 {
	if b.Inv != nil {
		p = b.Inv.MulPoint(p)
	}
	p = p.Sub(b.Pos)
	var q linear.V3
	for i := range 3 {
		m := int(b.MapB[i])
		if b.Inv != nil {
			m -= object.TrnodeMapOffset
		}
		q[i] = p[m] * b.Sgn[i] / b.Scl[i]
	}
	return q
}

// localDir maps a world direction into the local frame.
func localDir(b *object.Batch, d linear.V3) linear.V3 {
	if b.Inv != nil {
		d = b.Inv.MulVec(d)
	}
	var q linear.V3
	for i := range 3 {
		m := int(b.MapB[i])
		if b.Inv != nil {
			m -= object.TrnodeMapOffset
		}
		q[i] = d[m] * b.Sgn[i] / b.Scl[i]
	}
	return q
}

// worldDir maps a local direction back to world space. Used for normals;
// the axis-map scale division doubles as the inverse-transpose there.
func worldDir(b *object.Batch, l linear.V3) linear.V3 {
	var q linear.V3
	for i := range 3 {
		m := int(b.MapB[i])
		if b.Inv != nil {
			m -= object.TrnodeMapOffset
		}
		q[m] = l[i] * b.Sgn[i] / b.Scl[i]
	}
	if b.Inv != nil {
		// Gradient transforms by the inverse transpose of the trnode
		// matrix, which is the transpose of the stored inverse.
		inv := b.Inv
		q = linear.V3{
			inv[0][0]*q[0] + inv[1][0]*q[1] + inv[2][0]*q[2],
			inv[0][1]*q[0] + inv[1][1]*q[1] + inv[2][1]*q[2],
			inv[0][2]*q[0] + inv[1][2]*q[1] + inv[2][2]*q[2],
		}
	}
	return q
}

// shapeEval evaluates the surface's implicit function at a local point:
// negative inside, positive outside.
func shapeEval(b *object.Batch, l linear.V3) float32 {
	ij := l[0]*l[0] + l[1]*l[1]
	switch scene.Tag(b.Tag) {
	case scene.Plane:
		return l[2]
	case scene.Cylinder:
		return ij - b.Rad*b.Rad
	case scene.Sphere:
		return ij + l[2]*l[2] - b.Rad*b.Rad
	case scene.Cone:
		return ij - l[2]*l[2]*b.Rat*b.Rat
	case scene.Paraboloid:
		return ij - l[2]*b.Par
	case scene.Hyperboloid:
		return ij - l[2]*l[2]*b.Rat*b.Rat - b.Hyp
	}
	return 1
}

// shapeGrad returns the local gradient of the implicit function.
func shapeGrad(b *object.Batch, l linear.V3) linear.V3 {
	switch scene.Tag(b.Tag) {
	case scene.Plane:
		return linear.V3{0, 0, 1}
	case scene.Cylinder:
		return linear.V3{2 * l[0], 2 * l[1], 0}
	case scene.Sphere:
		return linear.V3{2 * l[0], 2 * l[1], 2 * l[2]}
	case scene.Cone:
		return linear.V3{2 * l[0], 2 * l[1], -2 * l[2] * b.Rat * b.Rat}
	case scene.Paraboloid:
		return linear.V3{2 * l[0], 2 * l[1], -b.Par}
	case scene.Hyperboloid:
		return linear.V3{2 * l[0], 2 * l[1], -2 * l[2] * b.Rat * b.Rat}
	}
	return linear.V3{0, 0, 1}
}

// inCbox reports whether a local point lies within the clipping box.
func inCbox(b *object.Batch, l linear.V3) bool {
	for i := range 3 {
		if l[i] < b.CMin[i] || l[i] > b.CMax[i] {
			return false
		}
	}
	return true
}

// quadRoots solves a*t^2 + 2*b2*t + c = 0, returning the roots in
// ascending order. ok is false when there is no real solution.
func quadRoots(a, b2, c float32) (t0, t1 float32, ok bool) {
	if a == 0 {
		if b2 == 0 {
			return 0, 0, false
		}
		t := -c / (2 * b2)
		return t, t, true
	}
	d := b2*b2 - a*c
	if d < 0 {
		return 0, 0, false
	}
	s := linear.Sqrt(d)
	t0 = (-b2 - s) / a
	t1 = (-b2 + s) / a
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	return t0, t1, true
}

// hitSurface intersects one world-space ray with a surface, honoring the
// clipping box and the custom clipper list. Returns the nearest t in
// (tmin, tmax) that survives clipping.
func hitSurface(b *object.Batch, s *object.Object, o, d linear.V3, tmin, tmax float32) (float32, bool) {
	lo := localPoint(b, o)
	ld := localDir(b, d)

	var t0, t1 float32
	var ok bool
	if scene.Tag(b.Tag) == scene.Plane {
		if ld[2] == 0 {
			return 0, false
		}
		t0 = -lo[2] / ld[2]
		t1 = t0
		ok = true
	} else {
		var a, b2, c float32
		ij := func() (float32, float32) {
			return ld[0]*ld[0] + ld[1]*ld[1], lo[0]*ld[0] + lo[1]*ld[1]
		}
		switch scene.Tag(b.Tag) {
		case scene.Cylinder:
			a, b2 = ij()
			c = lo[0]*lo[0] + lo[1]*lo[1] - b.Rad*b.Rad
		case scene.Sphere:
			a, b2 = ij()
			a += ld[2] * ld[2]
			b2 += lo[2] * ld[2]
			c = lo.Dot(lo) - b.Rad*b.Rad
		case scene.Cone:
			a, b2 = ij()
			r2 := b.Rat * b.Rat
			a -= ld[2] * ld[2] * r2
			b2 -= lo[2] * ld[2] * r2
			c = lo[0]*lo[0] + lo[1]*lo[1] - lo[2]*lo[2]*r2
		case scene.Paraboloid:
			a, b2 = ij()
			b2 -= ld[2] * b.Par / 2
			c = lo[0]*lo[0] + lo[1]*lo[1] - lo[2]*b.Par
		case scene.Hyperboloid:
			a, b2 = ij()
			r2 := b.Rat * b.Rat
			a -= ld[2] * ld[2] * r2
			b2 -= lo[2] * ld[2] * r2
			c = lo[0]*lo[0] + lo[1]*lo[1] - lo[2]*lo[2]*r2 - b.Hyp
		}
		t0, t1, ok = quadRoots(a, b2, c)
	}
	if !ok {
		return 0, false
	}

	for _, t := range [2]float32{t0, t1} {
		if t <= tmin || t >= tmax {
			continue
		}
		lp := lo.Add(ld.Scale(t))
		if !inCbox(b, lp) {
			continue
		}
		if !passClip(s, o.Add(d.Scale(t))) {
			continue
		}
		return t, true
	}
	return 0, false
}

// passClip evaluates the surface's custom clipper list at a world-space
// hit point. Plain elements AND together; an accumulation segment passes
// when the point is outside any of its members, short-circuiting on the
// first success.
func passClip(s *object.Object, p linear.V3) bool {
	e := s.Clip
	for e != nil {
		switch e.Kind {
		case clipAccumEnterKind:
			segPass := false
			for e = e.Next; e != nil && e.Kind != clipAccumLeaveKind; e = e.Next {
				if e.Kind != clipSurfKind {
					continue
				}
				if !segPass && clipKeeps(e, p) {
					segPass = true
					// Short-circuit: skip to the segment end.
				}
			}
			if !segPass {
				return false
			}
			if e != nil {
				e = e.Next
			}
		case clipSurfKind:
			if !clipKeeps(e, p) {
				return false
			}
			e = e.Next
		default:
			e = e.Next
		}
	}
	return true
}

// Aliases keep the clip walk readable without re-exporting the kinds.
const (
	clipSurfKind       = object.ClipSurf
	clipAccumEnterKind = object.ClipAccumEnter
	clipAccumLeaveKind = object.ClipAccumLeave
)

// clipKeeps reports whether a world point survives one clipper element.
// A MinusOuter clipper keeps points outside its surface, a MinusInner
// clipper keeps points inside. Points beyond the clipper's own clipping
// box are outside its carve extent and always survive a MinusOuter.
func clipKeeps(e *object.ClipElem, p linear.V3) bool {
	cb := &e.Surf.Batch
	l := localPoint(cb, p)
	if e.Side > 0 {
		if !inCbox(cb, l) {
			return true
		}
		return shapeEval(cb, l) >= 0
	}
	return inCbox(cb, l) && shapeEval(cb, l) <= 0
}
