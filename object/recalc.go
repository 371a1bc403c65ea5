package object

import (
	"fmt"

	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/scene"
)

// Recalc runs Phase 1 for one object: axis-map extraction, bounding
// and clipping box recalculation, polyhedron generation, bounding sphere,
// inverse matrix, and the tracer side-car.
//
// Safe to call concurrently for distinct objects: every write targets
// state owned by the object itself, and the clipper lists built in
// Phase 0 are read-only here.
func (o *Object) Recalc(cfg Opts) error {
	switch {
	case o.IsSurface():
		return o.recalcSurface(cfg)
	case o.Tag == scene.Array:
		if o.Trnode == o {
			inv, ok := o.Mtx.Invert()
			if !ok {
				return fmt.Errorf("%w: array matrix is singular", ErrMalformedScene)
			}
			o.Inv = inv
		}
		o.recalcArray()
		return nil
	default:
		// Cameras and lights only need their (already collapsed)
		// world matrix and, for rotated cameras, its basis.
		return nil
	}
}

func (o *Object) recalcSurface(cfg Opts) error {
	// Axis map: valid whenever the matrix (world- or trnode-relative)
	// is a signed scaled permutation, which covers both the no-transform
	// and the pure-scale case.
	o.Axis, o.AxisOK = o.Mtx.ExtractAxisMap()
	if o.Trnode == o {
		inv, ok := o.Mtx.Invert()
		if !ok {
			return fmt.Errorf("%w: surface %d matrix is singular", ErrMalformedScene, o.Seq)
		}
		o.Inv = inv
	}

	o.updateMinmax(cfg)

	if err := o.genVerts(); err != nil {
		return err
	}
	o.updateSphere()
	o.fillBatch()
	return nil
}

// recalcArray widens the array's world bounding box to enclose every
// child that names it as bounding volume.
func (o *Object) recalcArray() {
	mn := linear.Splat(+linear.Inf)
	mx := linear.Splat(-linear.Inf)
	any := false
	for _, k := range o.Kids {
		if k.Bvnode != o || !k.IsSurface() {
			continue
		}
		wmn, wmx, ok := k.worldBox()
		if !ok {
			continue
		}
		mn = mn.Min(wmn)
		mx = mx.Max(wmx)
		any = true
	}
	if any {
		o.BMin, o.BMax = mn, mx
	} else {
		o.BMin, o.BMax = linear.V3{}, linear.V3{}
	}
}

// worldBox returns the world-space AABB of the surface's local bbox.
func (o *Object) worldBox() (mn, mx linear.V3, ok bool) {
	if !o.BMin.IsFinite() || !o.BMax.IsFinite() {
		return mn, mx, false
	}
	w := o.WorldMtx()
	mn = linear.Splat(+linear.Inf)
	mx = linear.Splat(-linear.Inf)
	for c := range 8 {
		p := w.MulPoint(boxCorner(o.BMin, o.BMax, c))
		mn = mn.Min(p)
		mx = mx.Max(p)
	}
	return mn, mx, true
}

func boxCorner(mn, mx linear.V3, c int) linear.V3 {
	p := mn
	if c&1 != 0 {
		p[0] = mx[0]
	}
	if c&2 != 0 {
		p[1] = mx[1]
	}
	if c&4 != 0 {
		p[2] = mx[2]
	}
	return p
}

// updateMinmax recomputes the local bounding and clipping boxes.
//
// The direct path applies the shape clamp to the literal clipper box. The
// custom path additionally tightens the source box by the carve-outs of
// same-trnode MinusOuter clippers before the final clamp; it is skipped
// for surfaces that are their own trnode and when OptAdjust is off.
func (o *Object) updateMinmax(cfg Opts) {
	smin, smax := o.SMin, o.SMax

	custom := o.Clip != nil && o.Trnode != o && cfg&OptAdjust != 0
	if custom {
		// Members of an accumulation segment are OR-ed at trace time,
		// so no single member is guaranteed to carve; only standalone
		// MinusOuter clippers may cut.
		inAccum := false
		for e := o.Clip; e != nil; e = e.Next {
			switch e.Kind {
			case ClipAccumEnter:
				inAccum = true
				continue
			case ClipAccumLeave:
				inAccum = false
				continue
			}
			if e.Kind != ClipSurf || e.Side != +1 || inAccum {
				continue
			}
			c := e.Surf
			if c.Tag == scene.Plane || c.Trnode != o.Trnode {
				continue
			}
			smin, smax = o.cutSource(smin, smax, c)
		}
	}
	o.BMin, o.BMax, o.CMin, o.CMax = o.adjustMinmax(smin, smax)
}

// cutSource shrinks the source box by a MinusOuter clipper's carve box
// expressed in o's local frame. An axis interval is only cut when the
// clipper covers the source box across both other axes and the cut
// reaches an end of the interval; interior carves cannot tighten an AABB.
func (o *Object) cutSource(smin, smax linear.V3, c *Object) (linear.V3, linear.V3) {
	cmn, cmx, ok := o.relativeBox(c)
	if !ok {
		return smin, smax
	}
	for k := range 3 {
		a, b := (k+1)%3, (k+2)%3
		if cmn[a] > smin[a] || cmx[a] < smax[a] ||
			cmn[b] > smin[b] || cmx[b] < smax[b] {
			continue
		}
		if cmn[k] <= smin[k] && cmx[k] > smin[k] {
			smin[k] = min(cmx[k], smax[k])
		}
		if cmx[k] >= smax[k] && cmn[k] < smax[k] {
			smax[k] = max(cmn[k], smin[k])
		}
	}
	return smin, smax
}

// relativeBox returns the clipper's carve box mapped into o's local
// frame. Both surfaces share a trnode, so the mapping is the composition
// of the clipper's axis map with the inverse of o's. The clipper's map is
// derived here from its Phase-0 matrix rather than read from its Phase-1
// state, which may not have settled on another worker yet.
func (o *Object) relativeBox(c *Object) (mn, mx linear.V3, ok bool) {
	if !o.AxisOK {
		return mn, mx, false
	}
	cam, ok := c.Mtx.ExtractAxisMap()
	if !ok {
		return mn, mx, false
	}
	bmn, bmx, ok := c.carveBox()
	if !ok {
		return mn, mx, false
	}
	mn = linear.Splat(+linear.Inf)
	mx = linear.Splat(-linear.Inf)
	for i := range 8 {
		p := mapToFrame(cam, c.Mtx.Pos(), boxCorner(bmn, bmx, i))
		q := mapFromFrame(o.Axis, o.Mtx.Pos(), p)
		mn = mn.Min(q)
		mx = mx.Max(q)
	}
	return mn, mx, true
}

// carveBox returns the largest axis-aligned box guaranteed to lie inside
// the clipper's volume. Every point of it is carved away from a surface
// the clipper subtracts, so cutting by it can only loosen, never lose,
// the bounding box. Shapes without a useful inscribed box contribute
// nothing.
func (c *Object) carveBox() (mn, mx linear.V3, ok bool) {
	const sqrt2, sqrt3 = 1.41421356, 1.73205081
	switch c.Tag {
	case scene.Sphere:
		h := linear.Abs(c.Rad) / sqrt3
		return linear.Splat(-h), linear.Splat(h), true
	case scene.Cylinder:
		h := linear.Abs(c.Rad) / sqrt2
		mn = linear.V3{-h, -h, c.SMin[2]}
		mx = linear.V3{h, h, c.SMax[2]}
		return mn, mx, true
	}
	return mn, mx, false
}

// mapToFrame maps a local point into the shared trnode (or world) frame
// through an axis map and translation.
func mapToFrame(am linear.AxisMap, pos, p linear.V3) linear.V3 {
	var q linear.V3
	for i := range 3 {
		q[am.Map[i]] = p[i] * am.Sgn[i] * am.Scl[i]
	}
	return q.Add(pos)
}

// mapFromFrame maps a shared-frame point into the local frame.
func mapFromFrame(am linear.AxisMap, pos, p linear.V3) linear.V3 {
	p = p.Sub(pos)
	var q linear.V3
	for i := range 3 {
		q[i] = p[am.Map[i]] * am.Sgn[i] / am.Scl[i]
	}
	return q
}

// adjustMinmax applies the shape-specific clamp to a source box and
// returns the bounding box and the clipping box. Clipping box components
// become infinite wherever the source does not actually clip the shape.
func (o *Object) adjustMinmax(smin, smax linear.V3) (bmin, bmax, cmin, cmax linear.V3) {
	bmin, bmax = smin, smax
	cmin, cmax = smin, smax

	// clampIJ clamps the two radial axes to +-r and opens the clipping
	// box where the source exceeds the radius.
	clampIJ := func(r float32) {
		for _, k := range [2]int{0, 1} {
			if smin[k] <= -r {
				bmin[k] = -r
				cmin[k] = -linear.Inf
			}
			if smax[k] >= r {
				bmax[k] = r
				cmax[k] = linear.Inf
			}
		}
	}

	switch o.Tag {
	case scene.Plane:
		bmin[2], bmax[2] = 0, 0
		cmin[2], cmax[2] = -linear.Inf, linear.Inf

	case scene.Cylinder:
		clampIJ(linear.Abs(o.Rad))

	case scene.Sphere:
		r := linear.Abs(o.Rad)
		for k := range 3 {
			if smin[k] <= -r {
				bmin[k] = -r
				cmin[k] = -linear.Inf
			}
			if smax[k] >= r {
				bmax[k] = r
				cmax[k] = linear.Inf
			}
		}
		// A slab on one axis shrinks the reachable radius on the
		// other two.
		for k := range 3 {
			top := float32(0)
			if bmin[k] > 0 {
				top = bmin[k]
			} else if bmax[k] < 0 {
				top = -bmax[k]
			}
			if top == 0 {
				continue
			}
			var eff float32
			if top < r {
				eff = linear.Sqrt(r*r - top*top)
			}
			for _, a := range [2]int{(k + 1) % 3, (k + 2) % 3} {
				if bmin[a] < -eff {
					bmin[a] = -eff
				}
				if bmax[a] > eff {
					bmax[a] = eff
				}
			}
		}

	case scene.Cone:
		top := max(linear.Abs(smin[2]), linear.Abs(smax[2]))
		clampIJ(top * linear.Abs(o.Rat))

	case scene.Paraboloid:
		var top float32
		if o.Par > 0 {
			bmin[2] = max(smin[2], 0)
			top = smax[2]
		} else {
			bmax[2] = min(smax[2], 0)
			top = -smin[2]
		}
		if top < 0 {
			top = 0
		}
		clampIJ(linear.Sqrt(top * linear.Abs(o.Par)))

	case scene.Hyperboloid:
		top := max(linear.Abs(smin[2]), linear.Abs(smax[2]))
		clampIJ(linear.Sqrt(top*top*o.Rat*o.Rat + o.Hyp))
	}
	return bmin, bmax, cmin, cmax
}

// genVerts produces the bounding polyhedron when the bounding box is
// finite: 4 vertices, 4 edges, and 1 face for a plane, the full box
// (8/12/6) for clipped quadrics. Surfaces extending to infinity keep an
// empty vertex set and participate in intersection over their analytic
// extent via the clipping box alone.
//
// Vertices are produced in world space. Under a non-self trnode the edge
// and face axis labels are set to NoAxis; otherwise they keep the local
// dominant axis for the tile projector.
func (o *Object) genVerts() error {
	o.Verts = o.Verts[:0]
	o.Edges = o.Edges[:0]
	o.Faces = o.Faces[:0]
	if !o.BMin.IsFinite() || !o.BMax.IsFinite() {
		return nil
	}

	w := o.WorldMtx()
	axis := func(local int) int {
		if o.Trnode != nil && o.Trnode != o {
			return NoAxis
		}
		return local
	}

	if o.Tag == scene.Plane {
		for _, c := range [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
			p := linear.V3{o.BMin[0], o.BMin[1], 0}
			if c[0] != 0 {
				p[0] = o.BMax[0]
			}
			if c[1] != 0 {
				p[1] = o.BMax[1]
			}
			o.Verts = append(o.Verts, Vert{P: w.MulPoint(p)})
		}
		o.Edges = append(o.Edges,
			Edge{0, 1, axis(0)}, Edge{1, 2, axis(1)},
			Edge{2, 3, axis(0)}, Edge{3, 0, axis(1)})
		o.Faces = append(o.Faces, Face{V: [4]int{0, 1, 2, 3}, Axis: axis(2)})
	} else {
		for c := range 8 {
			p := boxCorner(o.BMin, o.BMax, c)
			o.Verts = append(o.Verts, Vert{P: w.MulPoint(p)})
		}
		// Box edges along each local axis.
		for _, e := range [12][3]int{
			{0, 1, 0}, {2, 3, 0}, {4, 5, 0}, {6, 7, 0},
			{0, 2, 1}, {1, 3, 1}, {4, 6, 1}, {5, 7, 1},
			{0, 4, 2}, {1, 5, 2}, {2, 6, 2}, {3, 7, 2},
		} {
			o.Edges = append(o.Edges, Edge{e[0], e[1], axis(e[2])})
		}
		for _, f := range [6]struct {
			v [4]int
			a int
		}{
			{[4]int{0, 2, 6, 4}, 0}, {[4]int{1, 3, 7, 5}, 0},
			{[4]int{0, 1, 5, 4}, 1}, {[4]int{2, 3, 7, 6}, 1},
			{[4]int{0, 1, 3, 2}, 2}, {[4]int{4, 5, 7, 6}, 2},
		} {
			o.Faces = append(o.Faces, Face{V: f.v, Axis: axis(f.a)})
		}
	}

	if len(o.Verts) > VertsLimit || len(o.Edges) > EdgesLimit || len(o.Faces) > FacesLimit {
		return fmt.Errorf("%w: surface %d produced %d/%d/%d parts",
			ErrLimitExceeded, o.Seq, len(o.Verts), len(o.Edges), len(o.Faces))
	}
	return nil
}

// updateSphere computes the world-space bounding sphere: the vertex
// centroid and the maximum vertex distance. Unbounded surfaces get an
// infinite radius centered on the surface origin.
func (o *Object) updateSphere() {
	if len(o.Verts) == 0 {
		o.Mid = o.WorldMtx().Pos()
		o.SphRad = linear.Inf
		return
	}
	var c linear.V3
	for _, v := range o.Verts {
		c = c.Add(v.P)
	}
	c = c.Scale(1 / float32(len(o.Verts)))
	var r float32
	for _, v := range o.Verts {
		if d := v.P.Sub(c).Len(); d > r {
			r = d
		}
	}
	o.Mid, o.SphRad = c, r
}
