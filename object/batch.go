package object

import "github.com/gogpu/quadray/internal/linear"

// Batch is the per-surface side-car consumed by the packet tracer.
//
// Phase 1 writes it after the boxes and matrices settle; the tracer reads
// it without ever touching the node itself. Map bytes carry the trnode
// offset convention: +3 when the surface sits under a transform node, so
// the backend can branch on a single byte compare.
type Batch struct {
	Tag uint8

	// MapB and Sgn express the local-to-trnode signed axis permutation.
	// MapB[i] is the target axis, plus TrnodeMapOffset when Trnode is
	// non-nil.
	MapB [3]uint8
	Sgn  [3]float32

	// Scl is the positive per-axis scale of the permutation; Pos the
	// translation, both in trnode (or world) space.
	Scl linear.V3
	Pos linear.V3

	// Inv is the trnode's inverse matrix, nil when the surface is
	// axis-aligned relative to world.
	Inv *linear.M4

	// Local clipping and bounding boxes.
	CMin, CMax linear.V3
	BMin, BMax linear.V3

	// Shape scalars.
	Rad, Rat, Par, Hyp float32

	Outer, Inner *Material

	// Tile is the head of the per-frame screen-tile list, owned by the
	// tiler and zeroed here at the end of Phase 1.
	Tile any
}

// TrnodeMapOffset is added to Batch.MapB entries when the surface's frame
// is relative to a transform node rather than to world.
const TrnodeMapOffset = 3

// fillBatch writes the side-car from the node's settled Phase-1 state.
//
// The transform encoding is one of three forms: a node that is its own
// trnode carries only its full inverse, under an identity map; a node
// under an ancestor trnode carries that trnode's inverse plus its own
// trnode-relative axis map; an axis-aligned node carries the axis map
// alone.
func (o *Object) fillBatch() {
	b := &o.Batch
	b.Tag = uint8(o.Tag)

	identity := func(off uint8) {
		for i := range 3 {
			b.MapB[i] = uint8(i) + off
			b.Sgn[i] = 1
		}
		b.Scl = linear.Splat(1)
		b.Pos = linear.V3{}
	}
	axis := func(off uint8) {
		if !o.AxisOK {
			identity(off)
			return
		}
		for i := range 3 {
			b.MapB[i] = uint8(o.Axis.Map[i]) + off
			b.Sgn[i] = o.Axis.Sgn[i]
		}
		b.Scl = o.Axis.Scl
		b.Pos = o.Mtx.Pos()
	}

	switch {
	case o.Trnode == o:
		// The inverse already lands in local coordinates.
		b.Inv = &o.Inv
		identity(TrnodeMapOffset)
	case o.Trnode != nil:
		b.Inv = &o.Trnode.Inv
		axis(TrnodeMapOffset)
	default:
		b.Inv = nil
		axis(0)
	}
	b.CMin, b.CMax = o.CMin, o.CMax
	b.BMin, b.BMax = o.BMin, o.BMax
	b.Rad, b.Rat, b.Par, b.Hyp = o.Rad, o.Rat, o.Par, o.Hyp
	b.Outer, b.Inner = o.Outer, o.Inner
	b.Tile = nil
}
