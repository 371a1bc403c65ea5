// Package tiler builds the per-frame screen tile grid: for every tile,
// the list of surfaces whose projected bounding polyhedron touches it,
// sorted front to back.
//
// Binning runs per worker over a slice of the scene's surface list into a
// worker-owned Binner; the coordinator then merges the binners into the
// shared Grid in worker order, so the pre-sort order depends on how the
// surfaces were partitioned. The subsequent per-tile sort keys on depth,
// bounding sphere, and insertion sequence, so the final order is
// deterministic regardless of the thread partition.
package tiler

import (
	"sort"

	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/object"
)

// Tile dimensions in pixels. A full SIMD packet row maps onto one tile
// row, and tracing is heavy enough per pixel that small tiles balance
// better across workers than raster-style 64x64 tiles would.
const (
	TileW = 16
	TileH = 16
)

// ClipThreshold is the near-plane distance; rays and projections ignore
// everything closer. Cameras must keep pov >= 2*ClipThreshold.
const ClipThreshold = 1.0 / 64

// View is the camera-derived projection setup for one frame.
type View struct {
	// Pos is the camera position; Hor, Ver, Nrm the image-plane basis.
	Pos, Hor, Ver, Nrm linear.V3

	// Pov is the focal distance, Factor the world-unit width of one
	// pixel on the image plane.
	Pov    float32
	Factor float32

	Xres, Yres int
}

// NewView builds the frame's view from the camera basis. The image plane
// sits pov along the normal and spans 2*pov horizontally (90 degree
// horizontal field), scaled vertically by the aspect ratio.
func NewView(pos, hor, ver, nrm linear.V3, pov float32, xres, yres int) View {
	return View{
		Pos: pos, Hor: hor, Ver: ver, Nrm: nrm,
		Pov:    pov,
		Factor: 2 * pov / float32(xres),
		Xres:   xres, Yres: yres,
	}
}

// Org returns the world position of the screen origin (pixel 0,0 corner).
func (v *View) Org() linear.V3 {
	o := v.Pos.Add(v.Nrm.Scale(v.Pov))
	o = o.Sub(v.Hor.Scale(float32(v.Xres) * v.Factor / 2))
	return o.Sub(v.Ver.Scale(float32(v.Yres) * v.Factor / 2))
}

// RayDir returns the unnormalized primary ray direction through the
// pixel sample (px, py) given in fractional pixel coordinates.
func (v *View) RayDir(px, py float32) linear.V3 {
	d := v.Nrm.Scale(v.Pov)
	d = d.Add(v.Hor.Scale((px - float32(v.Xres)/2) * v.Factor))
	return d.Add(v.Ver.Scale((py - float32(v.Yres)/2) * v.Factor))
}

// project maps a world point onto fractional pixel coordinates.
// ok is false when the point is on or behind the near plane.
func (v *View) project(p linear.V3) (x, y float32, ok bool) {
	rel := p.Sub(v.Pos)
	z := rel.Dot(v.Nrm)
	if z <= ClipThreshold {
		return 0, 0, false
	}
	s := v.Pov / z
	x = rel.Dot(v.Hor)*s/v.Factor + float32(v.Xres)/2
	y = rel.Dot(v.Ver)*s/v.Factor + float32(v.Yres)/2
	return x, y, true
}

// Grid is the shared per-frame tile grid.
type Grid struct {
	Cols, Rows int
	Lists      [][]*object.Object
}

// NewGrid creates a grid covering xres x yres pixels.
func NewGrid(xres, yres int) *Grid {
	cols := (xres + TileW - 1) / TileW
	rows := (yres + TileH - 1) / TileH
	return &Grid{Cols: cols, Rows: rows, Lists: make([][]*object.Object, cols*rows)}
}

// Reset truncates every tile list, keeping capacity for the next frame.
func (g *Grid) Reset() {
	for i := range g.Lists {
		g.Lists[i] = g.Lists[i][:0]
	}
}

// At returns the tile list at tile coordinates (tx, ty).
func (g *Grid) At(tx, ty int) []*object.Object {
	return g.Lists[ty*g.Cols+tx]
}

// Binner is a worker-owned tile buffer. Each worker bins its slice of
// the surface list here; Merge concatenates binners into the Grid.
type Binner struct {
	cols, rows int
	lists      [][]*object.Object

	// Per-row column ranges reused across surfaces.
	txmin, txmax []int
}

// NewBinner creates a binner matching the grid dimensions.
func NewBinner(g *Grid) *Binner {
	return &Binner{
		cols:  g.Cols,
		rows:  g.Rows,
		lists: make([][]*object.Object, g.Cols*g.Rows),
		txmin: make([]int, g.Rows),
		txmax: make([]int, g.Rows),
	}
}

// Reset truncates the binner's tile lists.
func (b *Binner) Reset() {
	for i := range b.lists {
		b.lists[i] = b.lists[i][:0]
	}
}

// Bin adds every surface in surfs to the tiles its projected bounding
// polyhedron touches. Surfaces without a polyhedron extend to infinity
// and are conservatively added to every tile. Footprints entirely
// off-screen produce no insertions.
func (b *Binner) Bin(v *View, surfs []*object.Object) {
	for _, s := range surfs {
		b.binSurface(v, s)
	}
}

func (b *Binner) binSurface(v *View, s *object.Object) {
	if len(s.Verts) == 0 {
		for i := range b.lists {
			b.lists[i] = append(b.lists[i], s)
		}
		return
	}

	for r := range b.rows {
		b.txmin[r] = b.cols
		b.txmax[r] = -1
	}

	// Scan every polyhedron edge into per-tile-row column ranges.
	// The projected footprint of a convex polyhedron is convex, so
	// between edge crossings each covered row is fully spanned.
	any := false
	for _, e := range s.Edges {
		p1 := s.Verts[e.V0].P
		p2 := s.Verts[e.V1].P
		if b.edgeSpan(v, p1, p2) {
			any = true
		}
	}
	if !any {
		return
	}

	for r := range b.rows {
		if b.txmax[r] < b.txmin[r] {
			continue
		}
		for c := b.txmin[r]; c <= b.txmax[r]; c++ {
			i := r*b.cols + c
			b.lists[i] = append(b.lists[i], s)
		}
	}
}

// edgeSpan projects the segment p1-p2, clipping it against the near
// plane, and widens the per-row column ranges it crosses. Reports
// whether any part of the segment was on-screen.
func (b *Binner) edgeSpan(v *View, p1, p2 linear.V3) bool {
	z1 := p1.Sub(v.Pos).Dot(v.Nrm)
	z2 := p2.Sub(v.Pos).Dot(v.Nrm)
	const near = ClipThreshold * 1.0001
	if z1 <= ClipThreshold && z2 <= ClipThreshold {
		return false
	}
	if z1 <= ClipThreshold {
		t := (near - z1) / (z2 - z1)
		p1 = p1.Add(p2.Sub(p1).Scale(t))
	} else if z2 <= ClipThreshold {
		t := (near - z2) / (z1 - z2)
		p2 = p2.Add(p1.Sub(p2).Scale(t))
	}
	x1, y1, ok1 := v.project(p1)
	x2, y2, ok2 := v.project(p2)
	if !ok1 || !ok2 {
		return false
	}
	return b.lineSpan(x1, y1, x2, y2)
}

// lineSpan rasterizes a screen-space segment into the row ranges.
func (b *Binner) lineSpan(x1, y1, x2, y2 float32) bool {
	if y1 > y2 {
		x1, x2 = x2, x1
		y1, y2 = y2, y1
	}
	r1 := int(y1) / TileH
	r2 := int(y2) / TileH
	if y1 < 0 {
		r1 = int(y1-TileH+1) / TileH
	}
	if y2 < 0 {
		r2 = int(y2-TileH+1) / TileH
	}
	if r2 < 0 || r1 >= b.rows {
		// May still be visible horizontally off-row; nothing to add.
		return false
	}
	onScreen := false
	for r := max(r1, 0); r <= min(r2, b.rows-1); r++ {
		// X extent of the segment within this tile row.
		ylo := max(float32(r*TileH), y1)
		yhi := min(float32((r+1)*TileH), y2)
		xa, xb := x1, x2
		if y2 != y1 {
			xa = x1 + (x2-x1)*(ylo-y1)/(y2-y1)
			xb = x1 + (x2-x1)*(yhi-y1)/(y2-y1)
		}
		if xa > xb {
			xa, xb = xb, xa
		}
		if xb < 0 || xa >= float32(b.cols*TileW) {
			continue
		}
		c1 := int(max(xa, 0)) / TileW
		c2 := int(min(xb, float32(b.cols*TileW)-1)) / TileW
		if c1 < b.txmin[r] {
			b.txmin[r] = c1
		}
		if c2 > b.txmax[r] {
			b.txmax[r] = c2
		}
		onScreen = true
	}
	return onScreen
}

// Merge concatenates worker binners into the grid in the order given.
// The result is in scene order only when the binners cover contiguous
// scene slices in order; SortTile makes the final order independent of it.
func Merge(g *Grid, binners []*Binner) {
	for _, b := range binners {
		for i := range g.Lists {
			g.Lists[i] = append(g.Lists[i], b.lists[i]...)
		}
	}
}

// SortTile orders one tile's list front to back: by the near distance of
// the bounding sphere along the view normal, then by smaller sphere, then
// by scene sequence. The comparator is total, so the result does not
// depend on the pre-sort order.
func SortTile(list []*object.Object, v *View) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		da := a.Mid.Sub(v.Pos).Dot(v.Nrm) - a.SphRad
		db := b.Mid.Sub(v.Pos).Dot(v.Nrm) - b.SphRad
		if da != db {
			return da < db
		}
		if a.SphRad != b.SphRad {
			return a.SphRad < b.SphRad
		}
		return a.Seq < b.Seq
	})
}

// SortLights orders lights for shading: nearer and stronger sources
// first. The slice is sorted in place.
func SortLights(lights []*object.Object, pos linear.V3) {
	sort.SliceStable(lights, func(i, j int) bool {
		a, b := lights[i], lights[j]
		la := max(a.Lum[1], 1e-6)
		lb := max(b.Lum[1], 1e-6)
		da := a.Mtx.Pos().Sub(pos).Len() / la
		db := b.Mtx.Pos().Sub(pos).Len() / lb
		if da != db {
			return da < db
		}
		return a.Seq < b.Seq
	})
}
