package tracer

import (
	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/internal/tiler"
	"github.com/gogpu/quadray/object"
)

// packetT is the slice-backed packet tracer. One instance per worker;
// recursion scratch is preallocated per bounce level so steady-state
// tracing does not allocate.
type packetT struct {
	w, variant int
	levels     []*level
}

// level is the per-bounce packet state: rays, nearest-hit records, and
// color accumulators, all w lanes wide.
type level struct {
	ox, oy, oz []float32
	dx, dy, dz []float32
	t          []float32
	hit        []int32
	cr, cg, cb []float32
}

func newLevel(w int) *level {
	f := func() []float32 { return make([]float32, w) }
	return &level{
		ox: f(), oy: f(), oz: f(),
		dx: f(), dy: f(), dz: f(),
		t:  f(),
		hit: make([]int32, w),
		cr: f(), cg: f(), cb: f(),
	}
}

func newPacket(w, variant int) *packetT {
	return &packetT{w: w, variant: variant}
}

func (p *packetT) Width() int   { return p.w }
func (p *packetT) Variant() int { return p.variant }

// lvl returns the scratch for a bounce level, growing the stack on first
// use.
func (p *packetT) lvl(i int) *level {
	for len(p.levels) <= i {
		p.levels = append(p.levels, newLevel(p.w))
	}
	return p.levels[i]
}

// fsaaOffsets are the 4X sub-pixel sample positions.
var fsaaOffsets = [4][2]float32{
	{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75},
}

// TraceTile renders one tile: per pixel row, per packet of w adjacent
// pixels, build the primary packet and trace it through the tile's
// surface list. FSAA 4X traces the packet at four sub-pixel offsets and
// averages before the HDR clamp.
func (p *packetT) TraceTile(c *Context, tx, ty int) {
	list := c.Grid.At(tx, ty)
	x0 := tx * tiler.TileW
	y0 := ty * tiler.TileH
	x1 := min(x0+tiler.TileW, c.View.Xres)
	y1 := min(y0+tiler.TileH, c.View.Yres)

	samples := [][2]float32{{0.5, 0.5}}
	if c.Fsaa == Fsaa4x {
		samples = fsaaOffsets[:]
	}
	inv := 1 / float32(len(samples))

	lv := p.lvl(0)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x += p.w {
			n := min(p.w, x1-x)
			mask := laneMask(n)

			var ar, ag, ab [64]float32
			for _, s := range samples {
				for i := range n {
					lv.ox[i] = c.View.Pos[0]
					lv.oy[i] = c.View.Pos[1]
					lv.oz[i] = c.View.Pos[2]
					d := c.View.RayDir(float32(x+i)+s[0], float32(y)+s[1])
					lv.dx[i] = d[0]
					lv.dy[i] = d[1]
					lv.dz[i] = d[2]
				}
				p.trace(c, list, 0, c.Depth, mask)
				for i := range n {
					ar[i] += lv.cr[i]
					ag[i] += lv.cg[i]
					ab[i] += lv.cb[i]
				}
			}
			row := c.Frame[y*c.Stride:]
			for i := range n {
				row[x+i] = packXRGB(ar[i]*inv, ag[i]*inv, ab[i]*inv)
			}
		}
	}
}

func laneMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (1 << n) - 1
}

// packXRGB clamps an HDR color to 8 bits per channel and packs it.
func packXRGB(r, g, b float32) uint32 {
	return 0xff000000 | clamp8(r)<<16 | clamp8(g)<<8 | clamp8(b)
}

func clamp8(v float32) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint32(v*255 + 0.5)
}

// trace intersects the packet at level lv against every surface in list
// in order, tracking the minimum valid t per lane, then shades the
// winning surfaces and recurses through reflection and refraction while
// depth remains. Lanes that miss everything receive the global ambient.
func (p *packetT) trace(c *Context, list []*object.Object, lvi, depth int, mask uint64) {
	lv := p.lvl(lvi)

	for i := range p.w {
		lv.t[i] = linear.Inf
		lv.hit[i] = -1
		lv.cr[i] = c.Ambient[0]
		lv.cg[i] = c.Ambient[1]
		lv.cb[i] = c.Ambient[2]
	}

	for si, s := range list {
		b := &s.Batch
		for i := range p.w {
			if mask&(1<<i) == 0 {
				continue
			}
			o := linear.V3{lv.ox[i], lv.oy[i], lv.oz[i]}
			d := linear.V3{lv.dx[i], lv.dy[i], lv.dz[i]}
			if t, ok := hitSurface(b, s, o, d, tiler.ClipThreshold, lv.t[i]); ok {
				lv.t[i] = t
				lv.hit[i] = int32(si)
			}
		}
	}

	for i := range p.w {
		if mask&(1<<i) == 0 || lv.hit[i] < 0 {
			continue
		}
		s := list[lv.hit[i]]
		r, g, bl := p.shadeLane(c, lv, i, s, lvi, depth)
		lv.cr[i], lv.cg[i], lv.cb[i] = r, g, bl
	}
}
