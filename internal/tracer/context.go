package tracer

import (
	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/internal/tiler"
	"github.com/gogpu/quadray/object"
)

// Context is the read-only per-frame scene view handed to every worker's
// tracer: camera projection, tile grid, global lists, and the output
// framebuffer. Workers write disjoint pixel regions, so the frame slice
// is shared without locking.
type Context struct {
	View tiler.View
	Grid *tiler.Grid

	// Surfaces is the global scene-order surface list, used by shadow
	// packets which are not screen-aligned and so cannot reuse the
	// tile lists.
	Surfaces []*object.Object

	// Lights is the frame's sorted light list.
	Lights []*object.Object

	// Ambient is the camera's global ambient color.
	Ambient linear.V3

	// Depth caps reflection/refraction recursion; 0 disables bounces.
	Depth int

	Fsaa Mode

	// Frame is the 32bpp XRGB output, Stride pixels per row.
	Frame  []uint32
	Stride int
}
