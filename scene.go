// Package quadray is an offline/interactive CPU ray tracer for scenes of
// analytic primitives (plane, sphere, cylinder, cone, paraboloid,
// hyperboloid) assembled into a hierarchical, animatable object tree with
// constructive subtraction and bounding-volume grouping.
//
// A Scene is built from a scene literal (package scene), rendered frame
// by frame with Render, and steered with camera actions via Update. Each
// frame runs the two-phase update pipeline, the per-thread tile binning
// and sorting, and the packetized tracer across a worker pool.
package quadray

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/internal/tiler"
	"github.com/gogpu/quadray/internal/tracer"
	"github.com/gogpu/quadray/object"
	"github.com/gogpu/quadray/scene"
)

// Scene is a constructed, renderable scene: the object tree, its
// registries, the frame buffer, and the worker pool. A Scene is not safe
// for concurrent use; drive it from one goroutine.
type Scene struct {
	reg  *object.Registry
	root *object.Object

	frame *Frame
	pool  *workerPool
	thnum int

	depth int
	fsaa  Fsaa
	opts  Opts

	simdW, simdV int
	tracers      []tracer.PacketTracer

	grid    *tiler.Grid
	binners []*tiler.Binner
	lights  []*object.Object

	camIdx   int
	lastTime float64
	first    bool
	dirty    bool
	animated bool

	saveIdx    int
	savePrefix string

	log *slog.Logger
}

// New constructs a scene from a literal. The framebuffer is width x
// height with the row stride aligned to the selected packet width.
// Construction errors abort creation; no partial scene survives.
func New(def *scene.Def, width, height int, options ...Option) (*Scene, error) {
	cfg := defaultConfig()
	for _, o := range options {
		o(&cfg)
	}

	reg := object.NewRegistry()
	root, err := reg.Build(def)
	if err != nil {
		return nil, err
	}
	if len(reg.Cameras) == 0 {
		return nil, fmt.Errorf("%w: scene has no camera", ErrMalformedScene)
	}
	for _, cam := range reg.Cameras {
		if cam.Pov < 2*tiler.ClipThreshold {
			return nil, fmt.Errorf("%w: camera pov %v below minimum %v",
				ErrMalformedScene, cam.Pov, 2*tiler.ClipThreshold)
		}
	}

	fn, sw, sv, err := tracer.Resolve(cfg.simdWidth, cfg.simdVariant)
	if err != nil {
		return nil, err
	}

	frame, err := NewFrame(width, height, sw, cfg.framePix)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		reg:        reg,
		root:       root,
		frame:      frame,
		pool:       newWorkerPool(cfg.threads),
		depth:      cfg.depth,
		fsaa:       cfg.fsaa,
		opts:       cfg.opts,
		simdW:      sw,
		simdV:      sv,
		grid:       tiler.NewGrid(width, height),
		first:      true,
		savePrefix: cfg.savePrefix,
		log:        cfg.logger,
	}
	s.thnum = s.pool.workers
	s.tracers = make([]tracer.PacketTracer, s.thnum)
	for i := range s.tracers {
		s.tracers[i] = fn()
	}
	s.binners = make([]*tiler.Binner, s.thnum)
	for i := range s.binners {
		s.binners[i] = tiler.NewBinner(s.grid)
	}

	for _, lists := range [][]*object.Object{reg.Arrays, reg.Surfaces, reg.Cameras, reg.Lights} {
		for _, o := range lists {
			if o.Anim != nil {
				s.animated = true
			}
		}
	}

	// Compose matrices and build relation lists once so camera actions
	// work before the first frame and malformed relations fail here
	// rather than mid-render. Equal time and prev keep animations from
	// firing.
	if err := object.UpdateScene(root, 0, 0, cfg.opts, reg); err != nil {
		s.pool.close()
		return nil, err
	}

	s.logger().Info("scene constructed",
		"surfaces", len(reg.Surfaces),
		"lights", len(reg.Lights),
		"cameras", len(reg.Cameras),
		"threads", s.thnum,
		"simd", sw)
	return s, nil
}

// logger returns the scene's logger override, or the package logger.
func (s *Scene) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return Logger()
}

// Close tears down the worker pool and restores the literal's
// transforms. The scene must not be used afterwards.
func (s *Scene) Close() {
	s.pool.close()
	s.reg.Free()
}

// Update applies one camera action and marks the scene dirty. The
// action's magnitude comes from the camera's per-unit-time deltas scaled
// by the time elapsed since the last rendered frame.
func (s *Scene) Update(t float64, act Action) {
	if act == ActNone {
		return
	}
	dt := float32(t - s.lastTime)
	if dt <= 0 {
		dt = 1.0 / 60
	}
	s.reg.Cameras[s.camIdx].CamApply(act, dt)
	s.dirty = true
}

// Render drives a full frame at the given time: Phase 0, Phase 1 in
// parallel, tile binning and sorting in parallel, then the packet tracer
// per tile. A worker failure aborts the frame with ErrWorkerFailure; the
// scene stays valid for the next frame.
func (s *Scene) Render(t float64) error {
	start := time.Now()

	static := s.opts&OptStatic != 0 && !s.animated && !s.dirty && !s.first
	if !static {
		prev := s.lastTime
		if s.first {
			// Force animation evaluation on the first frame even when
			// it renders at the same time the scene was built at.
			prev = t - 1
		}
		if err := object.UpdateScene(s.root, t, prev, s.opts, s.reg); err != nil {
			return err
		}
		if err := s.pool.runPhase(s.phase1Work()); err != nil {
			s.logger().Warn("frame aborted in update phase", "err", err)
			return err
		}
	}
	s.lastTime = t
	s.first = false
	s.dirty = false

	cam := s.reg.Cameras[s.camIdx]
	hor, ver, nrm := cam.CamBasis()
	view := tiler.NewView(cam.Mtx.Pos(), hor, ver, nrm, cam.Pov,
		s.frame.width, s.frame.height)

	// Tiling: each worker bins a strided slice of the surface list into
	// its own buffer; the coordinator merges in worker order.
	s.grid.Reset()
	work := make([]func() error, s.thnum)
	for i := range s.thnum {
		i := i
		work[i] = func() error {
			s.binners[i].Reset()
			s.binners[i].Bin(&view, strided(s.reg.Surfaces, i, s.thnum))
			return nil
		}
	}
	if err := s.pool.runPhase(work); err != nil {
		s.logger().Warn("frame aborted in tiling phase", "err", err)
		return err
	}
	tiler.Merge(s.grid, s.binners)

	// Sorting and light ordering.
	s.lights = append(s.lights[:0], s.reg.Lights...)
	tiler.SortLights(s.lights, view.Pos)
	for i := range s.thnum {
		i := i
		work[i] = func() error {
			for ti := i; ti < len(s.grid.Lists); ti += s.thnum {
				tiler.SortTile(s.grid.Lists[ti], &view)
			}
			return nil
		}
	}
	if err := s.pool.runPhase(work); err != nil {
		s.logger().Warn("frame aborted in sorting phase", "err", err)
		return err
	}

	ctx := &tracer.Context{
		View:     view,
		Grid:     s.grid,
		Surfaces: s.reg.Surfaces,
		Lights:   s.lights,
		Ambient:  cam.Ambient,
		Depth:    s.depth,
		Fsaa:     s.fsaa,
		Frame:    s.frame.pix,
		Stride:   s.frame.stride,
	}

	// Tracing: worker i owns every thnum-th tile.
	for i := range s.thnum {
		i := i
		work[i] = func() error {
			tr := s.tracers[i]
			for ti := i; ti < len(s.grid.Lists); ti += s.thnum {
				tr.TraceTile(ctx, ti%s.grid.Cols, ti/s.grid.Cols)
			}
			return nil
		}
	}
	if err := s.pool.runPhase(work); err != nil {
		s.logger().Warn("frame aborted in trace phase", "err", err)
		return err
	}

	s.logger().Debug("frame rendered",
		"time", t,
		"elapsed", time.Since(start),
		"static", static)
	return nil
}

// phase1Work slices the surface and array lists across workers.
func (s *Scene) phase1Work() []func() error {
	work := make([]func() error, s.thnum)
	for i := range s.thnum {
		i := i
		work[i] = func() error {
			for _, o := range strided(s.reg.Surfaces, i, s.thnum) {
				if err := o.Recalc(s.opts); err != nil {
					return err
				}
			}
			for _, o := range strided(s.reg.Arrays, i, s.thnum) {
				if err := o.Recalc(s.opts); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return work
}

// strided returns the i-th of n interleaved slices of objs.
func strided(objs []*object.Object, i, n int) []*object.Object {
	var out []*object.Object
	for j := i; j < len(objs); j += n {
		out = append(out, objs[j])
	}
	return out
}

// SetFsaa sets the antialiasing mode and returns the selected value.
// Setting the current mode is a no-op that does not touch the frame.
func (s *Scene) SetFsaa(m Fsaa) Fsaa {
	if m != FsaaNo && m != Fsaa4x {
		m = FsaaNo
	}
	s.fsaa = m
	return s.fsaa
}

// SetOpts replaces the engine option bitmask and returns it. Turning
// update optimizations on or off takes effect next frame.
func (s *Scene) SetOpts(o Opts) Opts {
	s.opts = o
	s.dirty = true
	return s.opts
}

// SetSimd requests a packet width and subvariant and returns the pair
// actually selected: the exact match when registered, otherwise the
// closest supported one. ErrUnsupportedTarget only when no backend
// exists at all.
func (s *Scene) SetSimd(width, variant int) (int, int, error) {
	fn, w, v, err := tracer.Resolve(width, variant)
	if err != nil {
		return 0, 0, err
	}
	if w != width || v != variant {
		s.logger().Warn("simd request adjusted",
			"requested_width", width, "selected_width", w,
			"requested_variant", variant, "selected_variant", v)
	}
	s.simdW, s.simdV = w, v
	for i := range s.tracers {
		s.tracers[i] = fn()
	}
	return w, v, nil
}

// Simd returns the active (width, variant) pair.
func (s *Scene) Simd() (int, int) {
	return s.simdW, s.simdV
}

// SimdSelections lists every registered backend pair in registration
// order, for explicit cycling.
func (s *Scene) SimdSelections() []tracer.Selection {
	return tracer.Selections()
}

// Frame returns the frame buffer.
func (s *Scene) Frame() *Frame {
	return s.frame
}

// XRow returns one finished row of pixels.
func (s *Scene) XRow(y int) []uint32 {
	return s.frame.Row(y)
}

// SaveFrame writes the frame buffer as "<prefix><index>.png" and
// returns the path.
func (s *Scene) SaveFrame(index int) (string, error) {
	path := fmt.Sprintf("%s%04d.png", s.savePrefix, index)
	if err := s.frame.SavePNG(path); err != nil {
		return "", err
	}
	s.logger().Info("frame saved", "path", path)
	return path, nil
}

// NextSaveIndex returns a monotonically increasing save index.
func (s *Scene) NextSaveIndex() int {
	i := s.saveIdx
	s.saveIdx++
	return i
}

// NextCamera cycles to the next camera in registry order and returns its
// index. The switch dirties the scene so the update phases rerun.
func (s *Scene) NextCamera() int {
	s.camIdx = (s.camIdx + 1) % len(s.reg.Cameras)
	s.dirty = true
	s.logger().Info("camera switched", "index", s.camIdx)
	return s.camIdx
}

// Cameras returns the number of cameras in the scene.
func (s *Scene) Cameras() int {
	return len(s.reg.Cameras)
}

// SetCamera selects a camera by index, clamped into range.
func (s *Scene) SetCamera(i int) int {
	if i < 0 {
		i = 0
	}
	if i >= len(s.reg.Cameras) {
		i = len(s.reg.Cameras) - 1
	}
	s.camIdx = i
	s.dirty = true
	return s.camIdx
}

// Threads returns the worker count.
func (s *Scene) Threads() int {
	return s.thnum
}

// CamPos returns the active camera's world position, for state overlays.
func (s *Scene) CamPos() linear.V3 {
	return s.reg.Cameras[s.camIdx].Mtx.Pos()
}
