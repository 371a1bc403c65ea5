package quadray

import (
	"log/slog"

	"github.com/gogpu/quadray/internal/tracer"
	"github.com/gogpu/quadray/object"
)

// Opts is the engine option bitmask. The low bits steer the update
// pipeline; OptStatic adds the static-scene frame optimization.
type Opts = object.Opts

// Engine option bits.
const (
	// OptFscale keeps non-trivial scale on the axis-map path.
	OptFscale = object.OptFscale

	// OptTarray enables transform caching through trnode arrays.
	OptTarray = object.OptTarray

	// OptAdjust enables clipper-driven bounding box tightening.
	OptAdjust = object.OptAdjust

	// OptStatic skips the update phases after the first frame for
	// scenes with no animations, until a camera action arrives.
	OptStatic Opts = 1 << 8
)

// DefaultOpts enables the update optimizations and leaves OptStatic off.
const DefaultOpts = object.DefaultOpts

// Fsaa selects full-screen antialiasing.
type Fsaa = tracer.Mode

// FSAA modes.
const (
	FsaaNo = tracer.FsaaNo
	Fsaa4x = tracer.Fsaa4x
)

// Action is one camera input for Update.
type Action = object.Action

// Camera actions.
const (
	ActNone        = object.ActNone
	ActMoveLeft    = object.ActMoveLeft
	ActMoveRight   = object.ActMoveRight
	ActMoveForward = object.ActMoveForward
	ActMoveBack    = object.ActMoveBack
	ActMoveUp      = object.ActMoveUp
	ActMoveDown    = object.ActMoveDown
	ActRotLeft     = object.ActRotLeft
	ActRotRight    = object.ActRotRight
	ActRotUp       = object.ActRotUp
	ActRotDown     = object.ActRotDown
)

// Option configures a Scene during creation.
//
// Example:
//
//	// Default configuration.
//	s, err := quadray.New(lit, 800, 480)
//
//	// Four workers, two bounces, 4X antialiasing.
//	s, err := quadray.New(lit, 800, 480,
//	    quadray.WithThreads(4),
//	    quadray.WithDepth(2),
//	    quadray.WithFsaa(quadray.Fsaa4x))
type Option func(*config)

// config holds optional configuration for Scene creation.
type config struct {
	threads     int
	depth       int
	fsaa        Fsaa
	simdWidth   int
	simdVariant int
	opts        Opts
	framePix    []uint32
	savePrefix  string
	logger      *slog.Logger
}

// defaultConfig returns the default scene configuration.
func defaultConfig() config {
	return config{
		threads:     0, // GOMAXPROCS
		depth:       1,
		fsaa:        FsaaNo,
		simdWidth:   8,
		simdVariant: 1,
		opts:        DefaultOpts,
		savePrefix:  "quadray",
	}
}

// WithThreads sets the render worker count. Zero or negative selects
// GOMAXPROCS.
func WithThreads(n int) Option {
	return func(c *config) { c.threads = n }
}

// WithDepth sets the ray bounce cap. Zero disables reflection and
// refraction.
func WithDepth(n int) Option {
	return func(c *config) { c.depth = n }
}

// WithFsaa sets the initial antialiasing mode.
func WithFsaa(m Fsaa) Option {
	return func(c *config) { c.fsaa = m }
}

// WithSimd requests a packet width and backend subvariant. The closest
// registered backend is selected; query the result with Scene.Simd.
func WithSimd(width, variant int) Option {
	return func(c *config) { c.simdWidth, c.simdVariant = width, variant }
}

// WithOpts sets the engine option bitmask.
func WithOpts(o Opts) Option {
	return func(c *config) { c.opts = o }
}

// WithFrameBuffer renders into a caller-owned pixel slice. It must hold
// at least stride*height pixels, where stride is the width rounded up to
// the packet width.
func WithFrameBuffer(pix []uint32) Option {
	return func(c *config) { c.framePix = pix }
}

// WithSavePrefix sets the filename prefix used by SaveFrame.
func WithSavePrefix(prefix string) Option {
	return func(c *config) { c.savePrefix = prefix }
}

// WithLogger sets the scene's logger without touching the package-level
// one.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}
