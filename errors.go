package quadray

import (
	"errors"

	"github.com/gogpu/quadray/internal/arena"
	"github.com/gogpu/quadray/internal/tracer"
	"github.com/gogpu/quadray/object"
)

// Error kinds surfaced by the engine. Construction-time errors abort
// scene creation; per-frame errors abort the frame and leave the scene
// valid for the next one.
var (
	// ErrMalformedScene reports an inconsistent scene literal: a nil
	// required pointer, a bad relation index, an unknown tag where one
	// is not accepted.
	ErrMalformedScene = object.ErrMalformedScene

	// ErrLimitExceeded reports a surface polyhedron over the hard caps.
	ErrLimitExceeded = object.ErrLimitExceeded

	// ErrAllocExhausted reports arena or slab exhaustion.
	ErrAllocExhausted = arena.ErrExhausted

	// ErrUnsupportedTarget reports a SetSimd request no compiled
	// backend supports even approximately.
	ErrUnsupportedTarget = tracer.ErrUnsupportedTarget

	// ErrWorkerFailure reports a worker error; the frame was aborted.
	ErrWorkerFailure = errors.New("quadray: worker failure")
)
