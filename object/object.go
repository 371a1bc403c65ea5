// Package object implements the scene graph: the node tree built from a
// scene literal, the two-phase update pipeline, relation processing with
// custom clipper lists, and the per-surface constants consumed by the
// packet tracer.
//
// Phase 0 (sequential) composes matrices top-down, resolves trnodes, and
// builds clipper lists. Phase 1 (parallel per node) recomputes bounding
// and clipping boxes, polyhedron vertices, inverses, and the tracer
// side-car. Workers only ever write state owned by their own node.
package object

import (
	"errors"
	"fmt"

	"github.com/gogpu/quadray/internal/arena"
	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/scene"
)

// Errors surfaced by construction and update.
var (
	// ErrMalformedScene reports a nil required pointer, an out-of-range
	// relation index, or an otherwise inconsistent literal.
	ErrMalformedScene = errors.New("object: malformed scene")

	// ErrLimitExceeded reports a generated polyhedron over the hard caps.
	ErrLimitExceeded = errors.New("object: polyhedron limit exceeded")
)

// Hard caps on generated polyhedron parts per surface.
const (
	VertsLimit = 8
	EdgesLimit = 12
	FacesLimit = 6
)

// Opts is the engine configuration bitmask steering the update pipeline.
type Opts uint32

// Update pipeline configuration bits. All are ON in the default
// configuration; clearing one disables the matching optimization.
const (
	// OptFscale keeps non-trivial scale on the axis-map path instead of
	// promoting it to a full matrix transform.
	OptFscale Opts = 1 << iota

	// OptTarray enables transform caching through trnode arrays.
	OptTarray

	// OptAdjust enables clipper-driven bounding box tightening.
	OptAdjust
)

// DefaultOpts enables every update optimization.
const DefaultOpts = OptFscale | OptTarray | OptAdjust

// Transform-presence bits for an object's own transform and for the
// accumulated matrix.
const (
	trmScl uint8 = 1 << iota
	trmRot
)

// Vert is a polyhedron vertex in world space.
type Vert struct {
	P linear.V3
}

// Edge joins two vertex indices. Axis is the dominant local axis label
// (0..2) used by the tile projector, or NoAxis when the surface sits under
// a transform node and labels lose meaning.
type Edge struct {
	V0, V1 int
	Axis   int
}

// Face is a quad of vertex indices with the same axis labeling as Edge.
type Face struct {
	V    [4]int
	Axis int
}

// NoAxis is the "no dominant axis" sentinel for Edge and Face labels.
const NoAxis = 3

// Object is one node of the scene graph: an array, a surface, a camera,
// or a light, discriminated by Tag.
//
// Parent, Trnode, and Bvnode are relational links, not owning ones; the
// registry owns every node for the scene's lifetime.
type Object struct {
	Tag scene.Tag

	// Seq is the insertion order in the registry; tiling and tracing
	// iterate surfaces in Seq order for determinism.
	Seq int

	// Local is the working transform, mutated by Anim. The original
	// literal transform is captured at build time and restored by Free.
	Local scene.Transform
	orig  scene.Transform
	def   *scene.Def
	Anim  scene.AnimFunc
	User  any

	Parent *Object
	Trnode *Object
	Bvnode *Object

	// Mtx is the composed matrix: world space, or relative to Trnode
	// when transform caching is active. Inv is only valid for nodes
	// that are their own Trnode.
	Mtx linear.M4
	Inv linear.M4

	// Axis is the signed permutation extracted from Mtx when the node
	// is axis-aligned relative to its trnode (AxisOK true).
	Axis   linear.AxisMap
	AxisOK bool

	hasTrm uint8
	mtxTrm uint8

	// Array payload.
	Kids     []*Object
	Rels     []scene.Relation
	relsDone bool

	// Surface payload. SMin, SMax is the literal clipper box source;
	// BMin..CMax are the recomputed local bounding and clipping boxes.
	SMin, SMax linear.V3
	BMin, BMax linear.V3
	CMin, CMax linear.V3
	Rad        float32
	Rat        float32
	Par        float32
	Hyp        float32
	Outer      *Material
	Inner      *Material
	Clip       *ClipElem

	Verts []Vert
	Edges []Edge
	Faces []Face

	// Mid and SphRad are the world-space bounding sphere.
	Mid    linear.V3
	SphRad float32

	// Batch is the SIMD side-car filled by Phase 1.
	Batch Batch

	// Camera payload.
	Pov      float32
	Ambient  linear.V3
	Dps, Drt linear.V3

	// Light payload.
	Col linear.V3
	Lum [2]float32
	Atn [4]float32
}

// IsSurface reports whether the object is an analytic surface.
func (o *Object) IsSurface() bool {
	return o.Tag.IsSurface()
}

// WorldMtx returns the fully composed world matrix, collapsing through
// the trnode when the object's own matrix is trnode-relative.
func (o *Object) WorldMtx() linear.M4 {
	if o.Trnode != nil && o.Trnode != o {
		return o.Trnode.Mtx.Mul(o.Mtx)
	}
	return o.Mtx
}

// Registry holds every scene entity in insertion order. The tracer and
// the tiler iterate these lists; order is part of the rendering contract.
type Registry struct {
	Materials []*Material
	Textures  []*Texture
	Cameras   []*Object
	Lights    []*Object
	Surfaces  []*Object
	Arrays    []*Object

	texByName map[string]*Texture
	matByDef  map[*scene.Material]*Material

	// arena backs texture pixel storage, which has to outlive the
	// literal; the slabs back nodes and clipper list elements.
	arena *arena.Arena
	clips *arena.Slab[ClipElem]
	objs  *arena.Slab[Object]
}

// NewRegistry creates an empty registry backed by a fresh arena and
// slabs.
func NewRegistry() *Registry {
	return &Registry{
		texByName: make(map[string]*Texture),
		matByDef:  make(map[*scene.Material]*Material),
		arena:     arena.New(0),
		clips:     arena.NewSlab[ClipElem](256, 0),
		objs:      arena.NewSlab[Object](64, 0),
	}
}

// Build constructs the node tree for a literal. The root must be an
// Array. Unknown tags are skipped with a child-count adjustment; nil
// required pointers fail with ErrMalformedScene.
func (r *Registry) Build(def *scene.Def) (*Object, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil root literal", ErrMalformedScene)
	}
	if def.Tag != scene.Array {
		return nil, fmt.Errorf("%w: root tag %v, want array", ErrMalformedScene, def.Tag)
	}
	return r.build(def, nil)
}

func (r *Registry) build(def *scene.Def, parent *Object) (*Object, error) {
	o, err := r.objs.New()
	if err != nil {
		return nil, err
	}
	o.Tag = def.Tag
	o.Local = def.Tr
	o.orig = def.Tr
	o.def = def
	o.Anim = def.Anim
	o.User = def.User
	o.Parent = parent
	if o.Local.Scl == ([3]float32{}) {
		// A zero-valued transform in a literal means identity scale.
		o.Local.Scl = [3]float32{1, 1, 1}
	}

	switch def.Tag {
	case scene.Array:
		o.Seq = len(r.Arrays)
		r.Arrays = append(r.Arrays, o)
		for _, kd := range def.Kids {
			if kd == nil {
				return nil, fmt.Errorf("%w: nil child in array", ErrMalformedScene)
			}
			if kd.Tag > scene.Light {
				// Unsupported tag: skip with count adjustment.
				continue
			}
			k, err := r.build(kd, o)
			if err != nil {
				return nil, err
			}
			o.Kids = append(o.Kids, k)
		}
		o.Rels = def.Rels
		for _, rel := range def.Rels {
			if err := checkRelation(rel, len(o.Kids)); err != nil {
				return nil, err
			}
		}

	case scene.Plane, scene.Cylinder, scene.Sphere, scene.Cone,
		scene.Paraboloid, scene.Hyperboloid:
		o.Seq = len(r.Surfaces)
		r.Surfaces = append(r.Surfaces, o)
		o.SMin = linear.V3(def.Min)
		o.SMax = linear.V3(def.Max)
		o.Rad = def.Rad
		o.Rat = def.Rat
		o.Par = def.Par
		o.Hyp = def.Hyp
		if def.Outer == nil && def.Inner == nil {
			return nil, fmt.Errorf("%w: %v surface with no sides", ErrMalformedScene, def.Tag)
		}
		if o.Outer, err = r.internSide(def.Outer); err != nil {
			return nil, err
		}
		if o.Inner, err = r.internSide(def.Inner); err != nil {
			return nil, err
		}
		if o.Inner == nil {
			o.Inner = o.Outer
		}
		if o.Outer == nil {
			o.Outer = o.Inner
		}

	case scene.Camera:
		o.Seq = len(r.Cameras)
		r.Cameras = append(r.Cameras, o)
		o.Pov = def.Pov
		o.Ambient = linear.V3(def.Col).Scale(def.Lum)
		o.Dps = linear.V3(def.Dps)
		o.Drt = linear.V3(def.Drt)

	case scene.Light:
		o.Seq = len(r.Lights)
		r.Lights = append(r.Lights, o)
		o.Col = linear.V3(def.Col)
		o.Lum = def.Lum2
		o.Atn = def.Atn
	}
	return o, nil
}

// checkRelation validates child indices: in range or the -1 sentinel.
func checkRelation(rel scene.Relation, n int) error {
	for _, i := range [2]int{rel.A, rel.B} {
		if i < -1 || i >= n {
			return fmt.Errorf("%w: relation index %d out of range [-1, %d)", ErrMalformedScene, i, n)
		}
	}
	if rel.Kind < scene.MinusInner || rel.Kind > scene.UntieIndex {
		return fmt.Errorf("%w: unknown relation kind %d", ErrMalformedScene, rel.Kind)
	}
	return nil
}

// Free restores every node's literal transform so the literal can host
// another scene, and drops the registry slabs.
func (r *Registry) Free() {
	restore := func(o *Object) {
		if o.def != nil {
			o.def.Tr = o.orig
		}
	}
	for _, o := range r.Arrays {
		restore(o)
	}
	for _, o := range r.Surfaces {
		restore(o)
	}
	for _, o := range r.Cameras {
		restore(o)
	}
	for _, o := range r.Lights {
		restore(o)
	}
	r.clips.Reset()
	r.objs.Reset()
	r.arena.Release()
}
