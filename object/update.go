package object

import (
	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/scene"
)

// updCtx carries the per-update inputs through the Phase-0 walk.
type updCtx struct {
	time, prev float64
	cfg        Opts
	reg        *Registry
}

// UpdateScene runs Phase 0: a sequential top-down walk composing
// matrices, resolving trnodes, and (on the first pass over an array's
// relation list) building custom clipper lists.
//
// prev is the previously rendered time; animation callbacks fire only
// when time differs from prev, which makes back-to-back updates with the
// same time a no-op.
func UpdateScene(root *Object, time, prev float64, cfg Opts, reg *Registry) error {
	c := &updCtx{time: time, prev: prev, cfg: cfg, reg: reg}
	return root.update(c, nil, 0)
}

func (o *Object) update(c *updCtx, parent *Object, parentTrm uint8) error {
	if o.Anim != nil && c.time != c.prev {
		o.Anim(c.time, c.prev, &o.Local, o.User)
	}

	// Own-transform bits. With OptFscale clear, a non-trivial scale is
	// promoted to imply rotation, which forces the full matrix path.
	o.hasTrm = 0
	if !linear.IsUnitScale(linear.V3(o.Local.Scl)) {
		o.hasTrm |= trmScl
		if c.cfg&OptFscale == 0 {
			o.hasTrm |= trmRot
		}
	}
	if !linear.IsTrivialRot(linear.V3(o.Local.Rot)) {
		o.hasTrm |= trmRot
	}
	o.mtxTrm = o.hasTrm | parentTrm

	local := linear.Compose(
		linear.V3(o.Local.Scl),
		linear.V3(o.Local.Rot),
		linear.V3(o.Local.Pos),
	)

	// Trnode resolution. The trnode chain is rotation-driven: pure
	// scale stays on the axis-map path, so a scale-only node never
	// anchors an inverse of its own.
	var anc *Object
	if parent != nil {
		anc = parent.Trnode
	}
	switch {
	case o.hasTrm&trmRot != 0:
		// Own non-trivial rotation: collapse any cached chain into a
		// full world matrix and anchor here.
		switch {
		case parent == nil:
			o.Mtx = local
		case anc != nil && anc != parent:
			o.Mtx = anc.Mtx.Mul(parent.Mtx).Mul(local)
		default:
			o.Mtx = parent.Mtx.Mul(local)
		}
		o.Trnode = o

	case anc != nil:
		// Under a rotated ancestor. When the ancestor is the direct
		// parent the chain contribution is already in the trnode's
		// matrix, so this node's matrix is the local transform alone.
		if anc == parent {
			o.Mtx = local
		} else {
			o.Mtx = parent.Mtx.Mul(local)
		}
		o.Trnode = anc

	default:
		if parent != nil {
			o.Mtx = parent.Mtx.Mul(local)
		} else {
			o.Mtx = local
		}
		o.Trnode = nil
	}

	// Cameras and lights always carry fully collapsed world matrices,
	// as does everything when transform caching is off.
	leaf := !o.IsSurface() && o.Tag != scene.Array
	if (leaf || c.cfg&OptTarray == 0) && o.Trnode != nil && o.Trnode != o {
		o.Mtx = o.Trnode.Mtx.Mul(o.Mtx)
		o.Trnode = o
	}

	if o.Tag == scene.Array {
		for _, k := range o.Kids {
			if err := k.update(c, o, o.mtxTrm); err != nil {
				return err
			}
		}
		if len(o.Rels) > 0 && !o.relsDone {
			if err := c.reg.relate(o); err != nil {
				return err
			}
			o.relsDone = true
		}
	}
	return nil
}
