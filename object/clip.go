package object

import (
	"fmt"

	"github.com/gogpu/quadray/scene"
)

// ClipKind discriminates custom clipper list elements.
type ClipKind uint8

// Clipper list element kinds. Surf elements carve half-spaces; Trnode
// elements mark a shared transform so the tracer hoists one inverse per
// group; AccumEnter/AccumLeave bracket an accumulation segment evaluated
// as a single boolean "outside any of these".
const (
	ClipSurf ClipKind = iota
	ClipTrnode
	ClipAccumEnter
	ClipAccumLeave
)

// ClipElem is one node of a surface's intrusive custom clipper list,
// slab-allocated during Phase 0 and read-only afterwards.
type ClipElem struct {
	Next *ClipElem
	Kind ClipKind

	// Surf and Side apply to ClipSurf elements: the clipping surface
	// and which side of it is kept (+1 outer for MinusOuter, -1 inner
	// for MinusInner).
	Surf *Object
	Side int8

	// Trnode applies to ClipTrnode markers.
	Trnode *Object
}

// clipTmpl is a pending clipper before list insertion.
type clipTmpl struct {
	surf *Object
	side int8
}

// relate processes an array's relation list, building clipper lists and
// attaching bounding-volume links. Called once per array from Phase 0.
func (r *Registry) relate(a *Object) error {
	la, ra := a, a
	var seg []clipTmpl
	var segDst *Object
	inAccum := false

	for _, rel := range a.Rels {
		switch rel.Kind {
		case scene.IndexArray:
			// Narrow the left/right sub-array for the following
			// relation's indices.
			var err error
			if la, err = narrow(la, rel.A); err != nil {
				return err
			}
			if ra, err = narrow(ra, rel.B); err != nil {
				return err
			}
			continue

		case scene.MinusInner, scene.MinusOuter:
			dst, err := kidSurface(la, rel.A)
			if err != nil {
				return err
			}
			src, err := kid(ra, rel.B)
			if err != nil {
				return err
			}
			side := int8(+1)
			if rel.Kind == scene.MinusInner {
				side = -1
			}
			elems := expandClippers(src, side, nil)
			if inAccum {
				if segDst == nil {
					segDst = dst
				}
				if segDst != dst {
					return fmt.Errorf("%w: accumulation segment spans surfaces %d and %d",
						ErrMalformedScene, segDst.Seq, dst.Seq)
				}
				seg = append(seg, elems...)
			} else if err := r.addRelation(dst, elems, false); err != nil {
				return err
			}

		case scene.MinusAccum:
			if !inAccum {
				inAccum = true
				seg = seg[:0]
				segDst = nil
			} else {
				inAccum = false
				if segDst != nil {
					if err := r.addRelation(segDst, seg, true); err != nil {
						return err
					}
				}
			}

		case scene.BoundArray, scene.UntieArray:
			arr, err := narrow(ra, rel.B)
			if err != nil {
				return err
			}
			bv := arr
			if rel.Kind == scene.UntieArray {
				bv = nil
			}
			for _, k := range arr.Kids {
				k.Bvnode = bv
			}

		case scene.BoundIndex, scene.UntieIndex:
			k, err := kid(ra, rel.B)
			if err != nil {
				return err
			}
			if rel.Kind == scene.BoundIndex {
				k.Bvnode = ra
			} else {
				k.Bvnode = nil
			}
		}

		// Narrowing applies to the immediately following relation only.
		la, ra = a, a
	}
	if inAccum {
		return fmt.Errorf("%w: unterminated accumulation segment", ErrMalformedScene)
	}
	return nil
}

func narrow(a *Object, idx int) (*Object, error) {
	if idx < 0 {
		return a, nil
	}
	k, err := kid(a, idx)
	if err != nil {
		return nil, err
	}
	if k.Tag != scene.Array {
		return nil, fmt.Errorf("%w: index relation into non-array child %d", ErrMalformedScene, idx)
	}
	return k, nil
}

func kid(a *Object, idx int) (*Object, error) {
	if idx < 0 || idx >= len(a.Kids) {
		return nil, fmt.Errorf("%w: relation child index %d out of range", ErrMalformedScene, idx)
	}
	return a.Kids[idx], nil
}

func kidSurface(a *Object, idx int) (*Object, error) {
	k, err := kid(a, idx)
	if err != nil {
		return nil, err
	}
	if !k.IsSurface() {
		return nil, fmt.Errorf("%w: minus relation destination %d is not a surface", ErrMalformedScene, idx)
	}
	return k, nil
}

// expandClippers flattens a clip source into surface templates: a surface
// contributes itself, an array contributes every surface beneath it.
func expandClippers(src *Object, side int8, out []clipTmpl) []clipTmpl {
	if src.IsSurface() {
		return append(out, clipTmpl{surf: src, side: side})
	}
	for _, k := range src.Kids {
		out = expandClippers(k, side, out)
	}
	return out
}

// addRelation merges a template list into the surface's custom clipper
// list. Clippers whose surface carries a trnode are grouped under a
// ClipTrnode marker: a new marker is inserted before the group unless one
// for the same trnode already exists within the current accumulation
// segment, in which case the clipper joins the existing group. The
// grouping is what lets the tracer hoist a shared inverse transform.
func (r *Registry) addRelation(dst *Object, elems []clipTmpl, accum bool) error {
	newElem := func(e ClipElem) (*ClipElem, error) {
		p, err := r.clips.New()
		if err != nil {
			return nil, err
		}
		*p = e
		return p, nil
	}
	appendElem := func(e *ClipElem) {
		if dst.Clip == nil {
			dst.Clip = e
			return
		}
		t := dst.Clip
		for t.Next != nil {
			t = t.Next
		}
		t.Next = e
	}

	if accum {
		e, err := newElem(ClipElem{Kind: ClipAccumEnter})
		if err != nil {
			return err
		}
		appendElem(e)
	}

	// Markers already emitted within this segment, by trnode.
	markers := make(map[*Object]*ClipElem)

	for _, t := range elems {
		if t.surf == dst {
			return fmt.Errorf("%w: surface %d clips itself", ErrMalformedScene, dst.Seq)
		}
		if tn := t.surf.Trnode; tn != nil {
			m, ok := markers[tn]
			if !ok {
				var err error
				if m, err = newElem(ClipElem{Kind: ClipTrnode, Trnode: tn}); err != nil {
					return err
				}
				appendElem(m)
				markers[tn] = m
			}
			// Insert under the existing marker.
			e, err := newElem(ClipElem{Kind: ClipSurf, Surf: t.surf, Side: t.side, Next: m.Next})
			if err != nil {
				return err
			}
			m.Next = e
			continue
		}
		e, err := newElem(ClipElem{Kind: ClipSurf, Surf: t.surf, Side: t.side})
		if err != nil {
			return err
		}
		appendElem(e)
	}

	if accum {
		e, err := newElem(ClipElem{Kind: ClipAccumLeave})
		if err != nil {
			return err
		}
		appendElem(e)
	}
	return nil
}
