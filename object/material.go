package object

import (
	"fmt"
	"math"

	"github.com/gogpu/quadray/internal/arena"
	"github.com/gogpu/quadray/scene"
)

// Material property bits derived at intern time. The tracer branches on
// these instead of re-deriving them per ray.
const (
	PropTexture uint32 = 1 << iota
	PropReflect
	PropRefract
	PropSpecular
	PropOpaque
	PropTransp
	PropLight
	PropNormal
	PropMetal
)

// Material is the runtime form of a scene.Material: coefficients plus the
// derived property bits and the resolved texture-coordinate transform.
type Material struct {
	Tag scene.MaterialTag
	Tex *Texture

	Dif, Spc, Pow float32
	Rfl           float32
	Trn           float32
	Rfr           float32

	Props uint32

	// UV transform: u' = UvA*u + UvB*v + UvC, v' = UvD*u + UvE*v + UvF.
	UvA, UvB, UvC float32
	UvD, UvE, UvF float32
}

// Texture is the runtime texture: a single XRGB value when Pix is nil,
// otherwise a W x H 32-bit image. Shared by name across materials.
type Texture struct {
	Name  string
	Color uint32
	W, H  int
	Pix   []uint32
}

// Sample returns the XRGB texel nearest to (u, v). Coordinates wrap.
func (t *Texture) Sample(u, v float32) uint32 {
	if t.Pix == nil {
		return t.Color
	}
	x := int(u*float32(t.W)) % t.W
	if x < 0 {
		x += t.W
	}
	y := int(v*float32(t.H)) % t.H
	if y < 0 {
		y += t.H
	}
	return t.Pix[y*t.W+x]
}

// internSide interns the side's material, or returns nil for a nil side.
func (r *Registry) internSide(s *scene.Side) (*Material, error) {
	if s == nil {
		return nil, nil
	}
	if s.Mat == nil {
		return nil, fmt.Errorf("%w: side with nil material", ErrMalformedScene)
	}
	if m, ok := r.matByDef[s.Mat]; ok {
		return m, nil
	}
	md := s.Mat
	m := &Material{
		Tag: md.Tag,
		Dif: md.Dif, Spc: md.Spc, Pow: md.Pow,
		Rfl: md.Rfl, Trn: md.Trn, Rfr: md.Rfr,
	}
	var err error
	if m.Tex, err = r.internTexture(md.Tex); err != nil {
		return nil, err
	}
	m.resolveUv(s)
	m.deriveProps()
	r.matByDef[md] = m
	r.Materials = append(r.Materials, m)
	return m, nil
}

// internTexture returns the shared texture for a literal texture,
// deduplicating by name when one is set.
func (r *Registry) internTexture(td *scene.Texture) (*Texture, error) {
	if td == nil {
		return nil, fmt.Errorf("%w: material with nil texture", ErrMalformedScene)
	}
	if td.Name != "" {
		if t, ok := r.texByName[td.Name]; ok {
			return t, nil
		}
	}
	t := &Texture{Name: td.Name, Color: td.Color, W: td.W, H: td.H}
	if td.Pix != nil {
		if len(td.Pix) < td.W*td.H {
			return nil, fmt.Errorf("%w: texture %q pixel count %d < %dx%d",
				ErrMalformedScene, td.Name, len(td.Pix), td.W, td.H)
		}
		// Copy the pixels into scene-lifetime storage so the texture
		// survives the literal.
		pix, err := arena.Slice[uint32](r.arena, td.W*td.H)
		if err != nil {
			return nil, err
		}
		copy(pix, td.Pix)
		t.Pix = pix
	}
	if td.Name != "" {
		r.texByName[td.Name] = t
	}
	r.Textures = append(r.Textures, t)
	return t, nil
}

// resolveUv flattens the side's 2D scale/rotate/translate into the six
// affine coefficients applied to local surface coordinates.
func (m *Material) resolveUv(s *scene.Side) {
	sx, sy := s.Scl[0], s.Scl[1]
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	rad := float64(s.Rot) * math.Pi / 180
	c := float32(math.Cos(rad))
	n := float32(math.Sin(rad))
	m.UvA = c * sx
	m.UvB = -n * sy
	m.UvC = s.Pos[0]
	m.UvD = n * sx
	m.UvE = c * sy
	m.UvF = s.Pos[1]
}

// deriveProps computes the property bits from the coefficients.
// Trn is a general opacity coefficient: any value above 0 marks the
// material transparent and values reaching 1 fully so.
func (m *Material) deriveProps() {
	var p uint32
	if m.Tex != nil && m.Tex.Pix != nil {
		p |= PropTexture
	}
	if m.Rfl > 0 {
		p |= PropReflect
	}
	if m.Trn > 0 && m.Rfr != 0 && m.Rfr != 1 {
		p |= PropRefract
	}
	if m.Spc > 0 {
		p |= PropSpecular
	}
	if m.Trn == 0 {
		p |= PropOpaque
	} else {
		p |= PropTransp
	}
	switch m.Tag {
	case scene.LightSource:
		p |= PropLight
	case scene.Metal:
		p |= PropMetal
	default:
		p |= PropNormal
	}
	m.Props = p
}
