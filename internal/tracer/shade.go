package tracer

import (
	"math"

	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/object"
)

// shadowBias offsets secondary ray origins off the surface to avoid
// re-hitting it at t=0.
const shadowBias = 1e-3

// shadeLane computes the HDR color for one lane's winning surface:
// texture diffuse, per-light shadowed diffuse and specular, and the
// reflection/refraction recursion.
func (p *packetT) shadeLane(c *Context, lv *level, i int, s *object.Object, lvi, depth int) (float32, float32, float32) {
	b := &s.Batch
	o := linear.V3{lv.ox[i], lv.oy[i], lv.oz[i]}
	d := linear.V3{lv.dx[i], lv.dy[i], lv.dz[i]}
	t := lv.t[i]
	hp := o.Add(d.Scale(t))
	dn := d.Norm()

	lp := localPoint(b, hp)
	n := worldDir(b, shapeGrad(b, lp)).Norm()

	mat := b.Outer
	inner := n.Dot(dn) > 0
	if inner {
		mat = b.Inner
		n = n.Neg()
	}

	tr, tg, tb := texColor(mat, lp)

	if mat.Props&object.PropLight != 0 {
		// Emissive surfaces show their texture at full intensity.
		return tr, tg, tb
	}

	// Global ambient.
	r := tr * c.Ambient[0]
	g := tg * c.Ambient[1]
	bl := tb * c.Ambient[2]

	org := hp.Add(n.Scale(shadowBias))
	for _, light := range c.Lights {
		lpos := light.Mtx.Pos()

		// Light ambient term, unshadowed.
		r += tr * light.Col[0] * light.Lum[0]
		g += tg * light.Col[1] * light.Lum[0]
		bl += tb * light.Col[2] * light.Lum[0]

		lvec := lpos.Sub(org)
		dist := lvec.Len()
		if dist == 0 {
			continue
		}
		ln := lvec.Scale(1 / dist)
		diff := n.Dot(ln)
		if diff <= 0 {
			continue
		}
		if occluded(c, s, org, lvec) {
			continue
		}
		att := attenuate(light, dist)
		w := light.Lum[1] * att

		r += tr * light.Col[0] * w * diff * mat.Dif
		g += tg * light.Col[1] * w * diff * mat.Dif
		bl += tb * light.Col[2] * w * diff * mat.Dif

		if mat.Props&object.PropSpecular != 0 {
			refl := dn.Sub(n.Scale(2 * n.Dot(dn)))
			sp := refl.Dot(ln)
			if sp > 0 {
				sf := float32(math.Pow(float64(sp), float64(mat.Pow))) * mat.Spc * w
				sr, sg, sb := sf, sf, sf
				if mat.Props&object.PropMetal != 0 {
					sr *= tr
					sg *= tg
					sb *= tb
				}
				r += light.Col[0] * sr
				g += light.Col[1] * sg
				bl += light.Col[2] * sb
			}
		}
	}

	if depth > 0 && mat.Props&object.PropReflect != 0 {
		rd := dn.Sub(n.Scale(2 * n.Dot(dn)))
		rr, rg, rb := p.bounce(c, org, rd, lvi, depth)
		k := mat.Rfl
		r = r*(1-k) + rr*k
		g = g*(1-k) + rg*k
		bl = bl*(1-k) + rb*k
	}

	if depth > 0 && mat.Props&object.PropTransp != 0 {
		// Without a refraction index the material is plain see-through.
		td, ok := dn, true
		if mat.Props&object.PropRefract != 0 {
			if td, ok = refract(dn, n, mat, inner); !ok {
				// Total internal reflection.
				td = dn.Sub(n.Scale(2 * n.Dot(dn)))
			}
		}
		torg := hp.Sub(n.Scale(shadowBias))
		if !ok {
			torg = org
		}
		xr, xg, xb := p.bounce(c, torg, td, lvi, depth)
		k := mat.Trn
		r = r*(1-k) + xr*k
		g = g*(1-k) + xg*k
		bl = bl*(1-k) + xb*k
	}

	return r, g, bl
}

// bounce traces a single secondary ray through the global surface list
// using lane 0 of the next level's packet state.
func (p *packetT) bounce(c *Context, o, d linear.V3, lvi, depth int) (float32, float32, float32) {
	ch := p.lvl(lvi + 1)
	ch.ox[0], ch.oy[0], ch.oz[0] = o[0], o[1], o[2]
	ch.dx[0], ch.dy[0], ch.dz[0] = d[0], d[1], d[2]
	p.trace(c, c.Surfaces, lvi+1, depth-1, 1)
	return ch.cr[0], ch.cg[0], ch.cb[0]
}

// refract bends a unit direction through the surface per Snell's law.
// ok is false on total internal reflection. The material's Rfr index is
// relative to vacuum; crossing from inside inverts it.
func refract(d, n linear.V3, mat *object.Material, inner bool) (linear.V3, bool) {
	eta := 1 / mat.Rfr
	if inner {
		eta = mat.Rfr
	}
	ci := -n.Dot(d)
	k := 1 - eta*eta*(1-ci*ci)
	if k < 0 {
		return linear.V3{}, false
	}
	return d.Scale(eta).Add(n.Scale(eta*ci - linear.Sqrt(k))), true
}

// occluded tests the shadow segment from org toward the light (lvec
// reaching it at t=1) against the global surface list. Emissive
// geometry does not occlude; the originating surface is skipped, its
// self-shadowing handled by the origin bias.
func occluded(c *Context, from *object.Object, org, lvec linear.V3) bool {
	for _, s := range c.Surfaces {
		if s == from {
			continue
		}
		if s.Outer != nil && s.Outer.Props&object.PropLight != 0 {
			continue
		}
		if _, ok := hitSurface(&s.Batch, s, org, lvec, shadowBias, 1-shadowBias); ok {
			return true
		}
	}
	return false
}

// attenuate evaluates the light's (range, constant, linear, quadratic)
// attenuation quadruple at a distance.
func attenuate(light *object.Object, dist float32) float32 {
	rng, c0, c1, c2 := light.Atn[0], light.Atn[1], light.Atn[2], light.Atn[3]
	if c0 == 0 && c1 == 0 && c2 == 0 {
		return 1
	}
	d := dist
	if rng > 0 {
		d = dist / rng
	}
	den := c0 + c1*d + c2*d*d
	if den <= 0 {
		return 1
	}
	return 1 / den
}

// texColor samples the material's texture at the local hit point and
// returns linear RGB in [0, 1].
func texColor(mat *object.Material, lp linear.V3) (float32, float32, float32) {
	u := mat.UvA*lp[0] + mat.UvB*lp[1] + mat.UvC
	v := mat.UvD*lp[0] + mat.UvE*lp[1] + mat.UvF
	px := mat.Tex.Sample(u, v)
	r := float32((px>>16)&0xff) / 255
	g := float32((px>>8)&0xff) / 255
	b := float32(px&0xff) / 255
	return r, g, b
}
