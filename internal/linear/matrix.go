package linear

import "math"

// M4 is a 4x4 float32 matrix, row-major, multiplying column vectors:
//
//	world = M * local
//
// Row i, column j is m[i][j]. The fourth row is (0 0 0 1) for all
// transforms produced by this package.
type M4 [4][4]float32

// Identity returns the identity matrix.
func Identity() M4 {
	return M4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate returns a translation matrix.
func Translate(p V3) M4 {
	m := Identity()
	m[0][3] = p[0]
	m[1][3] = p[1]
	m[2][3] = p[2]
	return m
}

// Scale returns a scaling matrix.
func Scale(s V3) M4 {
	m := Identity()
	m[0][0] = s[0]
	m[1][1] = s[1]
	m[2][2] = s[2]
	return m
}

// RotateX returns a rotation about the world X axis by deg degrees.
func RotateX(deg float32) M4 {
	s, c := sincosDeg(deg)
	m := Identity()
	m[1][1], m[1][2] = c, -s
	m[2][1], m[2][2] = s, c
	return m
}

// RotateY returns a rotation about the world Y axis by deg degrees.
func RotateY(deg float32) M4 {
	s, c := sincosDeg(deg)
	m := Identity()
	m[0][0], m[0][2] = c, s
	m[2][0], m[2][2] = -s, c
	return m
}

// RotateZ returns a rotation about the world Z axis by deg degrees.
func RotateZ(deg float32) M4 {
	s, c := sincosDeg(deg)
	m := Identity()
	m[0][0], m[0][1] = c, -s
	m[1][0], m[1][1] = s, c
	return m
}

// sincosDeg computes sin and cos of an angle in degrees, snapping
// the multiples of 90 to exact values so trivial rotations stay exact
// axis permutations in float32.
func sincosDeg(deg float32) (sin, cos float32) {
	switch normDeg(deg) {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case -90:
		return -1, 0
	}
	s, c := math.Sincos(float64(deg) * math.Pi / 180)
	return float32(s), float32(c)
}

// Mul returns the matrix product m * n.
func (m M4) Mul(n M4) M4 {
	var r M4
	for i := range 4 {
		for j := range 4 {
			var s float32
			for k := range 4 {
				s += m[i][k] * n[k][j]
			}
			r[i][j] = s
		}
	}
	return r
}

// MulPoint transforms a position (w=1).
func (m M4) MulPoint(v V3) V3 {
	return V3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2] + m[0][3],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2] + m[1][3],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2] + m[2][3],
	}
}

// MulVec transforms a direction (w=0).
func (m M4) MulVec(v V3) V3 {
	return V3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Col returns column j of the upper 3x3 block: the image of local axis j.
func (m M4) Col(j int) V3 {
	return V3{m[0][j], m[1][j], m[2][j]}
}

// Pos returns the translation column.
func (m M4) Pos() V3 {
	return V3{m[0][3], m[1][3], m[2][3]}
}

// Invert returns the inverse of m and whether m was invertible.
// The last row is assumed to be (0 0 0 1): the upper 3x3 block is
// inverted by adjugate and the translation negated through it.
func (m M4) Invert() (M4, bool) {
	a := m
	// Cofactors of the 3x3 block.
	c00 := a[1][1]*a[2][2] - a[1][2]*a[2][1]
	c01 := a[1][2]*a[2][0] - a[1][0]*a[2][2]
	c02 := a[1][0]*a[2][1] - a[1][1]*a[2][0]
	det := a[0][0]*c00 + a[0][1]*c01 + a[0][2]*c02
	if det == 0 {
		return Identity(), false
	}
	d := 1 / det
	var r M4
	r[0][0] = c00 * d
	r[1][0] = c01 * d
	r[2][0] = c02 * d
	r[0][1] = (a[0][2]*a[2][1] - a[0][1]*a[2][2]) * d
	r[1][1] = (a[0][0]*a[2][2] - a[0][2]*a[2][0]) * d
	r[2][1] = (a[0][1]*a[2][0] - a[0][0]*a[2][1]) * d
	r[0][2] = (a[0][1]*a[1][2] - a[0][2]*a[1][1]) * d
	r[1][2] = (a[0][2]*a[1][0] - a[0][0]*a[1][2]) * d
	r[2][2] = (a[0][0]*a[1][1] - a[0][1]*a[1][0]) * d
	p := a.Pos()
	t := V3{
		r[0][0]*p[0] + r[0][1]*p[1] + r[0][2]*p[2],
		r[1][0]*p[0] + r[1][1]*p[1] + r[1][2]*p[2],
		r[2][0]*p[0] + r[2][1]*p[1] + r[2][2]*p[2],
	}
	r[0][3] = -t[0]
	r[1][3] = -t[1]
	r[2][3] = -t[2]
	r[3] = [4]float32{0, 0, 0, 1}
	return r, true
}

// AxisMap describes a signed axis permutation: local axis i maps to world
// axis Map[i] with sign Sgn[i] and positive scale Scl[i].
type AxisMap struct {
	Map [3]int
	Sgn [3]float32
	Scl V3
}

// ExtractAxisMap reports whether the upper 3x3 block of m is a signed,
// scaled axis permutation and returns it. Each column must match a signed
// standard basis vector up to a positive scalar.
func (m M4) ExtractAxisMap() (AxisMap, bool) {
	var am AxisMap
	var used [3]bool
	for j := range 3 {
		col := m.Col(j)
		axis := -1
		for i := range 3 {
			if col[i] != 0 {
				if axis >= 0 {
					return am, false
				}
				axis = i
			}
		}
		if axis < 0 || used[axis] {
			return am, false
		}
		used[axis] = true
		am.Map[j] = axis
		if col[axis] > 0 {
			am.Sgn[j] = 1
			am.Scl[j] = col[axis]
		} else {
			am.Sgn[j] = -1
			am.Scl[j] = -col[axis]
		}
	}
	return am, true
}
