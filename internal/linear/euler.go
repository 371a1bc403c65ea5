package linear

// Euler rotation helpers. Rotations are extrinsic: the X, then Y, then Z
// rotations are applied about the fixed world axes, so the composed matrix
// is Rz * Ry * Rx.

// normDeg maps an angle in degrees into (-180, +180].
func normDeg(deg float32) float32 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}

// NormEuler normalizes every component of r into (-180, +180].
func NormEuler(r V3) V3 {
	return V3{normDeg(r[0]), normDeg(r[1]), normDeg(r[2])}
}

// IsTrivialRot reports whether every component of r is a multiple of 90
// degrees. Such rotations reduce to signed axis permutations.
func IsTrivialRot(r V3) bool {
	for i := range r {
		switch normDeg(r[i]) {
		case 0, 90, 180, -90:
		default:
			return false
		}
	}
	return true
}

// IsUnitScale reports whether every component of s is -1 or +1.
func IsUnitScale(s V3) bool {
	for i := range s {
		if s[i] != 1 && s[i] != -1 {
			return false
		}
	}
	return true
}

// RotateEuler returns the extrinsic X-Y-Z rotation matrix Rz * Ry * Rx.
func RotateEuler(r V3) M4 {
	return RotateZ(r[2]).Mul(RotateY(r[1]).Mul(RotateX(r[0])))
}

// Compose builds the local transform matrix T * R * S from scale,
// Euler rotation (degrees), and position.
func Compose(scl, rot, pos V3) M4 {
	return Translate(pos).Mul(RotateEuler(NormEuler(rot)).Mul(Scale(scl)))
}
