package object

import "github.com/gogpu/quadray/internal/linear"

// Action is one camera input applied by Scene.Update: a move along the
// image-plane basis or a rotation about it.
type Action uint8

// Camera actions.
const (
	ActNone Action = iota
	ActMoveLeft
	ActMoveRight
	ActMoveForward
	ActMoveBack
	ActMoveUp
	ActMoveDown
	ActRotLeft
	ActRotRight
	ActRotUp
	ActRotDown
)

// CamBasis returns the image-plane basis of a camera: the horizontal and
// vertical steppers and the view normal, as unit world vectors.
func (o *Object) CamBasis() (hor, ver, nrm linear.V3) {
	return o.Mtx.Col(0).Norm(), o.Mtx.Col(1).Norm(), o.Mtx.Col(2).Norm()
}

// CamApply applies one action to the camera's local transform using its
// per-unit-time deltas scaled by dt. Movement follows the camera's own
// basis so W always walks into the view.
func (o *Object) CamApply(act Action, dt float32) {
	hor, ver, nrm := o.CamBasis()
	move := func(d linear.V3, s float32) {
		for i := range 3 {
			o.Local.Pos[i] += d[i] * s * dt
		}
	}
	switch act {
	case ActMoveLeft:
		move(hor, -o.Dps[0])
	case ActMoveRight:
		move(hor, +o.Dps[0])
	case ActMoveForward:
		move(nrm, +o.Dps[2])
	case ActMoveBack:
		move(nrm, -o.Dps[2])
	case ActMoveUp:
		move(ver, +o.Dps[1])
	case ActMoveDown:
		move(ver, -o.Dps[1])
	case ActRotLeft:
		o.Local.Rot[2] += o.Drt[2] * dt
	case ActRotRight:
		o.Local.Rot[2] -= o.Drt[2] * dt
	case ActRotUp:
		o.Local.Rot[0] += o.Drt[0] * dt
	case ActRotDown:
		o.Local.Rot[0] -= o.Drt[0] * dt
	}
}
