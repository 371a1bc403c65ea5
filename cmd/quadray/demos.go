package main

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/gogpu/quadray/scene"
)

// Demo scene library. Each entry is a self-contained literal with at
// least one camera and one light; animations run off eased tweens keyed
// by the frame time.

func side(c uint32, dif, spc, pow float32) *scene.Side {
	return &scene.Side{
		Mat: &scene.Material{
			Tag: scene.Plain,
			Tex: &scene.Texture{Color: c},
			Dif: dif, Spc: spc, Pow: pow,
		},
	}
}

func mirrorSide(c uint32, rfl float32) *scene.Side {
	s := side(c, 0.5, 0.4, 32)
	s.Mat.Rfl = rfl
	return s
}

func glassSide(c uint32, trn, rfr float32) *scene.Side {
	s := side(c, 0.3, 0.5, 64)
	s.Mat.Trn = trn
	s.Mat.Rfr = rfr
	return s
}

func checkerSide(a, b uint32, n int) *scene.Side {
	pix := make([]uint32, n*n)
	for y := range n {
		for x := range n {
			if (x+y)%2 == 0 {
				pix[y*n+x] = a
			} else {
				pix[y*n+x] = b
			}
		}
	}
	return &scene.Side{
		Mat: &scene.Material{
			Tag: scene.Plain,
			Tex: &scene.Texture{Name: "checker", W: n, H: n, Pix: pix},
			Dif: 0.8, Spc: 0.1, Pow: 8,
		},
		Scl: [2]float32{0.25, 0.25},
	}
}

func camera(pos, rot [3]float32) *scene.Def {
	return &scene.Def{
		Tag: scene.Camera,
		Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Rot: rot, Pos: pos},
		Col: [3]float32{1, 1, 1},
		Lum: 0.12,
		Pov: 1,
		Dps: [3]float32{4, 4, 4},
		Drt: [3]float32{90, 90, 90},
	}
}

func pointLight(pos [3]float32) *scene.Def {
	return &scene.Def{
		Tag:  scene.Light,
		Tr:   scene.Transform{Scl: [3]float32{1, 1, 1}, Pos: pos},
		Col:  [3]float32{1, 1, 1},
		Lum2: [2]float32{0.05, 1},
		Atn:  [4]float32{2, 0.3, 0.1, 0.02},
	}
}

// bob animates a vertical ping-pong of the node position with an eased
// two-second half period.
func bob(axis int, amp float32) scene.AnimFunc {
	up := gween.New(-amp, amp, 2, ease.InOutQuad)
	down := gween.New(amp, -amp, 2, ease.InOutQuad)
	return func(time, prev float64, tr *scene.Transform, user any) {
		t := float32(math.Mod(time, 4))
		var v float32
		if t < 2 {
			v, _ = up.Set(t)
		} else {
			v, _ = down.Set(t - 2)
		}
		tr.Pos[axis] = v
	}
}

// spin rotates the node about its local K axis, eased per revolution.
func spin(degPerSec float32) scene.AnimFunc {
	tw := gween.New(0, 360, 1, ease.InOutSine)
	return func(time, prev float64, tr *scene.Transform, user any) {
		period := float64(360 / degPerSec)
		v, _ := tw.Set(float32(math.Mod(time, period) / period))
		tr.Rot[2] = v
	}
}

// demoPlaneRoom is the seed scene: a checkered floor plane under a
// single point light.
func demoPlaneRoom() *scene.Def {
	return &scene.Def{
		Tag: scene.Array,
		Tr:  scene.Unit(),
		Kids: []*scene.Def{
			{
				Tag: scene.Plane,
				Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Pos: [3]float32{0, 0, 5}},
				Min: [3]float32{-5, -5, 0},
				Max: [3]float32{5, 5, 0},
				Outer: checkerSide(0x00e0e0e0, 0x00303030, 8),
				Inner: side(0x00606060, 0.6, 0, 1),
			},
			pointLight([3]float32{0, -2.8, 3.3}),
			camera([3]float32{2, -2, 0}, [3]float32{-90, 0, 45}),
		},
	}
}

// demoCarvedCylinder shows constructive subtraction: a cylinder with a
// bobbing sphere carved out of it.
func demoCarvedCylinder() *scene.Def {
	sphere := &scene.Def{
		Tag:  scene.Sphere,
		Tr:   scene.Transform{Scl: [3]float32{1, 1, 1}},
		Anim: bob(2, 1.5),
		Min:  [3]float32{-1, -1, -1},
		Max:  [3]float32{1, 1, 1},
		Rad:  1,
		Outer: side(0x00c03030, 0.7, 0.3, 16),
		Inner: side(0x00802020, 0.7, 0, 1),
	}
	cyl := &scene.Def{
		Tag: scene.Cylinder,
		Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}},
		Min: [3]float32{-1.5, -1.5, -4.5},
		Max: [3]float32{1.5, 1.5, 4.5},
		Rad: 1.5,
		Outer: mirrorSide(0x003060c0, 0.25),
		Inner: side(0x00204080, 0.6, 0, 1),
	}
	return &scene.Def{
		Tag:  scene.Array,
		Tr:   scene.Transform{Scl: [3]float32{1, 1, 1}, Rot: [3]float32{-30, 0, 0}, Pos: [3]float32{0, 0, 6}},
		Kids: []*scene.Def{sphere, cyl},
		Rels: []scene.Relation{
			{A: 1, Kind: scene.MinusOuter, B: 0},
			{A: 0, Kind: scene.MinusInner, B: 1},
		},
	}
}

func demoCarved() *scene.Def {
	return &scene.Def{
		Tag: scene.Array,
		Tr:  scene.Unit(),
		Kids: []*scene.Def{
			demoCarvedCylinder(),
			{
				Tag: scene.Plane,
				Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Rot: [3]float32{90, 0, 0}, Pos: [3]float32{0, 2.5, 6}},
				Min: [3]float32{-8, -8, 0},
				Max: [3]float32{8, 8, 0},
				Outer: checkerSide(0x00d0d0a0, 0x00404030, 8),
				Inner: side(0x00505040, 0.6, 0, 1),
			},
			pointLight([3]float32{-2, -2, 3}),
			camera([3]float32{0, -0.5, -1}, [3]float32{0, 0, 0}),
		},
	}
}

// demoQuadrics lines up one of each quadric over a mirror floor, with a
// spinning glass sphere in the middle.
func demoQuadrics() *scene.Def {
	shape := func(tag scene.Tag, x float32, s *scene.Side) *scene.Def {
		d := &scene.Def{
			Tag: tag,
			Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Rot: [3]float32{-90, 0, 0}, Pos: [3]float32{x, 1.2, 7}},
			Min: [3]float32{-1, -1, -1},
			Max: [3]float32{1, 1, 1},
			Outer: s,
			Inner: s,
		}
		switch tag {
		case scene.Cylinder, scene.Sphere:
			d.Rad = 0.8
		case scene.Cone:
			d.Rat = 0.8
		case scene.Paraboloid:
			d.Par = 1.2
		case scene.Hyperboloid:
			d.Rat = 0.6
			d.Hyp = 0.3
		}
		return d
	}
	glass := shape(scene.Sphere, 0, glassSide(0x00e0f0ff, 0.7, 1.33))
	glass.Anim = spin(90)
	return &scene.Def{
		Tag: scene.Array,
		Tr:  scene.Unit(),
		Kids: []*scene.Def{
			shape(scene.Cylinder, -4, side(0x00c04040, 0.8, 0.2, 8)),
			shape(scene.Cone, -2, side(0x00c0a040, 0.8, 0.2, 8)),
			glass,
			shape(scene.Paraboloid, 2, side(0x0040c060, 0.8, 0.2, 8)),
			shape(scene.Hyperboloid, 4, side(0x004070c0, 0.8, 0.2, 8)),
			{
				Tag: scene.Plane,
				Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Rot: [3]float32{90, 0, 0}, Pos: [3]float32{0, 2, 7}},
				Min: [3]float32{-10, -10, 0},
				Max: [3]float32{10, 10, 0},
				Outer: mirrorSide(0x00808090, 0.4),
				Inner: side(0x00404048, 0.6, 0, 1),
			},
			pointLight([3]float32{0, -4, 4}),
			pointLight([3]float32{4, -2, 10}),
			camera([3]float32{0, -0.5, 0}, [3]float32{-10, 0, 0}),
		},
	}
}

// demos lists the built-in scenes in F11 cycling order.
var demos = []func() *scene.Def{
	demoPlaneRoom,
	demoCarved,
	demoQuadrics,
}
