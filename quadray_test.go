package quadray

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/quadray/scene"
)

func testLiteral() *scene.Def {
	side := func(c uint32) *scene.Side {
		return &scene.Side{
			Mat: &scene.Material{
				Tag: scene.Plain,
				Tex: &scene.Texture{Color: c},
				Dif: 0.7, Spc: 0.3, Pow: 16,
			},
		}
	}
	pmin, pmax := scene.Unbounded()
	return &scene.Def{
		Tag: scene.Array,
		Tr:  scene.Unit(),
		Kids: []*scene.Def{
			{
				Tag: scene.Plane,
				Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Pos: [3]float32{0, 0, 5}},
				Min: pmin, Max: pmax,
				Outer: side(0x00508050), Inner: side(0x00508050),
			},
			{
				Tag: scene.Sphere,
				Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Pos: [3]float32{0, 0, 2}},
				Min: [3]float32{-1, -1, -1},
				Max: [3]float32{1, 1, 1},
				Rad: 1,
				Outer: side(0x00c04040), Inner: side(0x00c04040),
			},
			{
				Tag:  scene.Light,
				Tr:   scene.Transform{Scl: [3]float32{1, 1, 1}, Pos: [3]float32{0, -2.8, 3.3}},
				Col:  [3]float32{1, 1, 1},
				Lum2: [2]float32{0.05, 1},
				Atn:  [4]float32{1, 0.5, 0.1, 0.01},
			},
			{
				Tag: scene.Camera,
				Tr:  scene.Transform{Scl: [3]float32{1, 1, 1}, Pos: [3]float32{0, 0, -4}},
				Col: [3]float32{1, 1, 1},
				Lum: 0.12,
				Pov: 1,
				Dps: [3]float32{2, 2, 2},
				Drt: [3]float32{60, 60, 60},
			},
		},
	}
}

func newTestScene(t *testing.T, options ...Option) *Scene {
	t.Helper()
	s, err := New(testLiteral(), 160, 96, options...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewRejectsCameralessScene(t *testing.T) {
	def := testLiteral()
	def.Kids = def.Kids[:3] // drop the camera
	_, err := New(def, 100, 100)
	if !errors.Is(err, ErrMalformedScene) {
		t.Errorf("New without camera: err = %v, want ErrMalformedScene", err)
	}
}

func TestNewRejectsTinyPov(t *testing.T) {
	def := testLiteral()
	def.Kids[3].Pov = 0.001
	_, err := New(def, 100, 100)
	if !errors.Is(err, ErrMalformedScene) {
		t.Errorf("New with tiny pov: err = %v, want ErrMalformedScene", err)
	}
}

func TestStrideAlignment(t *testing.T) {
	s := newTestScene(t, WithSimd(8, 1))
	if w, _ := s.Simd(); w != 8 {
		t.Fatalf("Simd width = %d, want 8", w)
	}
	if got := s.Frame().Stride(); got != 160 {
		t.Errorf("stride = %d, want 160", got)
	}

	s2, err := New(testLiteral(), 100, 50, WithSimd(8, 1))
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if got := s2.Frame().Stride(); got != 104 {
		t.Errorf("stride for width 100 = %d, want 104", got)
	}
}

func TestThreadCountsMatchPixelForPixel(t *testing.T) {
	render := func(threads int) []uint32 {
		s, err := New(testLiteral(), 160, 96, WithThreads(threads), WithDepth(1))
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		if err := s.Render(0); err != nil {
			t.Fatal(err)
		}
		out := make([]uint32, len(s.Frame().Pix()))
		copy(out, s.Frame().Pix())
		return out
	}

	one := render(1)
	for _, n := range []int{2, 4} {
		many := render(n)
		for i := range one {
			if one[i] != many[i] {
				t.Fatalf("thnum=%d pixel %d = %08x, want %08x (thnum=1)", n, i, many[i], one[i])
			}
		}
	}
}

func TestSetFsaaIdempotent(t *testing.T) {
	s := newTestScene(t)
	if err := s.Render(0); err != nil {
		t.Fatal(err)
	}
	before := make([]uint32, len(s.Frame().Pix()))
	copy(before, s.Frame().Pix())

	if got := s.SetFsaa(FsaaNo); got != FsaaNo {
		t.Errorf("SetFsaa(FsaaNo) = %v, want FsaaNo", got)
	}
	if got := s.SetFsaa(FsaaNo); got != FsaaNo {
		t.Errorf("second SetFsaa(FsaaNo) = %v, want FsaaNo", got)
	}
	for i, px := range s.Frame().Pix() {
		if px != before[i] {
			t.Fatalf("SetFsaa touched the framebuffer at pixel %d", i)
		}
	}
}

func TestSetSimdClosest(t *testing.T) {
	s := newTestScene(t)
	w, v, err := s.SetSimd(5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if w != 4 || v != 1 {
		t.Errorf("SetSimd(5, 1) = (%d, %d), want (4, 1)", w, v)
	}
	if len(s.SimdSelections()) == 0 {
		t.Error("SimdSelections is empty")
	}
}

func TestSimdWidthsRenderIdentically(t *testing.T) {
	render := func(w int) []uint32 {
		s, err := New(testLiteral(), 160, 96, WithThreads(1), WithSimd(w, 1))
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		if err := s.Render(0); err != nil {
			t.Fatal(err)
		}
		out := make([]uint32, 0, 160*96)
		for y := range 96 {
			out = append(out, s.XRow(y)...)
		}
		return out
	}
	a := render(4)
	b := render(16)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pixel %d differs across packet widths: %08x vs %08x", i, a[i], b[i])
		}
	}
}

func TestSaveFrameRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestScene(t, WithSavePrefix(filepath.Join(dir, "frame")))
	if err := s.Render(0); err != nil {
		t.Fatal(err)
	}
	path, err := s.SaveFrame(s.NextSaveIndex())
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}

	fr := s.Frame()
	for y := range fr.Height() {
		for x := range fr.Width() {
			r, g, b, _ := img.At(x, y).RGBA()
			px := fr.Row(y)[x]
			if uint32(r>>8) != (px>>16)&0xff ||
				uint32(g>>8) != (px>>8)&0xff ||
				uint32(b>>8) != px&0xff {
				t.Fatalf("saved pixel (%d,%d) differs from framebuffer", x, y)
			}
		}
	}
}

func TestStaticOptSkipsUpdate(t *testing.T) {
	s := newTestScene(t, WithThreads(1), WithOpts(DefaultOpts|OptStatic))
	if err := s.Render(0); err != nil {
		t.Fatal(err)
	}
	before := make([]uint32, len(s.Frame().Pix()))
	copy(before, s.Frame().Pix())

	// Mutate a node transform behind the engine's back: a static frame
	// must not recompose matrices, so the image cannot change.
	s.reg.Surfaces[1].Local.Pos[0] += 0.5
	if err := s.Render(1); err != nil {
		t.Fatal(err)
	}
	for i, px := range s.Frame().Pix() {
		if px != before[i] {
			t.Fatal("static frame reran the update phases")
		}
	}

	// A camera action dirties the scene and re-enables the update.
	s.Update(2, ActMoveRight)
	if err := s.Render(2); err != nil {
		t.Fatal(err)
	}
	diff := 0
	for i, px := range s.Frame().Pix() {
		if px != before[i] {
			diff++
		}
	}
	if diff == 0 {
		t.Error("camera action did not re-trigger the update phases")
	}
}

func TestNextCameraCycles(t *testing.T) {
	def := testLiteral()
	cam2 := *def.Kids[3]
	cam2.Tr.Pos = [3]float32{3, 0, -4}
	def.Kids = append(def.Kids, &cam2)

	s, err := New(def, 80, 48)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.Cameras() != 2 {
		t.Fatalf("Cameras = %d, want 2", s.Cameras())
	}
	if i := s.NextCamera(); i != 1 {
		t.Errorf("NextCamera = %d, want 1", i)
	}
	if i := s.NextCamera(); i != 0 {
		t.Errorf("NextCamera wrap = %d, want 0", i)
	}
}

func TestRenderAfterWorkerFailureKeepsSceneUsable(t *testing.T) {
	s := newTestScene(t, WithThreads(2))
	// Inject a failing phase directly.
	err := s.pool.runPhase([]func() error{
		func() error { return errors.New("boom") },
		func() error { return nil },
	})
	if !errors.Is(err, ErrWorkerFailure) {
		t.Fatalf("runPhase error = %v, want ErrWorkerFailure", err)
	}
	// The scene still renders.
	if err := s.Render(0); err != nil {
		t.Fatalf("Render after failure: %v", err)
	}
}
