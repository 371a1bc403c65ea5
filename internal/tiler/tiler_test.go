package tiler

import (
	"testing"

	"github.com/gogpu/quadray/internal/linear"
	"github.com/gogpu/quadray/object"
)

func testView() View {
	return NewView(
		linear.V3{0, 0, 0},
		linear.V3{1, 0, 0},
		linear.V3{0, 1, 0},
		linear.V3{0, 0, 1},
		1, 160, 160,
	)
}

// quad builds a fake surface with a 4-vertex polyhedron.
func quad(seq int, c [4]linear.V3) *object.Object {
	o := &object.Object{Seq: seq}
	for _, p := range c {
		o.Verts = append(o.Verts, object.Vert{P: p})
	}
	o.Edges = []object.Edge{{V0: 0, V1: 1}, {V0: 1, V1: 2}, {V0: 2, V1: 3}, {V0: 3, V1: 0}}
	var mid linear.V3
	for _, p := range c {
		mid = mid.Add(p)
	}
	o.Mid = mid.Scale(0.25)
	for _, p := range c {
		if d := p.Sub(o.Mid).Len(); d > o.SphRad {
			o.SphRad = d
		}
	}
	return o
}

func centerQuad(seq int, z float32) *object.Object {
	return quad(seq, [4]linear.V3{
		{-0.5, -0.5, z}, {0.5, -0.5, z}, {0.5, 0.5, z}, {-0.5, 0.5, z},
	})
}

func TestBinSmallQuad(t *testing.T) {
	v := testView()
	g := NewGrid(v.Xres, v.Yres)
	b := NewBinner(g)

	// At z=5 the half-unit quad projects to +-8 px around the screen
	// center: pixels 72..88, tiles 4..5 on both axes.
	b.Bin(&v, []*object.Object{centerQuad(0, 5)})
	Merge(g, []*Binner{b})

	for ty := range g.Rows {
		for tx := range g.Cols {
			want := tx >= 4 && tx <= 5 && ty >= 4 && ty <= 5
			got := len(g.At(tx, ty)) > 0
			if got != want {
				t.Errorf("tile (%d,%d) binned = %v, want %v", tx, ty, got, want)
			}
		}
	}
}

func TestBinOffscreen(t *testing.T) {
	v := testView()
	g := NewGrid(v.Xres, v.Yres)
	b := NewBinner(g)

	// Far off to the right: x=100 at z=5 projects ~1680 px off-screen.
	off := quad(0, [4]linear.V3{
		{99.5, -0.5, 5}, {100.5, -0.5, 5}, {100.5, 0.5, 5}, {99.5, 0.5, 5},
	})
	b.Bin(&v, []*object.Object{off})
	Merge(g, []*Binner{b})

	for i := range g.Lists {
		if len(g.Lists[i]) != 0 {
			t.Fatalf("off-screen surface binned into tile %d", i)
		}
	}
}

func TestBinBehindCamera(t *testing.T) {
	v := testView()
	g := NewGrid(v.Xres, v.Yres)
	b := NewBinner(g)

	b.Bin(&v, []*object.Object{centerQuad(0, -5)})
	Merge(g, []*Binner{b})
	for i := range g.Lists {
		if len(g.Lists[i]) != 0 {
			t.Fatalf("behind-camera surface binned into tile %d", i)
		}
	}
}

func TestBinUnbounded(t *testing.T) {
	v := testView()
	g := NewGrid(v.Xres, v.Yres)
	b := NewBinner(g)

	// No polyhedron: the surface extends to infinity and lands in
	// every tile.
	b.Bin(&v, []*object.Object{{Seq: 0, SphRad: linear.Inf}})
	Merge(g, []*Binner{b})
	for i := range g.Lists {
		if len(g.Lists[i]) != 1 {
			t.Fatalf("unbounded surface missing from tile %d", i)
		}
	}
}

func TestBinNearPlaneCrossing(t *testing.T) {
	v := testView()
	g := NewGrid(v.Xres, v.Yres)
	b := NewBinner(g)

	// A quad crossing the near plane: the in-front part still bins.
	cross := quad(0, [4]linear.V3{
		{-0.5, -0.5, -1}, {0.5, -0.5, -1}, {0.5, 0.5, 4}, {-0.5, 0.5, 4},
	})
	b.Bin(&v, []*object.Object{cross})
	Merge(g, []*Binner{b})

	total := 0
	for i := range g.Lists {
		total += len(g.Lists[i])
	}
	if total == 0 {
		t.Error("near-plane-crossing surface produced no insertions")
	}
}

func TestSortTileFrontToBack(t *testing.T) {
	v := testView()
	near := centerQuad(2, 3)
	mid := centerQuad(0, 6)
	far := centerQuad(1, 9)

	list := []*object.Object{far, mid, near}
	SortTile(list, &v)
	if list[0] != near || list[1] != mid || list[2] != far {
		t.Errorf("sorted seqs = [%d %d %d], want [2 0 1]",
			list[0].Seq, list[1].Seq, list[2].Seq)
	}

	// Determinism: a different pre-sort order yields the same result.
	list2 := []*object.Object{mid, near, far}
	SortTile(list2, &v)
	for i := range list {
		if list[i] != list2[i] {
			t.Fatal("sort depends on the pre-sort order")
		}
	}
}

func TestSortTileSeqTieBreak(t *testing.T) {
	v := testView()
	a := centerQuad(1, 5)
	b := centerQuad(0, 5)
	list := []*object.Object{a, b}
	SortTile(list, &v)
	if list[0].Seq != 0 || list[1].Seq != 1 {
		t.Errorf("tie broken by seq: got [%d %d], want [0 1]", list[0].Seq, list[1].Seq)
	}
}

func TestSortLights(t *testing.T) {
	mk := func(seq int, x, lum float32) *object.Object {
		o := &object.Object{Seq: seq}
		o.Mtx = linear.Translate(linear.V3{x, 0, 0})
		o.Lum = [2]float32{0.1, lum}
		return o
	}
	far := mk(0, 10, 1)
	close := mk(1, 1, 1)
	bright := mk(2, 10, 100)

	lights := []*object.Object{far, close, bright}
	SortLights(lights, linear.V3{})
	if lights[0] != bright && lights[0] != close {
		t.Errorf("first light after sort has seq %d, want a near or bright one", lights[0].Seq)
	}
	if lights[len(lights)-1] != far {
		t.Errorf("last light after sort has seq %d, want the far dim one", lights[len(lights)-1].Seq)
	}
}

func TestGridReset(t *testing.T) {
	v := testView()
	g := NewGrid(v.Xres, v.Yres)
	b := NewBinner(g)
	b.Bin(&v, []*object.Object{centerQuad(0, 5)})
	Merge(g, []*Binner{b})
	g.Reset()
	for i := range g.Lists {
		if len(g.Lists[i]) != 0 {
			t.Fatalf("tile %d not empty after Reset", i)
		}
	}
}
