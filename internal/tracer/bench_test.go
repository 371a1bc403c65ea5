package tracer

import (
	"testing"

	"github.com/gogpu/quadray/scene"
)

func benchScene() *scene.Def {
	return &scene.Def{
		Tag: scene.Array,
		Tr:  scene.Unit(),
		Kids: []*scene.Def{
			sphereDef(0x00ff0000, 1, [3]float32{0, 0, 0}),
			sphereDef(0x0000ff00, 0.5, [3]float32{1.5, 0, 1}),
			planeDef(0x004060a0, 3),
			lightDef([3]float32{0, -2, -3}),
		},
	}
}

func BenchmarkTraceTile(b *testing.B) {
	for _, w := range []int{4, 8, 16} {
		b.Run(widthName(w), func(b *testing.B) {
			c, _ := prepare(b, benchScene(), 1, FsaaNo)
			p := newPacket(w, 1)
			b.ResetTimer()
			for b.Loop() {
				p.TraceTile(c, 1, 1)
			}
		})
	}
}

func widthName(w int) string {
	switch w {
	case 4:
		return "w4"
	case 8:
		return "w8"
	default:
		return "w16"
	}
}
