package quadray

import "testing"

func TestNewFrameStride(t *testing.T) {
	tests := []struct {
		w, align, want int
	}{
		{160, 8, 160},
		{100, 8, 104},
		{100, 16, 112},
		{7, 4, 8},
		{7, 1, 7},
	}
	for _, tt := range tests {
		f, err := NewFrame(tt.w, 10, tt.align, nil)
		if err != nil {
			t.Fatalf("NewFrame(%d, 10, %d): %v", tt.w, tt.align, err)
		}
		if f.Stride() != tt.want {
			t.Errorf("stride(w=%d, align=%d) = %d, want %d", tt.w, tt.align, f.Stride(), tt.want)
		}
		if len(f.Row(9)) != tt.w {
			t.Errorf("row length = %d, want %d", len(f.Row(9)), tt.w)
		}
	}
}

func TestNewFrameBadArgs(t *testing.T) {
	if _, err := NewFrame(0, 10, 8, nil); err == nil {
		t.Error("NewFrame with zero width: err = nil")
	}
	if _, err := NewFrame(100, 100, 8, make([]uint32, 10)); err == nil {
		t.Error("NewFrame with short caller buffer: err = nil")
	}
}

func TestFrameCallerBuffer(t *testing.T) {
	pix := make([]uint32, 104*10)
	f, err := NewFrame(100, 10, 8, pix)
	if err != nil {
		t.Fatal(err)
	}
	f.Clear(0xff123456)
	if pix[0] != 0xff123456 {
		t.Error("Clear did not write through to the caller's buffer")
	}
}

func TestFrameAt(t *testing.T) {
	f, err := NewFrame(4, 4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.Row(1)[2] = 0xff804020
	r, g, b, a := f.At(2, 1).RGBA()
	if r>>8 != 0x80 || g>>8 != 0x40 || b>>8 != 0x20 || a>>8 != 0xff {
		t.Errorf("At(2,1) = %04x %04x %04x %04x", r, g, b, a)
	}
	if r, _, _, _ := f.At(-1, 0).RGBA(); r != 0 {
		t.Error("out-of-bounds At is not zero")
	}
}

func TestDrawTextMarksPixels(t *testing.T) {
	f, err := NewFrame(120, 30, 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.Clear(0xff000000)
	f.DrawText(2, 20, "fps 60.0", 0xffffffff)

	lit := 0
	for y := range f.Height() {
		for _, px := range f.Row(y) {
			if px != 0xff000000 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("DrawText left the frame untouched")
	}
}
