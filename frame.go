package quadray

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Compile-time interface check.
var _ image.Image = (*Frame)(nil)

// Frame is the render target: a 32bpp XRGB buffer whose row stride is
// the pixel width rounded up to the SIMD lane count, so packet stores
// never split across rows.
//
// Render workers write disjoint tile regions concurrently; everything
// else (saving, display readback, overlay text) happens between frames
// on the coordinator.
type Frame struct {
	width  int
	height int
	stride int
	pix    []uint32
}

// NewFrame creates a frame buffer for width x height pixels with the
// stride aligned up to align pixels. An existing pixel slice may be
// passed to render into caller-owned memory; it must hold at least
// stride*height pixels.
func NewFrame(width, height, align int, pix []uint32) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("quadray: bad frame size %dx%d", width, height)
	}
	if align <= 0 {
		align = 1
	}
	stride := (width + align - 1) / align * align
	if pix == nil {
		pix = make([]uint32, stride*height)
	} else if len(pix) < stride*height {
		return nil, fmt.Errorf("quadray: frame slice holds %d pixels, need %d",
			len(pix), stride*height)
	}
	return &Frame{width: width, height: height, stride: stride, pix: pix}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Stride returns the row stride in pixels.
func (f *Frame) Stride() int { return f.stride }

// Pix returns the raw XRGB pixel buffer, stride-aligned rows.
func (f *Frame) Pix() []uint32 { return f.pix }

// Row returns one row of pixels, width long.
func (f *Frame) Row(y int) []uint32 {
	off := y * f.stride
	return f.pix[off : off+f.width]
}

// Clear fills the frame with one XRGB value.
func (f *Frame) Clear(xrgb uint32) {
	for i := range f.pix {
		f.pix[i] = xrgb
	}
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return color.RGBA{}
	}
	px := f.pix[y*f.stride+x]
	return color.RGBA{
		R: uint8(px >> 16),
		G: uint8(px >> 8),
		B: uint8(px),
		A: 0xff,
	}
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

// ToImage copies the frame into an image.RGBA, dropping the stride
// padding.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := range f.height {
		row := f.Row(y)
		for x, px := range row {
			i := y*img.Stride + x*4
			img.Pix[i+0] = uint8(px >> 16)
			img.Pix[i+1] = uint8(px >> 8)
			img.Pix[i+2] = uint8(px)
			img.Pix[i+3] = 0xff
		}
	}
	return img
}

// SavePNG writes the frame to a PNG file.
func (f *Frame) SavePNG(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()
	return png.Encode(out, f.ToImage())
}

// DrawText draws a line of overlay text onto the frame at pixel (x, y)
// using the built-in bitmap face. Used for the FPS and state overlays;
// y is the text baseline.
func (f *Frame) DrawText(x, y int, text string, xrgb uint32) {
	c := color.RGBA{
		R: uint8(xrgb >> 16),
		G: uint8(xrgb >> 8),
		B: uint8(xrgb),
		A: 0xff,
	}
	d := font.Drawer{
		Dst:  &frameDraw{f},
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// frameDraw adapts Frame to draw.Image for the font drawer.
type frameDraw struct {
	f *Frame
}

func (w *frameDraw) At(x, y int) color.Color       { return w.f.At(x, y) }
func (w *frameDraw) Bounds() image.Rectangle       { return w.f.Bounds() }
func (w *frameDraw) ColorModel() color.Model       { return w.f.ColorModel() }
func (w *frameDraw) Set(x, y int, c color.Color) {
	if x < 0 || x >= w.f.width || y < 0 || y >= w.f.height {
		return
	}
	r, g, b, _ := c.RGBA()
	w.f.pix[y*w.f.stride+x] = 0xff000000 |
		uint32(r>>8)<<16 | uint32(g>>8)<<8 | uint32(b>>8)
}
