package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Framebuffer holds the pixels of one frame. On a terminal each cell shows
// two vertically stacked pixels, so Height is twice the row count.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA // row-major
}

// NewFramebuffer allocates a width × height framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

func (fb *Framebuffer) inBounds(x, y int) bool {
	return x >= 0 && x < fb.Width && y >= 0 && y < fb.Height
}

// Clear fills every pixel with c.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// SetPixel writes c at (x, y). Out-of-range writes are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if fb.inBounds(x, y) {
		fb.Pixels[y*fb.Width+x] = c
	}
}

// GetPixel returns the pixel at (x, y), or transparent black outside.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if !fb.inBounds(x, y) {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// CopyFrom makes fb an exact copy of src, reallocating if the sizes differ.
func (fb *Framebuffer) CopyFrom(src *Framebuffer) {
	if fb.Width != src.Width || fb.Height != src.Height {
		fb.Width, fb.Height = src.Width, src.Height
		fb.Pixels = make([]color.RGBA, len(src.Pixels))
	}
	copy(fb.Pixels, src.Pixels)
}

// Clone returns a copy of fb.
func (fb *Framebuffer) Clone() *Framebuffer {
	out := &Framebuffer{}
	out.CopyFrom(fb)
	return out
}

// DrawLine draws a Bresenham line between two pixel positions.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Blend composites c over the pixel at (x, y) with the given coverage in
// [0, 1]. The stored pixel stays opaque.
func (fb *Framebuffer) Blend(x, y int, c color.RGBA, alpha float64) {
	if !fb.inBounds(x, y) || alpha <= 0 {
		return
	}
	alpha = min(alpha, 1)
	i := y*fb.Width + x
	dst := fb.Pixels[i]
	mix := func(s, d uint8) uint8 {
		return uint8(float64(s)*alpha + float64(d)*(1-alpha) + 0.5)
	}
	fb.Pixels[i] = color.RGBA{mix(c.R, dst.R), mix(c.G, dst.G), mix(c.B, dst.B), 255}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	if x < 0 {
		return -1
	}
	return 1
}

// ToImage converts the framebuffer to an *image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for i, p := range fb.Pixels {
		img.Pix[i*4+0] = p.R
		img.Pix[i*4+1] = p.G
		img.Pix[i*4+2] = p.B
		img.Pix[i*4+3] = p.A
	}
	return img
}

// SavePNG writes the framebuffer to path as a PNG.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
