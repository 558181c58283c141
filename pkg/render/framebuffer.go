package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// MaxPixels bounds the number of pixels a single framebuffer may hold.
const MaxPixels = 1 << 26

// ErrFramebufferSize is returned for shapes that are negative or exceed
// MaxPixels.
var ErrFramebufferSize = errors.New("render: framebuffer size out of range")

// CheckSize reports whether a width x height buffer can be allocated.
func CheckSize(width, height int) error {
	if width < 0 || height < 0 || (height != 0 && width > MaxPixels/height) {
		return fmt.Errorf("%w: %dx%d", ErrFramebufferSize, width, height)
	}
	return nil
}

// Framebuffer is an addressable grid of packed ARGB8888 pixels.
//
// The pixel primitives (SetPixel, AddPixel, GetPixel, Fill) never lock.
// Whoever mutates or reads the buffer while another party may touch it
// holds Lock for the duration; the rasterizer does so per triangle and
// presenters do so while copying.
type Framebuffer struct {
	Width  int
	Height int
	Stride int      // Pixels per row
	Pix    []uint32 // Row-major, len = Stride*Height
	BG     Color    // Background color used by Clear

	mu sync.Mutex
}

// NewFramebuffer creates a framebuffer filled with opaque black.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{BG: ColorBlack}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the pixel storage and clears it to the background.
// Negative sizes are treated as zero; it panics with ErrFramebufferSize
// when the shape exceeds MaxPixels.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if err := CheckSize(width, height); err != nil {
		panic(err)
	}
	fb.Width = width
	fb.Height = height
	fb.Stride = width
	fb.Pix = make([]uint32, width*height)
	fb.Clear()
}

// Lock acquires exclusive access to the pixel storage.
func (fb *Framebuffer) Lock() { fb.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (fb *Framebuffer) Unlock() { fb.mu.Unlock() }

// InBounds reports whether (x, y) addresses a pixel of the buffer.
func (fb *Framebuffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < fb.Width && y < fb.Height
}

// SetPixel stores c at (x, y). Out-of-range coordinates are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if !fb.InBounds(x, y) {
		return
	}
	fb.Pix[y*fb.Stride+x] = c.Packed()
}

// AddPixel adds c to the color stored at (x, y), channel by channel.
// Out-of-range coordinates are ignored.
func (fb *Framebuffer) AddPixel(x, y int, c Color) {
	if !fb.InBounds(x, y) {
		return
	}
	i := y*fb.Stride + x
	fb.Pix[i] = Unpack(fb.Pix[i]).Add(c).Packed()
}

// GetPixel returns the color at (x, y), or the zero Color when out of range.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if !fb.InBounds(x, y) {
		return Color{}
	}
	return Unpack(fb.Pix[y*fb.Stride+x])
}

// Fill sets every pixel to c.
func (fb *Framebuffer) Fill(c Color) {
	n := len(fb.Pix)
	if n == 0 {
		return
	}
	// Use copy-doubling for faster clearing
	fb.Pix[0] = c.Packed()
	for i := 1; i < n; i *= 2 {
		copy(fb.Pix[i:], fb.Pix[:i])
	}
}

// Clear fills the buffer with the background color.
func (fb *Framebuffer) Clear() {
	fb.Fill(fb.BG)
}

// ToImage converts the framebuffer to an RGBA image.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		row := fb.Pix[y*fb.Stride : y*fb.Stride+fb.Width]
		off := y * img.Stride
		for x, p := range row {
			c := Unpack(p)
			img.Pix[off+x*4] = c.R
			img.Pix[off+x*4+1] = c.G
			img.Pix[off+x*4+2] = c.B
			img.Pix[off+x*4+3] = c.A
		}
	}
	return img
}

// FromImage creates a framebuffer holding the pixels of img.
func FromImage(img image.Image) *Framebuffer {
	b := img.Bounds()
	fb := NewFramebuffer(b.Dx(), b.Dy())
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			fb.Pix[y*fb.Stride+x] = Color{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)}.Packed()
		}
	}
	return fb
}

// SavePNG writes the framebuffer to a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	return writeImage(path, png.Encode, fb.ToImage())
}
