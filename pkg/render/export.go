package render

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

var (
	// ErrPPM is returned when a pixel map cannot be parsed.
	ErrPPM = errors.New("render: malformed P3 pixel map")
	// ErrUnsupportedFormat is returned by Save for unknown file extensions.
	ErrUnsupportedFormat = errors.New("render: unsupported image format")
)

// WritePPM writes the buffer as a plain-text P3 pixel map: a
// "P3 <w> <h> 255" header line followed by one "r g b" line per pixel in
// row-major order.
func (fb *Framebuffer) WritePPM(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3 %d %d 255\n", fb.Width, fb.Height); err != nil {
		return err
	}
	line := make([]byte, 0, 12)
	for y := 0; y < fb.Height; y++ {
		for _, p := range fb.Pix[y*fb.Stride : y*fb.Stride+fb.Width] {
			c := Unpack(p)
			line = strconv.AppendUint(line[:0], uint64(c.R), 10)
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(c.G), 10)
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(c.B), 10)
			line = append(line, '\n')
			if _, err := bw.Write(line); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ExportPPM writes the buffer to path as a P3 pixel map.
func (fb *Framebuffer) ExportPPM(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pixel map: %w", err)
	}
	if err := fb.WritePPM(f); err != nil {
		f.Close()
		return fmt.Errorf("write pixel map: %w", err)
	}
	return f.Close()
}

// DecodePPM reads a P3 pixel map. Tokens may be separated by any
// whitespace and '#' starts a comment that runs to the end of the line.
// Channel values are rescaled when the declared maximum is not 255.
func DecodePPM(r io.Reader) (*Framebuffer, error) {
	tr := &ppmTokens{r: bufio.NewReader(r)}

	magic, err := tr.next()
	if err != nil {
		return nil, fmt.Errorf("%w: reading magic: %w", ErrPPM, err)
	}
	if magic != "P3" {
		return nil, fmt.Errorf("%w: magic %q, want P3", ErrPPM, magic)
	}
	var header [3]int
	for i, name := range []string{"width", "height", "maxval"} {
		if header[i], err = tr.int(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrPPM, name, err)
		}
	}
	width, height, maxval := header[0], header[1], header[2]
	if width < 0 || height < 0 || maxval <= 0 || maxval > 65535 {
		return nil, fmt.Errorf("%w: bad header %dx%d max %d", ErrPPM, width, height, maxval)
	}
	if err := CheckSize(width, height); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPPM, err)
	}

	fb := NewFramebuffer(width, height)
	for i := range width * height {
		var ch [3]uint8
		for k := range ch {
			v, err := tr.int()
			if err != nil {
				return nil, fmt.Errorf("%w: pixel %d: %w", ErrPPM, i, err)
			}
			if v < 0 || v > maxval {
				return nil, fmt.Errorf("%w: pixel %d: value %d out of range", ErrPPM, i, v)
			}
			ch[k] = uint8(v * 255 / maxval)
		}
		fb.Pix[i] = RGB(ch[0], ch[1], ch[2]).Packed()
	}
	return fb, nil
}

// ppmTokens splits a pixel map into whitespace-separated tokens.
type ppmTokens struct {
	r   *bufio.Reader
	buf []byte
}

func (t *ppmTokens) next() (string, error) {
	t.buf = t.buf[:0]
	for {
		b, err := t.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(t.buf) > 0 {
				return string(t.buf), nil
			}
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch {
		case b == '#' && len(t.buf) == 0:
			if _, err := t.r.ReadString('\n'); err != nil && err != io.EOF {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f':
			if len(t.buf) > 0 {
				return string(t.buf), nil
			}
		default:
			t.buf = append(t.buf, b)
		}
	}
}

func (t *ppmTokens) int() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

// Image returns the buffer as an image, upscaled by an integer factor with
// nearest-neighbor sampling when scale > 1.
func (fb *Framebuffer) Image(scale int) image.Image {
	src := fb.ToImage()
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, fb.Width*scale, fb.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Save writes the buffer to path, choosing the encoder from the file
// extension: .ppm, .png, .webp, .tga or .bmp.
func (fb *Framebuffer) Save(path string, scale int) error {
	if scale > 1 {
		if scale > MaxPixels || CheckSize(fb.Width*scale, fb.Height*scale) != nil {
			return fmt.Errorf("%w: %dx%d scaled by %d", ErrFramebufferSize, fb.Width, fb.Height, scale)
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".ppm" {
		if scale > 1 {
			return FromImage(fb.Image(scale)).ExportPPM(path)
		}
		return fb.ExportPPM(path)
	}

	var encode func(io.Writer, image.Image) error
	switch ext {
	case ".png":
		encode = png.Encode
	case ".webp":
		encode = func(w io.Writer, img image.Image) error {
			return nativewebp.Encode(w, img, nil)
		}
	case ".tga":
		encode = tga.Encode
	case ".bmp":
		encode = bmp.Encode
	default:
		return fmt.Errorf("%w: %q (use .ppm, .png, .webp, .tga or .bmp)", ErrUnsupportedFormat, ext)
	}

	return writeImage(path, encode, fb.Image(scale))
}

func writeImage(path string, encode func(io.Writer, image.Image) error, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
