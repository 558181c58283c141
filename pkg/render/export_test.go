package render

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

func TestWritePPMSolid(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.Fill(RGB(200, 100, 50))

	var buf bytes.Buffer
	if err := fb.WritePPM(&buf); err != nil {
		t.Fatal(err)
	}
	want := "P3 2 2 255\n200 100 50\n200 100 50\n200 100 50\n200 100 50\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestPPMRoundTrip(t *testing.T) {
	fb := NewFramebuffer(5, 3)
	for y := range fb.Height {
		for x := range fb.Width {
			fb.SetPixel(x, y, RGB(uint8(x*50), uint8(y*80), uint8(x+y)))
		}
	}
	var first bytes.Buffer
	if err := fb.WritePPM(&first); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodePPM(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("DecodePPM: %v", err)
	}
	var second bytes.Buffer
	if err := decoded.WritePPM(&second); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Errorf("re-encoded pixel map differs:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestDecodePPMLoose(t *testing.T) {
	in := "P3\n# a comment\n2 1\n15\n15 0 0   0 15\n0\n"
	fb, err := DecodePPM(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if fb.Width != 2 || fb.Height != 1 {
		t.Fatalf("size %dx%d", fb.Width, fb.Height)
	}
	if got := fb.GetPixel(0, 0); got != ColorRed {
		t.Errorf("pixel 0 = %v, want red", got)
	}
	if got := fb.GetPixel(1, 0); got != ColorGreen {
		t.Errorf("pixel 1 = %v, want green", got)
	}
}

func TestDecodePPMErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"wrong magic", "P6 1 1 255\n0 0 0\n"},
		{"truncated", "P3 2 1 255\n1 2 3\n4 5\n"},
		{"value over max", "P3 1 1 100\n101 0 0\n"},
		{"bad number", "P3 1 x 255\n"},
		{"empty", ""},
		{"negative size", "P3 -1 2 255\n"},
		{"size product wraps", "P3 4294967296 4294967296 255\n"},
		{"too many pixels", "P3 100000 100000 255\n0 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePPM(strings.NewReader(tt.in)); !errors.Is(err, ErrPPM) {
				t.Errorf("err = %v, want ErrPPM", err)
			}
		})
	}
}

func TestExportPPM(t *testing.T) {
	fb := NewFramebuffer(3, 1)
	fb.SetPixel(1, 0, ColorCyan)
	path := filepath.Join(t.TempDir(), "frame.ppm")
	if err := fb.ExportPPM(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "P3 3 1 255\n0 0 0\n0 255 255\n0 0 0\n"; string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestSaveFormats(t *testing.T) {
	fb := NewFramebuffer(6, 4)
	fb.SetPixel(2, 1, ColorRed)
	dir := t.TempDir()

	decoders := map[string]func(*os.File) (image.Image, error){
		".png": func(f *os.File) (image.Image, error) { return png.Decode(f) },
		".tga": func(f *os.File) (image.Image, error) { return tga.Decode(f) },
		".bmp": func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
	}
	for _, ext := range []string{".png", ".tga", ".bmp", ".webp", ".ppm"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "frame"+ext)
			if err := fb.Save(path, 2); err != nil {
				t.Fatalf("Save: %v", err)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			var img image.Image
			switch decode, ok := decoders[ext]; {
			case ok:
				img, err = decode(f)
			case ext == ".ppm":
				var got *Framebuffer
				got, err = DecodePPM(f)
				if got != nil {
					img = got.ToImage()
				}
			default:
				info, serr := f.Stat()
				if serr != nil || info.Size() == 0 {
					t.Fatalf("empty %s output", ext)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
				t.Fatalf("decoded size %dx%d, want 12x8", b.Dx(), b.Dy())
			}
			r, g, b, _ := img.At(5, 3).RGBA()
			if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
				t.Errorf("upscaled pixel = %d,%d,%d, want red", r>>8, g>>8, b>>8)
			}
		})
	}

	if err := fb.Save(filepath.Join(dir, "frame.gif"), 1); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Save(.gif) = %v, want ErrUnsupportedFormat", err)
	}
	huge := filepath.Join(dir, "huge.png")
	if err := fb.Save(huge, MaxPixels); !errors.Is(err, ErrFramebufferSize) {
		t.Errorf("Save(scale %d) = %v, want ErrFramebufferSize", MaxPixels, err)
	}
	if _, err := os.Stat(huge); err == nil {
		t.Error("oversized save created a file")
	}
}

// The layout written by the C renderer, tab-separated triplets on a single
// line, decodes and re-encodes in canonical form.
func TestDecodePPMSingleLine(t *testing.T) {
	in := "P3 2 1 255\n200 100 50\t1 2 3\t"
	fb, err := DecodePPM(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := fb.WritePPM(&buf); err != nil {
		t.Fatal(err)
	}
	if want := "P3 2 1 255\n200 100 50\n1 2 3\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
