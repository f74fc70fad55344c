package native

import (
	"bytes"
	"image"
	"testing"
)

// paddedFrame builds a w x h frame whose stride carries pad extra bytes per
// row. Each pixel is tagged with its coordinates so copies can be verified,
// and padding bytes are poisoned with 0xEE.
func paddedFrame(w, h, pad int) *Frame {
	stride := w*BytesPerPixel + pad
	pix := make([]byte, stride*h)
	for i := range pix {
		pix[i] = 0xEE
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*stride + x*BytesPerPixel
			pix[off+0] = byte(x)
			pix[off+1] = byte(y)
			pix[off+2] = 0xAB
			pix[off+3] = 0xFF
		}
	}
	return &Frame{Pix: pix, Stride: stride, Width: w, Height: h, Format: FormatBGRA}
}

func TestCopyHonorsStride(t *testing.T) {
	f := paddedFrame(8, 6, 12)

	got, err := f.Copy(image.Rect(2, 1, 7, 5))
	if err != nil {
		t.Fatalf("Copy() failed: %v", err)
	}
	w, h := 5, 4
	if len(got) != w*h*BytesPerPixel {
		t.Fatalf("Copy() returned %d bytes, want %d", len(got), w*h*BytesPerPixel)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * BytesPerPixel
			wantX, wantY := byte(x+2), byte(y+1)
			if got[off] != wantX || got[off+1] != wantY {
				t.Fatalf("pixel (%d,%d) = (%d,%d), want (%d,%d)", x, y, got[off], got[off+1], wantX, wantY)
			}
		}
	}
	if bytes.Contains(got, []byte{0xEE, 0xEE, 0xEE, 0xEE}) {
		t.Fatal("Copy() leaked stride padding into the output")
	}
}

func TestCopyFullFrame(t *testing.T) {
	f := paddedFrame(4, 3, 0)
	got, err := f.Copy(f.Bounds())
	if err != nil {
		t.Fatalf("Copy() failed: %v", err)
	}
	if !bytes.Equal(got, f.Pix) {
		t.Fatal("zero-padding full-frame copy should equal the backing pixels")
	}
	// The copy must be owned by the caller, not alias the frame.
	got[0] ^= 0xFF
	if f.Pix[0] == got[0] {
		t.Fatal("Copy() aliases the frame's backing buffer")
	}
}

func TestCopyRejectsOutOfBounds(t *testing.T) {
	f := paddedFrame(8, 6, 4)
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 9, 6),   // too wide
		image.Rect(0, 0, 8, 7),   // too tall
		image.Rect(5, 5, 10, 10), // overhangs both
		image.Rect(-1, 0, 4, 4),  // negative origin
		image.Rect(3, 3, 3, 5),   // zero width
	} {
		if _, err := f.Copy(r); err != ErrOutOfBounds {
			t.Errorf("Copy(%v) = %v, want ErrOutOfBounds", r, err)
		}
	}
}

func TestCopyAllocatesFreshBuffers(t *testing.T) {
	f := paddedFrame(4, 4, 8)
	a, err := f.Copy(image.Rect(0, 0, 2, 2))
	if err != nil {
		t.Fatalf("Copy() failed: %v", err)
	}
	b, err := f.Copy(image.Rect(0, 0, 2, 2))
	if err != nil {
		t.Fatalf("Copy() failed: %v", err)
	}
	a[0] = 0x55
	if b[0] == 0x55 {
		t.Fatal("successive Copy() calls shared a buffer")
	}
}
