package capture

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/suutaku/screencapture/internal/utils"
)

// Encoder is the file-output collaborator: it turns captured pixels into an
// image file format. The capture engine itself never encodes anything.
type Encoder interface {
	Encode(w io.Writer, d *Data) error
}

// PNGEncoder writes captures as PNG. Channel reordering into RGBA happens
// here, keeping the engine's raw-delivery contract intact.
type PNGEncoder struct{}

func (PNGEncoder) Encode(w io.Writer, d *Data) error {
	if len(d.Pix) != d.Width*d.Height*BytesPerPixel {
		return fmt.Errorf("pixel buffer is %d bytes, want %d", len(d.Pix), d.Width*d.Height*BytesPerPixel)
	}

	img, err := utils.CreateImage(image.Rect(0, 0, d.Width, d.Height))
	if err != nil {
		return err
	}

	for i := 0; i < len(d.Pix); i += 4 {
		var r, g, b byte
		switch d.Format {
		case FormatBGRA:
			r, g, b = d.Pix[i+2], d.Pix[i+1], d.Pix[i]
		case FormatARGB:
			r, g, b = d.Pix[i+1], d.Pix[i+2], d.Pix[i+3]
		default:
			r, g, b = d.Pix[i], d.Pix[i+1], d.Pix[i+2]
		}
		// set A to 255: the desktop surface carries no meaningful alpha
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
	}

	return png.Encode(w, img)
}

// encodeToFile hands d to the encoder. Failures come back as *EncodeError so
// callers can tell them apart from capture failures.
func encodeToFile(enc Encoder, d *Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	if err := enc.Encode(f, d); err != nil {
		f.Close()
		os.Remove(path)
		return &EncodeError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	return nil
}
