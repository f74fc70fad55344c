package utils

import (
	"errors"
	"image"
)

// CreateImage allocates an RGBA image for the given bounds. image.NewRGBA
// panics on pathological rectangles, so the panic is converted to an error.
func CreateImage(rect image.Rectangle) (img *image.RGBA, e error) {
	img = nil
	e = errors.New("cannot create image.RGBA")

	defer func() {
		recover()
	}()

	img = image.NewRGBA(rect)
	e = nil
	return img, e
}
