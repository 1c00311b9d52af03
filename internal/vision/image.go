// Package vision turns image files into model input tensors.
package vision

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // register the WebP decoder for imaging.Open

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Channels is the channel count of every tensor this package produces.
const Channels = 3

// LoadImage decodes the image at path (JPEG, PNG, GIF, BMP, TIFF or WebP),
// applies its EXIF orientation and returns it as a [1, 3, size, size] RGB
// tensor scaled to [0, 1].
func LoadImage[B tensor.Backend](path string, size int, backend B) (*tensor.Tensor[B], error) {
	if size <= 0 {
		return nil, errors.Errorf("load image: invalid size %d", size)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "load image")
	}
	return FromImage(img, size, backend)
}

// FromImage resizes img to size×size and converts it to a [1, 3, size, size]
// tensor in [0, 1]. Alpha is dropped.
func FromImage[B tensor.Backend](img image.Image, size int, backend B) (*tensor.Tensor[B], error) {
	if size <= 0 {
		return nil, errors.Errorf("from image: invalid size %d", size)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("from image: empty image")
	}

	resized := imaging.Resize(img, size, size, imaging.Linear)
	plane := size * size
	data := make([]float32, Channels*plane)
	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < size; x++ {
			px := row[4*x:]
			at := y*size + x
			data[at] = float32(px[0]) / 255
			data[plane+at] = float32(px[1]) / 255
			data[2*plane+at] = float32(px[2]) / 255
		}
	}
	return tensor.FromSlice(data, tensor.Shape{1, Channels, size, size}, backend)
}
