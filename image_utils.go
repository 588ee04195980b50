package foodprep

import (
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// DefaultJPEGQuality is the quality used when encoding JPEG outputs.
const DefaultJPEGQuality = 95

// loadImage reads and decodes the image at path.
func loadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load image %q", path)
	}
	return img, nil
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// saveImage saves the image to path, encoding it according to the file extension of path.
func saveImage(path string, img image.Image, jpegQuality int) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return errors.Wrapf(err, "failed to save image %q", path)
	}
	return nil
}

// resizeExact resamples img to exactly width x height pixels, ignoring the aspect ratio.
//
// The linear filter matches bilinear interpolation when upsampling; a box filter is used when
// both dimensions shrink.
func resizeExact(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	filter := imaging.Linear
	if width < b.Dx() && height < b.Dy() {
		filter = imaging.Box
	}
	return imaging.Resize(img, width, height, filter)
}

// Tensor is an image normalized to [0,1] floats, stored row-major with interleaved RGB channels.
type Tensor struct {
	Width, Height int
	Data          []float64
}

// Normalize converts img to a Tensor, scaling each 8 bit channel by 1/255. Alpha is dropped.
func Normalize(img image.Image) *Tensor {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	t := &Tensor{Width: w, Height: h, Data: make([]float64, 0, w*h*3)}

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			t.Data = append(t.Data, float64(p[0])/255, float64(p[1])/255, float64(p[2])/255)
		}
	}

	return t
}

// Denormalize converts the tensor back to an opaque 8 bit image, rounding to the nearest value so
// that Denormalize(Normalize(img)) reproduces an opaque img exactly.
func Denormalize(t *Tensor) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))

	toByte := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}

	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			i := (y*t.Width + x) * 3
			o := y*dst.Stride + x*4
			dst.Pix[o] = toByte(t.Data[i])
			dst.Pix[o+1] = toByte(t.Data[i+1])
			dst.Pix[o+2] = toByte(t.Data[i+2])
			dst.Pix[o+3] = 0xff
		}
	}

	return dst
}
