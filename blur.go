package foodprep

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// DefaultBlurThreshold is the focus measure below which an image counts as blurry.
const DefaultBlurThreshold = 100.0

// FocusMeasure returns the variance of the Laplacian of the luma of img. Sharper images have
// stronger second derivatives and therefore a larger value.
//
// The variance is zero for images smaller than 3x3 pixels that have no interior structure.
var FocusMeasure = laplacianVariance

// QualityFilter classifies images as usable or blurry.
type QualityFilter struct {
	Threshold float64 // Images with a focus measure strictly below the threshold are blurry.
}

// Measure returns the focus measure of img.
func (f QualityFilter) Measure(img image.Image) float64 {
	return FocusMeasure(img)
}

// IsBlurry reports whether img is blurry, along with its focus measure.
func (f QualityFilter) IsBlurry(img image.Image) (bool, float64) {
	m := f.Measure(img)
	return f.Rejects(m), m
}

// Rejects reports whether the focus measure m is below the threshold.
func (f QualityFilter) Rejects(m float64) bool {
	return m < f.Threshold
}

// luma converts img to 8 bit BT.601 luma values (0.299R + 0.587G + 0.114B), row-major.
func luma(img image.Image) (values []float64, width, height int) {
	src := imaging.Clone(img)
	width, height = src.Bounds().Dx(), src.Bounds().Dy()
	values = make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := src.Pix[y*src.Stride+x*4:]
			values[y*width+x] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		}
	}

	return values, width, height
}

// reflect101 maps an out of range index into [0, n) by mirroring around the edge pixel.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// laplacianVariance computes the population variance of the 4-neighbour Laplacian response.
func laplacianVariance(img image.Image) float64 {
	gray, w, h := luma(img)
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		return gray[reflect101(y, h)*w+reflect101(x, w)]
	}

	response := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x, y-1) + at(x-1, y) + at(x+1, y) + at(x, y+1) - 4*at(x, y)
			response = append(response, v)
		}
	}

	return stat.PopVariance(response, nil)
}
