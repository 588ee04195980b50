//go:build gocv

package foodprep

// OpenCV backed focus measure. Build with -tags gocv to use it.

import (
	"image"
	"log"

	"gocv.io/x/gocv"
)

func init() {
	FocusMeasure = opencvLaplacianVariance
}

// opencvLaplacianVariance computes the Laplacian variance with OpenCV. It falls back to the pure Go
// implementation if the image cannot be converted to a Mat.
func opencvLaplacianVariance(img image.Image) float64 {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		log.Printf("Falling back to the Go focus measure: %v", err)
		return laplacianVariance(img)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	gocv.MeanStdDev(lap, &mean, &stdDev)

	sd := stdDev.GetDoubleAt(0, 0)
	return sd * sd
}
