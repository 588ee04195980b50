package foodprep

// YOLO label file specific functionality.

import (
	"fmt"
	"image"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LabelFileExt is the file extension of YOLO label files.
const LabelFileExt = ".txt"

// yoloFieldCount is the number of fields on a label line: class id and four coordinates.
const yoloFieldCount = 5

// BoundingBox is a single YOLO annotation. Coordinates are normalized to [0,1] relative to the
// image width and height.
type BoundingBox struct {
	ClassID int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// PixelRect converts the normalized box to pixel corners for an image of the given size.
//
// The center is scaled by the image dimension and the corners are center ± size/2, truncated
// toward zero.
func (b BoundingBox) PixelRect(imgWidth, imgHeight int) image.Rectangle {
	xc := b.XCenter * float64(imgWidth)
	yc := b.YCenter * float64(imgHeight)
	bw := b.Width * float64(imgWidth)
	bh := b.Height * float64(imgHeight)

	return image.Rectangle{
		Min: image.Point{X: int(xc - bw/2), Y: int(yc - bh/2)},
		Max: image.Point{X: int(xc + bw/2), Y: int(yc + bh/2)},
	}
}

// String formats the box as a label file line.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", b.ClassID, b.XCenter, b.YCenter, b.Width, b.Height)
}

// errFieldCount is returned by ParseBoundingBox for lines with the wrong number of fields.
var errFieldCount = errors.New("unexpected number of fields")

// ParseBoundingBox parses one label line of the form "class_id x_center y_center width height".
func ParseBoundingBox(line string) (BoundingBox, error) {
	b := BoundingBox{}

	tokens := strings.Fields(line)
	if len(tokens) != yoloFieldCount {
		return b, errors.Wrapf(errFieldCount, "%d fields in %q", len(tokens), line)
	}

	id, err := strconv.Atoi(tokens[0])
	if err != nil || id < 0 {
		return b, errors.Errorf("invalid class id in %q", line)
	}
	b.ClassID = id

	var coords [4]float64
	for i := range coords {
		if coords[i], err = strconv.ParseFloat(tokens[i+1], 64); err != nil {
			return b, errors.Wrapf(err, "unexpected values in %q", line)
		}
	}
	b.XCenter, b.YCenter, b.Width, b.Height = coords[0], coords[1], coords[2], coords[3]

	return b, nil
}

// LoadBoundingBoxes reads the YOLO label file at path and returns its boxes in file order.
//
// Lines that do not have exactly five fields are dropped silently. A missing file is not an error
// and yields zero boxes, same as an empty file.
func LoadBoundingBoxes(path string) ([]BoundingBox, error) {
	lines, err := readLines(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, nil
		}
		return nil, err
	}

	boxes := make([]BoundingBox, 0, len(lines))
	malformed := 0
	for _, line := range lines {
		b, err := ParseBoundingBox(line)
		if err != nil {
			if errors.Cause(err) != errFieldCount {
				malformed++
			}
			continue
		}
		boxes = append(boxes, b)
	}
	if malformed > 0 {
		log.Printf("Dropped %d malformed lines in %q", malformed, path)
	}

	return boxes, nil
}

// WriteBoundingBoxes writes boxes to path in YOLO label format, one box per line.
func WriteBoundingBoxes(path string, boxes []BoundingBox) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create label file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	for _, b := range boxes {
		if _, err := fmt.Fprintln(file, b.String()); err != nil {
			return errors.Wrapf(err, "failed to write %q", path)
		}
	}

	return nil
}
