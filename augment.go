package foodprep

import (
	"fmt"
	"hash/fnv"
	"image"
	"math"
	"math/rand"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/transform"
)

// AugmentSuffix is appended to the base name of augmented derivatives.
const AugmentSuffix = "_aug"

// Augmenter applies a randomized sequence of geometric and photometric transforms. Each transform
// is applied independently with probability P.
type Augmenter struct {
	RotationLimit   float64 // Max. absolute rotation in degrees.
	BrightnessLimit float64 // Max. absolute brightness change, as a fraction in [0, 1].
	ContrastLimit   float64 // Max. absolute contrast change, as a fraction in [0, 1].
	P               float64 // Probability of each transform.
}

// DefaultAugmenter rotates by up to 15 degrees, flips horizontally and jitters brightness and
// contrast by up to 20%, each with probability 0.5.
var DefaultAugmenter = Augmenter{
	RotationLimit:   15,
	BrightnessLimit: 0.2,
	ContrastLimit:   0.2,
	P:               0.5,
}

// Augmentation records the transforms that were applied to an image.
type Augmentation struct {
	Rotation   float64 // Degrees, zero if not rotated.
	Flipped    bool
	Brightness float64 // Zero if unchanged.
	Contrast   float64 // Zero if unchanged.
}

func (a Augmentation) String() string {
	var ops []string
	if a.Rotation != 0 {
		ops = append(ops, fmt.Sprintf("rotate(%.1f)", a.Rotation))
	}
	if a.Flipped {
		ops = append(ops, "hflip")
	}
	if a.Brightness != 0 {
		ops = append(ops, fmt.Sprintf("brightness(%+.2f)", a.Brightness))
	}
	if a.Contrast != 0 {
		ops = append(ops, fmt.Sprintf("contrast(%+.2f)", a.Contrast))
	}
	if len(ops) == 0 {
		return "identity"
	}
	return strings.Join(ops, ",")
}

// Apply transforms img using random draws from rng. The output has the same size as img.
func (a Augmenter) Apply(img image.Image, rng *rand.Rand) (image.Image, Augmentation) {
	var rec Augmentation
	out := img

	// Draw all decisions up front so the sequence of random numbers is fixed per image.
	rotate := rng.Float64() < a.P
	angle := (2*rng.Float64() - 1) * a.RotationLimit
	flip := rng.Float64() < a.P
	jitter := rng.Float64() < a.P
	brightness := (2*rng.Float64() - 1) * a.BrightnessLimit
	contrast := (2*rng.Float64() - 1) * a.ContrastLimit

	if rotate && angle != 0 {
		out = transform.Rotate(out, angle, &transform.RotationOptions{ResizeBounds: false})
		rec.Rotation = angle
	}
	if flip {
		out = transform.FlipH(out)
		rec.Flipped = true
	}
	if jitter {
		if brightness != 0 {
			out = adjust.Brightness(out, brightness)
			rec.Brightness = brightness
		}
		if contrast != 0 {
			out = adjust.Contrast(out, contrast)
			rec.Contrast = contrast
		}
	}

	return out, rec
}

// TransformBoxes maps boxes of the source image onto the augmented image of size width x height.
//
// Rotated boxes are replaced by the axis-aligned box enclosing the rotated corners. Results are
// clipped to the image; boxes that end up empty are dropped. Photometric transforms do not
// affect boxes.
func (a Augmentation) TransformBoxes(boxes []BoundingBox, width, height int) []BoundingBox {
	w, h := float64(width), float64(height)
	cx, cy := w/2, h/2
	sin, cos := math.Sincos(a.Rotation * math.Pi / 180)

	out := make([]BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		x1 := (b.XCenter - b.Width/2) * w
		x2 := (b.XCenter + b.Width/2) * w
		y1 := (b.YCenter - b.Height/2) * h
		y2 := (b.YCenter + b.Height/2) * h

		if a.Rotation != 0 {
			// Clockwise rotation about the image center, in image coordinates (y down).
			minX, minY := math.Inf(1), math.Inf(1)
			maxX, maxY := math.Inf(-1), math.Inf(-1)
			for _, p := range [4][2]float64{{x1, y1}, {x2, y1}, {x1, y2}, {x2, y2}} {
				dx, dy := p[0]-cx, p[1]-cy
				rx := cx + dx*cos - dy*sin
				ry := cy + dx*sin + dy*cos
				minX, maxX = math.Min(minX, rx), math.Max(maxX, rx)
				minY, maxY = math.Min(minY, ry), math.Max(maxY, ry)
			}
			x1, x2, y1, y2 = minX, maxX, minY, maxY
		}
		if a.Flipped {
			x1, x2 = w-x2, w-x1
		}

		x1, x2 = math.Max(0, x1), math.Min(w, x2)
		y1, y2 = math.Max(0, y1), math.Min(h, y2)
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		out = append(out, BoundingBox{
			ClassID: b.ClassID,
			XCenter: (x1 + x2) / 2 / w,
			YCenter: (y1 + y2) / 2 / h,
			Width:   (x2 - x1) / w,
			Height:  (y2 - y1) / h,
		})
	}

	return out
}

// itemRand returns a generator seeded from seed and name, so that each file gets its own
// reproducible sequence independent of processing order.
func itemRand(seed int64, name string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// AugmentedName returns the file name of the augmented derivative of the image named name.
func AugmentedName(name string) string {
	return baseName(name) + AugmentSuffix + ".jpg"
}
