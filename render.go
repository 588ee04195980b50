package foodprep

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	boxLineWidth = 2  // Outline thickness in pixels.
	labelOffsetY = 10 // Distance of the label baseline above the box.
)

// ClassColor returns a stable colour for class id. Neighbouring ids are spread around the hue
// circle by the golden angle so that they stay distinguishable.
func ClassColor(id int) color.Color {
	hue := ((id*137)%360 + 360) % 360
	return colorful.Hsv(float64(hue), 0.85, 0.95)
}

// DrawBoxes returns a copy of img with an outline and a class name label drawn for each box.
//
// Class names are looked up in classes; ids outside the table are labelled with the numeric id.
// Neither img nor classes is modified.
func DrawBoxes(img image.Image, boxes []BoundingBox, classes ClassTable) *image.NRGBA {
	dst := imaging.Clone(img)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	for _, b := range boxes {
		r := b.PixelRect(w, h)
		c := ClassColor(b.ClassID)
		drawRect(dst, r, c, boxLineWidth)
		drawLabel(dst, classes.Name(b.ClassID), image.Pt(r.Min.X, r.Min.Y-labelOffsetY), c)
	}

	return dst
}

// drawRect draws the outline of r with the given line thickness. The outline is drawn inside r
// and clipped to the image.
func drawRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), // top
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), // left
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		e = e.Intersect(dst.Bounds())
		if e.Empty() {
			continue
		}
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// drawLabel draws text with its baseline starting at p.
func drawLabel(dst draw.Image, text string, p image.Point, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(p.X, p.Y),
	}
	d.DrawString(text)
}
