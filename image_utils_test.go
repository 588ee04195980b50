package foodprep

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"
)

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"upsampled", 50, 30},
		{"downsampled", 600, 500},
		{"same size", DefaultImageSize, DefaultImageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resized := resizeExact(createGradient(tt.width, tt.height), DefaultImageSize, DefaultImageSize)
			if resized.Bounds().Dx() != DefaultImageSize || resized.Bounds().Dy() != DefaultImageSize {
				t.Fatalf("resized to %v, want %dx%d", resized.Bounds(), DefaultImageSize, DefaultImageSize)
			}

			tensor := Normalize(resized)
			if len(tensor.Data) != DefaultImageSize*DefaultImageSize*3 {
				t.Fatalf("tensor has %d values", len(tensor.Data))
			}
			for i, v := range tensor.Data {
				if v < 0 || v > 1 {
					t.Fatalf("value %d out of range: %v", i, v)
				}
			}

			back := Denormalize(tensor)
			if !bytes.Equal(back.Pix, resized.Pix) {
				t.Error("Denormalize(Normalize(img)) differs from img")
			}
		})
	}
}

func TestDenormalizeClamps(t *testing.T) {
	tensor := &Tensor{Width: 2, Height: 1, Data: []float64{-0.5, 0.5, 1.5, 1, 0, 0.2}}
	img := Denormalize(tensor)

	want := []color.NRGBA{{0, 128, 255, 255}, {255, 0, 51, 255}}
	for x, w := range want {
		if got := img.NRGBAAt(x, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", x, got, w)
		}
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")
	if err := saveImage(path, createGradient(40, 20), DefaultJPEGQuality); err != nil {
		t.Fatalf("saveImage failed: %v", err)
	}

	img, err := loadImage(path)
	if err != nil {
		t.Fatalf("loadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("loaded image has bounds %v", img.Bounds())
	}

	config, format, err := decodeImageConfig(path)
	if err != nil {
		t.Fatalf("decodeImageConfig failed: %v", err)
	}
	if config.Width != 40 || config.Height != 20 || format != "jpeg" {
		t.Errorf("got %dx%d %s, want 40x20 jpeg", config.Width, config.Height, format)
	}

	broken := writeTestFile(t, dir, "broken.jpg", "not an image")
	if _, err := loadImage(broken); err == nil {
		t.Error("expected an error for a corrupt image")
	}
}
