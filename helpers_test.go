package foodprep

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// createInMemoryImage returns a w x h image filled with c.
func createInMemoryImage(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

// createCheckerboard returns a w x h image of alternating black and white cells of the given size.
func createCheckerboard(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{0, 0, 0, 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createGradient returns a w x h image with distinct, smoothly varying channel values.
func createGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x + y) % 256), 255})
		}
	}
	return img
}

// writeTestImage saves img to dir/name and returns the path.
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to save test image %q: %v", path, err)
	}
	return path
}

// writeTestFile writes content to dir/name and returns the path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %q: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file %q: %v", path, err)
	}
	return path
}

// mkdirs creates dir/sub for every sub and returns the paths.
func mkdirs(t *testing.T, dir string, subs ...string) []string {
	t.Helper()
	paths := make([]string, len(subs))
	for i, s := range subs {
		paths[i] = filepath.Join(dir, s)
		if err := os.MkdirAll(paths[i], 0755); err != nil {
			t.Fatalf("Failed to create %q: %v", paths[i], err)
		}
	}
	return paths
}

// listNames returns the sorted file names in dir.
func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %q: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// removeAll deletes path and everything below it.
func removeAll(t *testing.T, path string) {
	t.Helper()
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("Failed to remove %q: %v", path, err)
	}
}
