package foodprep

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// createRawDataset writes a sharp, a blurry and a corrupt image plus a label for the sharp one.
func createRawDataset(t *testing.T) (inDir, labelDir string) {
	t.Helper()
	dirs := mkdirs(t, t.TempDir(), "raw", "labels")
	inDir, labelDir = dirs[0], dirs[1]

	writeTestImage(t, inDir, "sharp.png", createCheckerboard(64, 48, 4))
	writeTestImage(t, inDir, "blurry.png", createInMemoryImage(64, 48, color.NRGBA{90, 140, 60, 255}))
	writeTestFile(t, inDir, "broken.jpg", "definitely not a jpeg")
	writeTestFile(t, inDir, "notes.md", "ignored")
	writeTestFile(t, labelDir, "sharp.txt", "1 0.25 0.5 0.2 0.4\n4 0.7 0.3 0.2 0.2\n")

	return inDir, labelDir
}

func TestPreprocess(t *testing.T) {
	inDir, labelDir := createRawDataset(t)
	outDir := filepath.Join(t.TempDir(), "out")
	writeTestFile(t, outDir, "stale.jpg", "left over from an earlier run")

	opts := DefaultPreprocessOptions(inDir, labelDir, outDir)
	opts.Size = 32
	opts.Workers = 2

	report, m, err := Preprocess(opts)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if !reflect.DeepEqual(report.Accepted, []string{"sharp.png"}) ||
		!reflect.DeepEqual(report.Blurry, []string{"blurry.png"}) ||
		!reflect.DeepEqual(report.Unreadable, []string{"broken.jpg"}) ||
		len(report.Failed) != 0 || report.Augmented != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Total() != 3 {
		t.Errorf("Total() = %d, want 3", report.Total())
	}

	want := []string{AugmentedLabelDirName, ManifestFileName, "sharp.png", "sharp_aug.jpg"}
	if got := listNames(t, outDir); !reflect.DeepEqual(got, want) {
		t.Errorf("output contains %v, want %v", got, want)
	}

	out, err := loadImage(filepath.Join(outDir, "sharp.png"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 32 || out.Bounds().Dy() != 32 {
		t.Errorf("output size %v, want 32x32", out.Bounds())
	}

	// The manifest on disk matches the returned one.
	onDisk, err := ReadManifest(filepath.Join(outDir, ManifestFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(onDisk, m) {
		t.Errorf("manifest on disk differs:\n%+v\n%+v", onDisk, m)
	}
	if len(m.Entries) != 2 {
		t.Fatalf("manifest has %d entries, want 2", len(m.Entries))
	}

	orig, aug := m.Entries[0], m.Entries[1]
	if orig.Name != "sharp.png" || orig.Role != RoleOriginal || orig.LabelPath != filepath.Join(labelDir, "sharp.txt") {
		t.Errorf("unexpected original entry %+v", orig)
	}
	if orig.FocusMeasure < DefaultBlurThreshold {
		t.Errorf("accepted image has focus measure %v", orig.FocusMeasure)
	}
	if aug.Name != "sharp_aug.jpg" || aug.Role != RoleAugmented || aug.Source != "sharp.png" {
		t.Errorf("unexpected augmented entry %+v", aug)
	}

	boxes, err := LoadBoundingBoxes(aug.LabelPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(boxes) == 0 {
		t.Error("augmented label has no boxes")
	}
	for _, b := range boxes {
		if b.XCenter < 0 || b.XCenter > 1 || b.YCenter < 0 || b.YCenter > 1 {
			t.Errorf("augmented box outside the image: %+v", b)
		}
	}
}

func TestPreprocess_Reproducible(t *testing.T) {
	inDir, labelDir := createRawDataset(t)

	var outputs [][]byte
	for _, name := range []string{"first", "second"} {
		opts := DefaultPreprocessOptions(inDir, labelDir, filepath.Join(t.TempDir(), name))
		opts.Size = 32
		if _, _, err := Preprocess(opts); err != nil {
			t.Fatalf("Preprocess failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(opts.OutputDir, "sharp_aug.jpg"))
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)
	}

	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("augmented output differs between runs with the same seed")
	}
}

func TestPreprocess_WithoutAugmentation(t *testing.T) {
	inDir, labelDir := createRawDataset(t)
	opts := DefaultPreprocessOptions(inDir, labelDir, filepath.Join(t.TempDir(), "out"))
	opts.Size = 16
	opts.Augment = false

	report, m, err := Preprocess(opts)
	if err != nil {
		t.Fatal(err)
	}
	if report.Augmented != 0 || len(m.Augmented()) != 0 {
		t.Errorf("unexpected derivatives: %d", report.Augmented)
	}
	if dirExists(filepath.Join(opts.OutputDir, AugmentedLabelDirName)) {
		t.Error("augmented label directory created without augmentation")
	}
}

func TestPreprocess_InvalidOptions(t *testing.T) {
	dir := t.TempDir()

	same := DefaultPreprocessOptions(dir, "", dir)
	if _, _, err := Preprocess(same); err == nil {
		t.Error("expected an error for identical input and output directories")
	}

	noSize := DefaultPreprocessOptions(dir, "", filepath.Join(dir, "out"))
	noSize.Size = 0
	if _, _, err := Preprocess(noSize); err == nil {
		t.Error("expected an error for a zero image size")
	}

	missing := DefaultPreprocessOptions(filepath.Join(dir, "missing"), "", filepath.Join(dir, "out"))
	if _, _, err := Preprocess(missing); err == nil {
		t.Error("expected an error for a missing input directory")
	}
}

func TestPreprocess_SkipsSharedBaseNames(t *testing.T) {
	dirs := mkdirs(t, t.TempDir(), "raw", "labels")
	inDir, labelDir := dirs[0], dirs[1]
	writeTestImage(t, inDir, "dish.jpg", createCheckerboard(64, 48, 4))
	writeTestImage(t, inDir, "dish.png", createCheckerboard(64, 48, 8))
	writeTestFile(t, labelDir, "dish.txt", "3 0.5 0.5 0.4 0.4\n")

	opts := DefaultPreprocessOptions(inDir, labelDir, filepath.Join(t.TempDir(), "out"))
	opts.Size = 32
	report, m, err := Preprocess(opts)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if !reflect.DeepEqual(report.Accepted, []string{"dish.jpg"}) ||
		!reflect.DeepEqual(report.Duplicate, []string{"dish.png"}) {
		t.Errorf("accepted %v, duplicate %v; want [dish.jpg], [dish.png]", report.Accepted, report.Duplicate)
	}
	if report.Total() != 2 {
		t.Errorf("Total() = %d, want 2", report.Total())
	}

	aug := m.Augmented()
	if len(aug) != 1 || aug[0].Name != "dish_aug.jpg" || aug[0].Source != "dish.jpg" {
		t.Errorf("augmented entries %+v, want one dish_aug.jpg from dish.jpg", aug)
	}
	if fileExists(filepath.Join(opts.OutputDir, "dish.png")) {
		t.Error("duplicate image written to the output")
	}
}
