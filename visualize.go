package foodprep

import (
	"log"
	"path/filepath"
)

// VisualizeOptions configures Visualize.
type VisualizeOptions struct {
	ImageDir   string
	LabelDir   string
	OutputDir  string // Cleared and rebuilt on every run.
	SampleSize int
	Seed       int64
	Classes    ClassTable
}

// VisualizeReport lists the outcome per sampled image.
type VisualizeReport struct {
	Sampled      []string
	Saved        []string
	MissingLabel []string
	Unreadable   []string
}

// Visualize draws the labelled boxes onto a seeded random sample of the files in opts.ImageDir and
// saves the results under the same file names in opts.OutputDir.
//
// Sampling more files than the directory holds fails with ErrSampleTooLarge before anything is
// written. Sampled images without a label file or that cannot be decoded are skipped.
func Visualize(opts VisualizeOptions) (*VisualizeReport, error) {
	files, err := filesByExtInDir(opts.ImageDir, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}

	sample, err := SampleFiles(names, opts.SampleSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	if err := resetDir(opts.OutputDir); err != nil {
		return nil, err
	}

	report := &VisualizeReport{Sampled: sample}
	for _, name := range sample {
		imagePath := filepath.Join(opts.ImageDir, name)
		labelPath := labelPathFor(opts.LabelDir, name)

		if !fileExists(labelPath) {
			log.Printf("No label for %q, skipping", name)
			report.MissingLabel = append(report.MissingLabel, name)
			continue
		}

		img, err := loadImage(imagePath)
		if err != nil {
			log.Printf("Failed to load image %q, skipping: %v", name, err)
			report.Unreadable = append(report.Unreadable, name)
			continue
		}

		boxes, err := LoadBoundingBoxes(labelPath)
		if err != nil {
			logSkip(labelPath, err)
			report.MissingLabel = append(report.MissingLabel, name)
			continue
		}

		outPath := filepath.Join(opts.OutputDir, name)
		if err := saveImage(outPath, DrawBoxes(img, boxes, opts.Classes), DefaultJPEGQuality); err != nil {
			log.Print(err)
			report.Unreadable = append(report.Unreadable, name)
			continue
		}
		log.Printf("Saved annotated image: %s", outPath)
		report.Saved = append(report.Saved, name)
	}

	return report, nil
}
