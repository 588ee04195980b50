// Draws the YOLO bounding boxes of a reproducible random sample of images for visual inspection.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sensorable/foodprep"
)

var (
	imageDirPath  string // The input directory with the raw images.
	labelDirPath  string // The input directory with the label files.
	outputDirPath string // The output directory, cleared on every run.
	dataYAMLPath  string // Optional dataset descriptor providing the class names.

	sampleSize int   // The number of images to draw.
	seed       int64 // The sampling seed.
)

func init() {
	cfg := foodprep.LoadConfig()

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	flag.StringVar(&imageDirPath, "images", cfg.RawImageDir, "The `path` to the image input directory")
	flag.StringVar(&labelDirPath, "labels", cfg.LabelDir, "The `path` to the label input directory")
	flag.StringVar(&outputDirPath, "out", cfg.VisualizeDir,
		"The `path` to the output directory (cleared before writing)")
	flag.StringVar(&dataYAMLPath, "data", "",
		"The dataset descriptor `file` to read class names from (built-in food classes if empty)")
	flag.IntVar(&sampleSize, "n", foodprep.DefaultSampleSize, "The number of images to sample")
	flag.Int64Var(&seed, "seed", cfg.Seed, "The sampling seed")

	flag.Parse()

	if imageDirPath == "" || labelDirPath == "" || outputDirPath == "" {
		printUsageAndExit("Missing image, label or output path argument")
	}
	if sampleSize <= 0 {
		printUsageAndExit("Invalid sample size: ", sampleSize)
	}

	imageDirPath = filepath.Clean(imageDirPath)
	labelDirPath = filepath.Clean(labelDirPath)
	outputDirPath = filepath.Clean(outputDirPath)
	if imageDirPath == outputDirPath {
		printUsageAndExit("The image input and output paths cannot be identical")
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	classes, err := foodprep.LoadClassTable(dataYAMLPath)
	if err != nil {
		log.Fatal("Failed to load the class names: ", err)
	}

	report, err := foodprep.Visualize(foodprep.VisualizeOptions{
		ImageDir:   imageDirPath,
		LabelDir:   labelDirPath,
		OutputDir:  outputDirPath,
		SampleSize: sampleSize,
		Seed:       seed,
		Classes:    classes,
	})
	if err != nil {
		log.Fatal("Visualization failed: ", err)
	}

	log.Printf("Saved %d annotated images to %s (%d without label, %d unreadable)",
		len(report.Saved), outputDirPath, len(report.MissingLabel), len(report.Unreadable))
}
