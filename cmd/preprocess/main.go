// Filters out blurry images, resizes the rest to a square training resolution and writes one
// randomly augmented copy per image, together with a manifest of the output.
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

	blurThreshold float64 // Images with a smaller focus measure are rejected.
	imageSize     int     // The side length of the output images.
	augment       bool    // Write an augmented derivative per image.
	seed          int64   // The augmentation seed.
	jpegQuality   int     // The JPEG quality for JPEG outputs.
	numWorkers    int     // The number of images processed concurrently.
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
	flag.StringVar(&labelDirPath, "labels", cfg.LabelDir,
		"The `path` to the label directory used to pair images in the manifest")
	flag.StringVar(&outputDirPath, "out", cfg.PreprocessedDir,
		"The `path` to the output directory (cleared before writing)")
	flag.Float64Var(&blurThreshold, "blur-threshold", cfg.BlurThreshold,
		"The Laplacian variance below which an image is rejected as blurry")
	flag.IntVar(&imageSize, "size", cfg.ImageSize, "The side `length` of the output images")
	flag.BoolVar(&augment, "augment", true, "Write one augmented copy per accepted image")
	flag.Int64Var(&seed, "seed", cfg.Seed, "The augmentation seed")
	flag.IntVar(&jpegQuality, "jpeg-quality", foodprep.DefaultJPEGQuality,
		"The quality to use when encoding JPEGs [1, 100]")
	flag.IntVar(&numWorkers, "workers", 0, "The number of concurrent workers (0 for 2x CPUs)")

	flag.Parse()

	if imageDirPath == "" || outputDirPath == "" {
		printUsageAndExit("Missing image input or output path argument")
	}
	if imageSize <= 0 {
		printUsageAndExit("Invalid image size: ", imageSize)
	}
	if blurThreshold < 0 {
		printUsageAndExit("Invalid blur threshold: ", blurThreshold)
	}
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = foodprep.DefaultJPEGQuality
		log.Print("Invalid JPEG quality, setting it to ", jpegQuality)
	}

	imageDirPath = filepath.Clean(imageDirPath)
	outputDirPath = filepath.Clean(outputDirPath)
	if labelDirPath != "" {
		labelDirPath = filepath.Clean(labelDirPath)
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	opts := foodprep.DefaultPreprocessOptions(imageDirPath, labelDirPath, outputDirPath)
	opts.Size = imageSize
	opts.Filter.Threshold = blurThreshold
	opts.Augment = augment
	opts.Seed = seed
	opts.JPEGQuality = jpegQuality
	opts.Workers = numWorkers

	report, manifest, err := foodprep.Preprocess(opts)
	if err != nil {
		log.Fatal("Preprocessing failed: ", err)
	}

	for _, name := range report.Blurry {
		log.Print("Rejected as blurry: ", name)
	}
	for _, name := range report.Unreadable {
		log.Print("Unreadable: ", name)
	}
	log.Printf("Accepted %d of %d images, wrote %d augmented copies",
		len(report.Accepted), report.Total(), report.Augmented)
	if n := len(manifest.Unpaired()); n > 0 {
		log.Printf("%d accepted images have no label file", n)
	}
	log.Print("Manifest written to ", filepath.Join(outputDirPath, foodprep.ManifestFileName))
}
