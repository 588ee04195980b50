// Splits the preprocessed images into train and test sets, copying each image with its label
// file, and writes the dataset descriptor for the training framework.
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
	manifestPath  string // The manifest written by the preprocessing step.
	imageDirPath  string // Image directory, used when no manifest is given.
	labelDirPath  string // Label directory, used when no manifest is given.
	outputDirPath string // Receives Train_Set and Test_Set.

	testPercent   int                    // The percentage of images in the test set.
	seed          int64                  // The split seed.
	augmentPolicy foodprep.AugmentPolicy // Membership of augmented derivatives.

	dataYAMLInPath   string // Optional dataset descriptor providing the class names.
	dataYAMLOutPath  string // The dataset descriptor to write, empty to skip.
	tfRecordOutPath  string // The TFRecord output prefix, empty to skip.
	tfRecordLabelMap string // The TFRecord label map file.
	numShardFiles    int    // The number of shard files to create per split.
)

func init() {
	cfg := foodprep.LoadConfig()

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  manifest input:\t-manifest <file>")
		_, _ = fmt.Fprintln(os.Stderr, "  directory input:\t-images <dir> -labels <dir>")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	flag.StringVar(&manifestPath, "manifest", "",
		"The manifest `file` written by preprocess (default: <images>/"+foodprep.ManifestFileName+
			" if it exists)")
	flag.StringVar(&imageDirPath, "images", cfg.PreprocessedDir, "The `path` to the image directory")
	flag.StringVar(&labelDirPath, "labels", cfg.LabelDir, "The `path` to the label directory")
	flag.StringVar(&outputDirPath, "out", cfg.SplitDir,
		"The `path` receiving the "+foodprep.TrainSetDirName+" and "+foodprep.TestSetDirName+
			" directories")
	flag.IntVar(&testPercent, "test", int(100*foodprep.DefaultTestFraction),
		"The `percentage` of images in the test set")
	flag.Int64Var(&seed, "seed", cfg.Seed, "The split seed")
	policy := flag.String("augmented", string(foodprep.AugmentExclude),
		"Augmented copies `policy` {exclude, with-source}")
	flag.StringVar(&dataYAMLInPath, "data", "",
		"The dataset descriptor `file` to read class names from (built-in food classes if empty)")
	flag.StringVar(&dataYAMLOutPath, "data-out", "",
		"The dataset descriptor `file` to write for the split (skipped if empty)")
	flag.StringVar(&tfRecordOutPath, "tfrecord-out", "",
		"The `prefix` for TFRecord outputs; writes <prefix>-train.record and <prefix>-test.record")
	flag.StringVar(&tfRecordLabelMap, "tfrecord-label-map-file", "",
		"The TFRecord label map file `path` (default: <prefix>-label_map.pbtxt)")
	flag.IntVar(&numShardFiles, "num-shards", 1, "The number of shard files to create (tfrecord only)")

	flag.Parse()

	var err error
	if augmentPolicy, err = foodprep.ParseAugmentPolicy(*policy); err != nil {
		printUsageAndExit(err)
	}
	if testPercent < 0 || testPercent >= 100 {
		printUsageAndExit("Invalid value in -test: ", testPercent)
	}
	if outputDirPath == "" {
		printUsageAndExit("Missing output path argument")
	}
	if manifestPath == "" {
		if imageDirPath == "" || labelDirPath == "" {
			printUsageAndExit("Missing manifest or image and label path arguments")
		}
		candidate := filepath.Join(imageDirPath, foodprep.ManifestFileName)
		if _, err := os.Stat(candidate); err == nil {
			manifestPath = candidate
		}
	}
	if tfRecordOutPath != "" && tfRecordLabelMap == "" {
		tfRecordLabelMap = tfRecordOutPath + "-label_map.pbtxt"
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	classes, err := foodprep.LoadClassTable(dataYAMLInPath)
	if err != nil {
		log.Fatal("Failed to load the class names: ", err)
	}

	var manifest *foodprep.Manifest
	if manifestPath != "" {
		manifest, err = foodprep.ReadManifest(manifestPath)
	} else {
		manifest, err = foodprep.BuildManifest(imageDirPath, labelDirPath)
	}
	if err != nil {
		log.Fatal("Failed to load the dataset: ", err)
	}

	opts := foodprep.DefaultSplitOptions(outputDirPath)
	opts.TestFraction = float64(testPercent) / 100
	opts.Seed = seed
	opts.AugmentPolicy = augmentPolicy

	report, err := foodprep.SplitDataset(manifest, opts)
	if err != nil {
		log.Fatal("Failed to split the dataset: ", err)
	}

	if dataYAMLOutPath != "" {
		if err := foodprep.WriteDescriptor(dataYAMLOutPath, report.Descriptor(classes)); err != nil {
			log.Fatal(err)
		}
		log.Print("Dataset descriptor written to ", dataYAMLOutPath)
	}

	if tfRecordOutPath != "" {
		for _, set := range []*foodprep.SplitSet{&report.Train, &report.Test} {
			path := fmt.Sprintf("%s-%s.record", tfRecordOutPath, splitTag(set))
			if err := foodprep.WriteTFRecord(path, set.Copied, classes, numShardFiles); err != nil {
				log.Fatal("Conversion failed: ", err)
			}
		}
		if err := foodprep.WriteLabelMap(tfRecordLabelMap, classes); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println()
	fmt.Println("Dataset splitting complete!")
	for _, set := range []*foodprep.SplitSet{&report.Train, &report.Test} {
		fmt.Printf("%-10s copied: %d (%d augmented)  skipped: %d\n",
			set.Name, len(set.Copied), set.Augmented, len(set.Skipped))
	}
	fmt.Printf("Skipped pairs: %d\n", report.Skipped())
}

func splitTag(set *foodprep.SplitSet) string {
	if set.Name == foodprep.TestSetDirName {
		return "test"
	}
	return "train"
}
