// Runs YOLOv5 training on the food dataset after verifying the environment and the dataset.
//
// The exit code of the training script is passed through.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sensorable/foodprep"
)

var (
	opts       = foodprep.DefaultTrainOptions()
	skipChecks bool // Skip environment and dataset verification.
)

// requiredPackages are the python modules the training script imports.
var requiredPackages = []string{"torch", "yaml", "cv2", "pandas", "matplotlib"}

func init() {
	cfg := foodprep.LoadConfig()
	opts.Python = cfg.Python
	opts.YOLOv5Dir = cfg.YOLOv5Dir
	opts.Data = cfg.DataYAML

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	flag.StringVar(&opts.Data, "data", opts.Data, "The dataset descriptor `file`")
	flag.StringVar(&opts.Weights, "weights", opts.Weights,
		"The initial weights (yolov5n.pt, yolov5s.pt, yolov5m.pt, ...)")
	flag.StringVar(&opts.Name, "name", opts.Name, "The name of this training run")
	flag.IntVar(&opts.Epochs, "epochs", opts.Epochs, "The number of training epochs")
	flag.IntVar(&opts.Batch, "batch", opts.Batch, "The batch size (reduce if running out of memory)")
	flag.IntVar(&opts.ImageSize, "img", opts.ImageSize, "The training image size in `pixels`")
	flag.StringVar(&opts.Device, "device", opts.Device,
		"The device to use (cpu or cuda device, i.e. 0 or 0,1,2,3)")
	flag.IntVar(&opts.Workers, "workers", opts.Workers, "The number of data loader workers")
	flag.StringVar(&opts.YOLOv5Dir, "yolov5", opts.YOLOv5Dir, "The `path` to the YOLOv5 checkout")
	flag.StringVar(&opts.Python, "python", opts.Python, "The python `interpreter`")
	flag.BoolVar(&skipChecks, "skip-checks", false, "Skip environment and dataset verification")

	flag.Parse()

	if err := opts.Validate(); err != nil {
		printUsageAndExit(err)
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime)
	rule := strings.Repeat("=", 60)

	if !skipChecks {
		fmt.Println(rule)
		fmt.Println("Environment Check")
		fmt.Println(rule)
		if err := foodprep.VerifyEnvironment(opts, requiredPackages); err != nil {
			log.Fatal("Environment check failed: ", err)
		}

		fmt.Println(rule)
		fmt.Println("Dataset Verification")
		fmt.Println(rule)
		summary, err := foodprep.VerifyDataset(opts.Data, ".")
		if err != nil {
			log.Fatal("Dataset verification failed: ", err)
		}
		fmt.Println(summary)
		fmt.Println("Dataset verified successfully")
	}

	fmt.Println(rule)
	fmt.Println("Starting Training")
	fmt.Println(rule)
	fmt.Printf("Epochs: %d\nBatch size: %d\nImage size: %d\nWeights: %s\nName: %s\n",
		opts.Epochs, opts.Batch, opts.ImageSize, opts.Weights, opts.Name)

	if err := foodprep.RunTraining(opts); err != nil {
		var trainErr *foodprep.TrainingError
		if errors.As(err, &trainErr) {
			log.Printf("Training failed with exit code %d", trainErr.ExitCode)
			os.Exit(trainErr.ExitCode)
		}
		log.Fatal(err)
	}

	fmt.Println(rule)
	fmt.Println("Training completed successfully!")
	fmt.Println("Results saved to:", opts.ResultsDir())
	fmt.Println(rule)
}
