package foodprep

// Wrapper around the YOLOv5 training script.

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TrainOptions are the parameters of a training run.
type TrainOptions struct {
	Python    string // Interpreter used to run the training script.
	YOLOv5Dir string // Checkout of the YOLOv5 repository.
	Data      string // Dataset descriptor.
	Weights   string // Initial weights, e.g. yolov5s.pt.
	Name      string // Run name.
	Epochs    int
	Batch     int
	ImageSize int
	Device    string // "cpu", or CUDA device ids such as "0" or "0,1".
	Workers   int    // Data loader workers; zero uses the framework default.
}

// DefaultTrainOptions returns the defaults of the training wrapper.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Python:    "python3",
		YOLOv5Dir: "yolov5",
		Data:      filepath.Join("data", "food_yolov5_data.yaml"),
		Weights:   "yolov5s.pt",
		Name:      "food_model",
		Epochs:    50,
		Batch:     16,
		ImageSize: 640,
		Device:    "cpu",
		Workers:   2,
	}
}

// Validate checks the numeric options.
func (o TrainOptions) Validate() error {
	switch {
	case o.Epochs <= 0:
		return errors.Errorf("invalid epoch count %d", o.Epochs)
	case o.Batch <= 0:
		return errors.Errorf("invalid batch size %d", o.Batch)
	case o.ImageSize <= 0:
		return errors.Errorf("invalid image size %d", o.ImageSize)
	case o.Workers < 0:
		return errors.Errorf("invalid worker count %d", o.Workers)
	case o.Data == "" || o.Weights == "" || o.Name == "":
		return errors.New("data, weights and name are required")
	}
	return nil
}

// TrainScript is the path of the YOLOv5 training script.
func (o TrainOptions) TrainScript() string {
	return filepath.Join(o.YOLOv5Dir, "train.py")
}

// Args returns the command line of the training subprocess, interpreter excluded.
func (o TrainOptions) Args() []string {
	args := []string{
		o.TrainScript(),
		"--img", strconv.Itoa(o.ImageSize),
		"--batch", strconv.Itoa(o.Batch),
		"--epochs", strconv.Itoa(o.Epochs),
		"--data", o.Data,
		"--weights", o.Weights,
		"--name", o.Name,
		"--cache",
	}
	if o.Device != "" {
		args = append(args, "--device", o.Device)
	}
	if o.Workers > 0 {
		args = append(args, "--workers", strconv.Itoa(o.Workers))
	}
	return args
}

// ResultsDir is where the framework stores the outputs of the run.
func (o TrainOptions) ResultsDir() string {
	return filepath.Join("runs", "train", o.Name)
}

// RunTraining runs the training script synchronously, streaming its output to the standard
// streams of this process. A non-zero exit status is returned as *TrainingError.
func RunTraining(o TrainOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	cmd := exec.Command(o.Python, o.Args()...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Printf("Running command: %s %s", o.Python, strings.Join(o.Args(), " "))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &TrainingError{ExitCode: exitErr.ExitCode(), Err: err}
		}
		return errors.Wrapf(err, "failed to start %q", o.Python)
	}

	return nil
}

// DatasetSummary describes a verified dataset.
type DatasetSummary struct {
	Descriptor  *DatasetDescriptor
	TrainDir    string
	ValDir      string
	TrainImages int
	ValImages   int
}

func (s *DatasetSummary) String() string {
	return fmt.Sprintf("Dataset path: %s\nNumber of classes: %d\nClasses: %s\n"+
		"Training images: %d\nValidation images: %d",
		s.Descriptor.Path, s.Descriptor.NC, strings.Join(s.Descriptor.Names, ", "),
		s.TrainImages, s.ValImages)
}

// VerifyDataset checks that the descriptor at dataPath exists, is consistent, and that its train
// and val directories exist and contain images. Relative dataset roots are resolved against
// baseDir.
func VerifyDataset(dataPath, baseDir string) (*DatasetSummary, error) {
	d, err := LoadDescriptor(dataPath)
	if err != nil {
		return nil, err
	}

	s := &DatasetSummary{Descriptor: d, TrainDir: d.TrainDir(baseDir), ValDir: d.ValDir(baseDir)}
	for _, dir := range []struct {
		kind  string
		path  string
		count *int
	}{
		{"Training", s.TrainDir, &s.TrainImages},
		{"Validation", s.ValDir, &s.ValImages},
	} {
		if !dirExists(dir.path) {
			return s, errors.Errorf("%s images directory not found: %s", dir.kind, dir.path)
		}
		images, err := imagesInDir(dir.path)
		if err != nil {
			return s, err
		}
		if len(images) == 0 {
			return s, errors.Errorf("no %s images found in %s", strings.ToLower(dir.kind), dir.path)
		}
		*dir.count = len(images)
	}

	return s, nil
}

// VerifyEnvironment checks that the interpreter runs, the YOLOv5 checkout and training script
// exist, and that the python packages needed by the framework can be imported.
func VerifyEnvironment(o TrainOptions, packages []string) error {
	version, err := pythonVersion(runCommand, o.Python)
	if err != nil {
		return err
	}
	log.Printf("Python: %s", version)

	if !dirExists(o.YOLOv5Dir) {
		return errors.Errorf("YOLOv5 directory not found: %s", o.YOLOv5Dir)
	}
	if !fileExists(o.TrainScript()) {
		return errors.Errorf("training script not found: %s", o.TrainScript())
	}
	for _, p := range packages {
		if err := importPackage(runCommand, o.Python, p); err != nil {
			return err
		}
		log.Printf("%s installed", p)
	}
	return nil
}

// commandRunner runs a command and returns its combined output.
type commandRunner func(name string, args ...string) ([]byte, error)

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// pythonVersion returns the version reported by the interpreter, e.g. "3.10.12".
func pythonVersion(run commandRunner, python string) (string, error) {
	out, err := run(python, "--version")
	if err != nil {
		return "", errors.Wrapf(err, "cannot run %q", python)
	}
	v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(out)), "Python"))
	if v == "" {
		return "", errors.Errorf("unexpected version output %q", out)
	}
	return v, nil
}

// importPackage checks that the python module can be imported.
func importPackage(run commandRunner, python, module string) error {
	if _, err := run(python, "-c", "import "+module); err != nil {
		return errors.Wrapf(err, "python package %q not installed", module)
	}
	return nil
}
