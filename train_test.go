package foodprep

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestTrainOptionsArgs(t *testing.T) {
	o := DefaultTrainOptions()
	want := []string{
		filepath.Join("yolov5", "train.py"),
		"--img", "640",
		"--batch", "16",
		"--epochs", "50",
		"--data", filepath.Join("data", "food_yolov5_data.yaml"),
		"--weights", "yolov5s.pt",
		"--name", "food_model",
		"--cache",
		"--device", "cpu",
		"--workers", "2",
	}
	if got := o.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}

	o.Device = ""
	o.Workers = 0
	if got := o.Args(); got[len(got)-1] != "--cache" {
		t.Errorf("optional flags not omitted: %v", got)
	}
}

func TestTrainOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TrainOptions)
		valid  bool
	}{
		{"defaults", func(o *TrainOptions) {}, true},
		{"zero epochs", func(o *TrainOptions) { o.Epochs = 0 }, false},
		{"negative batch", func(o *TrainOptions) { o.Batch = -1 }, false},
		{"zero image size", func(o *TrainOptions) { o.ImageSize = 0 }, false},
		{"negative workers", func(o *TrainOptions) { o.Workers = -2 }, false},
		{"no weights", func(o *TrainOptions) { o.Weights = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultTrainOptions()
			tt.modify(&o)
			if err := o.Validate(); (err == nil) != tt.valid {
				t.Errorf("Validate() = %v, valid %v", err, tt.valid)
			}
		})
	}
}

// fakeTrainingScript creates a yolov5 directory with a train.py shell script exiting with code.
func fakeTrainingScript(t *testing.T, code string) TrainOptions {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	writeTestFile(t, dir, filepath.Join("yolov5", "train.py"), "exit "+code+"\n")

	o := DefaultTrainOptions()
	o.Python = "/bin/sh"
	o.YOLOv5Dir = filepath.Join(dir, "yolov5")
	return o
}

func TestRunTraining_PassesExitCode(t *testing.T) {
	o := fakeTrainingScript(t, "3")

	err := RunTraining(o)
	var trainErr *TrainingError
	if !errors.As(err, &trainErr) {
		t.Fatalf("got %v, want a *TrainingError", err)
	}
	if trainErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", trainErr.ExitCode)
	}
}

func TestRunTraining_Success(t *testing.T) {
	if err := RunTraining(fakeTrainingScript(t, "0")); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRunTraining_MissingInterpreter(t *testing.T) {
	o := DefaultTrainOptions()
	o.Python = filepath.Join(t.TempDir(), "no-such-python")

	err := RunTraining(o)
	var trainErr *TrainingError
	if err == nil || errors.As(err, &trainErr) {
		t.Errorf("got %v, want a start failure", err)
	}
}

func TestVerifyDataset(t *testing.T) {
	dir := t.TempDir()
	dirs := mkdirs(t, dir, "design/Train_Set/images", "design/Test_Set/images")
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		writeTestImage(t, dirs[i%2], name, createGradient(4, 4))
	}
	data := writeTestFile(t, dir, "data.yaml",
		"path: design\ntrain: Train_Set/images\nval: Test_Set/images\nnc: 2\nnames: [rice, naan]\n")

	s, err := VerifyDataset(data, dir)
	if err != nil {
		t.Fatalf("VerifyDataset failed: %v", err)
	}
	if s.TrainImages != 2 || s.ValImages != 1 {
		t.Errorf("got %d train and %d val images, want 2 and 1", s.TrainImages, s.ValImages)
	}
	if !strings.Contains(s.String(), "Classes: rice, naan") {
		t.Errorf("summary lacks the class list:\n%s", s)
	}

	if err := os.Remove(filepath.Join(dirs[1], "b.jpg")); err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyDataset(data, dir); err == nil {
		t.Error("expected an error for an empty validation directory")
	}
	if _, err := VerifyDataset(data, filepath.Join(dir, "elsewhere")); err == nil {
		t.Error("expected an error for missing directories")
	}
}

func TestPythonVersion(t *testing.T) {
	tests := []struct {
		output  string
		err     error
		want    string
		wantErr bool
	}{
		{"Python 3.10.12\n", nil, "3.10.12", false},
		{"Python 2.7.18", nil, "2.7.18", false},
		{"", nil, "", true},
		{"", errors.New("not found"), "", true},
	}

	for _, tt := range tests {
		run := func(name string, args ...string) ([]byte, error) { return []byte(tt.output), tt.err }
		got, err := pythonVersion(run, "python3")
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("output %q: got %q, %v; want %q, wantErr %v", tt.output, got, err, tt.want, tt.wantErr)
		}
	}
}
