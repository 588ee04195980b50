package foodprep

// YOLO dataset descriptor (data.yaml) functionality.

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DatasetDescriptor is the dataset configuration consumed by the training framework.
type DatasetDescriptor struct {
	Path  string   `yaml:"path"`  // Dataset root.
	Train string   `yaml:"train"` // Training images, relative to Path.
	Val   string   `yaml:"val"`   // Validation images, relative to Path.
	NC    int      `yaml:"nc"`    // Number of classes.
	Names []string `yaml:"names"` // Class names in id order.
}

// LoadDescriptor reads and validates the descriptor at path.
func LoadDescriptor(path string) (*DatasetDescriptor, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read dataset descriptor %q", path)
	}

	var d DatasetDescriptor
	if err := yaml.Unmarshal(enc, &d); err != nil {
		return nil, errors.Wrapf(err, "failed to parse dataset descriptor %q", path)
	}
	if err := d.Validate(); err != nil {
		return nil, errors.Wrapf(err, "dataset descriptor %q", path)
	}

	return &d, nil
}

// Validate checks the descriptor for internal consistency.
func (d *DatasetDescriptor) Validate() error {
	switch {
	case d.Path == "":
		return errors.Wrap(ErrInvalidDescriptor, "missing path")
	case d.Train == "" || d.Val == "":
		return errors.Wrap(ErrInvalidDescriptor, "missing train or val entry")
	case d.NC != len(d.Names):
		return errors.Wrapf(ErrInvalidDescriptor, "nc is %d but %d names are listed", d.NC, len(d.Names))
	}
	return nil
}

// Classes returns the class table defined by the descriptor.
func (d *DatasetDescriptor) Classes() ClassTable {
	return NewClassTable(d.Names...)
}

// TrainDir is the training image directory. Relative roots are resolved against baseDir.
func (d *DatasetDescriptor) TrainDir(baseDir string) string {
	return d.resolve(baseDir, d.Train)
}

// ValDir is the validation image directory. Relative roots are resolved against baseDir.
func (d *DatasetDescriptor) ValDir(baseDir string) string {
	return d.resolve(baseDir, d.Val)
}

func (d *DatasetDescriptor) resolve(baseDir, rel string) string {
	root := d.Path
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}
	return filepath.Join(root, rel)
}

// WriteDescriptor writes the descriptor to path as YAML.
func WriteDescriptor(path string, d *DatasetDescriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	enc, err := yaml.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "failed to encode dataset descriptor")
	}
	if err := os.WriteFile(path, enc, 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", path)
	}
	return nil
}

// LoadClassTable returns the classes from the descriptor at path, or DefaultClassTable if path
// is empty.
func LoadClassTable(path string) (ClassTable, error) {
	if path == "" {
		return DefaultClassTable, nil
	}
	d, err := LoadDescriptor(path)
	if err != nil {
		return ClassTable{}, err
	}
	return d.Classes(), nil
}
