package foodprep

// Dataset manifest functionality. The manifest enumerates the images of a dataset and their label
// pairing once, so that later stages do not have to re-derive it from directory contents.

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ManifestFileName is the name of the manifest written next to preprocessed images.
const ManifestFileName = "manifest.json"

// Role tells whether an image is an original or an augmented derivative.
type Role string

// The known image roles.
const (
	RoleOriginal  Role = "original"
	RoleAugmented Role = "augmented"
)

// ManifestEntry describes one image of the dataset.
type ManifestEntry struct {
	Name         string  `json:"name"`                    // Image file name.
	ImagePath    string  `json:"image"`                   // Path to the image.
	LabelPath    string  `json:"label,omitempty"`         // Path to the label file, empty if none.
	Role         Role    `json:"role"`                    // Original or augmented.
	Source       string  `json:"source,omitempty"`        // Name of the original for derivatives.
	FocusMeasure float64 `json:"focus_measure,omitempty"` // Laplacian variance, if measured.
	Transforms   string  `json:"transforms,omitempty"`    // Applied augmentation, for derivatives.
}

// HasLabel reports whether a label file is paired with the image.
func (e ManifestEntry) HasLabel() bool {
	return e.LabelPath != ""
}

// Manifest is the list of images of a dataset, sorted by name.
type Manifest struct {
	ImageDir string          `json:"image_dir"`
	LabelDir string          `json:"label_dir"`
	Entries  []ManifestEntry `json:"entries"`
}

// Originals returns the entries with role RoleOriginal.
func (m *Manifest) Originals() []ManifestEntry {
	return m.byRole(RoleOriginal)
}

// Augmented returns the entries with role RoleAugmented.
func (m *Manifest) Augmented() []ManifestEntry {
	return m.byRole(RoleAugmented)
}

func (m *Manifest) byRole(r Role) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Role == r {
			entries = append(entries, e)
		}
	}
	return entries
}

// Unpaired returns the original entries without a label file.
func (m *Manifest) Unpaired() []ManifestEntry {
	var entries []ManifestEntry
	for _, e := range m.Originals() {
		if !e.HasLabel() {
			entries = append(entries, e)
		}
	}
	return entries
}

// Add appends an entry.
func (m *Manifest) Add(e ManifestEntry) {
	m.Entries = append(m.Entries, e)
}

// Sort orders the entries by name.
func (m *Manifest) Sort() {
	sort.Slice(m.Entries, func(i, j int) bool { return m.Entries[i].Name < m.Entries[j].Name })
}

// BuildManifest enumerates the images in imageDir and pairs each with the label file of the same
// base name in labelDir. All images are treated as originals. Images without a label are kept with
// an empty LabelPath and logged. Of several images sharing a base name only the first in name order
// is kept.
func BuildManifest(imageDir, labelDir string) (*Manifest, error) {
	images, err := imagesInDir(imageDir)
	if err != nil {
		return nil, err
	}
	images, _ = uniqueByBaseName(images)

	m := &Manifest{ImageDir: imageDir, LabelDir: labelDir}
	for _, path := range images {
		m.Add(originalEntry(path, labelDir))
	}
	m.Sort()

	if n := len(m.Unpaired()); n > 0 {
		log.Printf("%d of %d images in %q have no label in %q", n, len(images), imageDir, labelDir)
	}
	return m, nil
}

// originalEntry describes the original image at path, paired with its label in labelDir if present.
func originalEntry(path, labelDir string) ManifestEntry {
	e := ManifestEntry{Name: filepath.Base(path), ImagePath: path, Role: RoleOriginal}
	if label := labelPathFor(labelDir, path); fileExists(label) {
		e.LabelPath = label
	}
	return e
}

// ReadManifest reads the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read manifest %q", path)
	}

	var m Manifest
	if err := json.Unmarshal(enc, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest %q", path)
	}
	return &m, nil
}

// WriteManifest writes the manifest to path as indented JSON.
func WriteManifest(path string, m *Manifest) error {
	enc, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, enc, 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", path)
	}
	return nil
}
