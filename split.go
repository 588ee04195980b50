package foodprep

import (
	"log"
	"math"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// DefaultTestFraction is the share of images placed in the test split.
const DefaultTestFraction = 0.2

// Names of the split directories.
const (
	TrainSetDirName = "Train_Set"
	TestSetDirName  = "Test_Set"
	ImagesDirName   = "images"
	LabelsDirName   = "labels"
)

// AugmentPolicy decides whether augmented derivatives take part in a split.
type AugmentPolicy string

// The known augment policies.
const (
	// AugmentExclude leaves derivatives out of both splits. They remain inspection artifacts in the
	// preprocessing output.
	AugmentExclude AugmentPolicy = "exclude"

	// AugmentWithSource copies each derivative into the split of its source image, so an original
	// and its twin never end up in different splits.
	AugmentWithSource AugmentPolicy = "with-source"
)

// ParseAugmentPolicy parses the name of an augment policy.
func ParseAugmentPolicy(s string) (AugmentPolicy, error) {
	switch p := AugmentPolicy(s); p {
	case AugmentExclude, AugmentWithSource:
		return p, nil
	}
	return "", errors.Errorf("unknown augment policy %q", s)
}

// PartitionNames deterministically splits names into train and test sets.
//
// The names are sorted, shuffled with a generator seeded with seed, and the first
// ceil(n*testFraction) names form the test set. Both results are sorted.
func PartitionNames(names []string, testFraction float64, seed int64) (train, test []string, err error) {
	if testFraction < 0 || testFraction >= 1 {
		return nil, nil, errors.Errorf("invalid test fraction %v, must be in [0, 1)", testFraction)
	}

	shuffled := append([]string(nil), names...)
	sort.Strings(shuffled)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	numTest := int(math.Ceil(float64(len(shuffled)) * testFraction))
	test = append([]string(nil), shuffled[:numTest]...)
	train = append([]string(nil), shuffled[numTest:]...)
	sort.Strings(test)
	sort.Strings(train)

	return train, test, nil
}

// SplitOptions configures SplitDataset.
type SplitOptions struct {
	OutputDir     string        // Receives Train_Set and Test_Set.
	TestFraction  float64       // Share of originals in the test split.
	Seed          int64         // Seed of the shuffle.
	AugmentPolicy AugmentPolicy // Membership of augmented derivatives.
}

// DefaultSplitOptions returns an 80/20 split with seed 42 that excludes augmented derivatives.
func DefaultSplitOptions(outputDir string) SplitOptions {
	return SplitOptions{
		OutputDir:     outputDir,
		TestFraction:  DefaultTestFraction,
		Seed:          DefaultSeed,
		AugmentPolicy: AugmentExclude,
	}
}

// SplitSet is the outcome for one side of the split.
type SplitSet struct {
	Name      string          // Directory name, e.g. Train_Set.
	Dir       string          // Path to the split directory.
	Assigned  []string        // Original image names assigned to this split.
	Copied    []ManifestEntry // Entries copied with their labels, derivatives included.
	Skipped   []string        // Names skipped because of a missing label or a copy failure.
	Augmented int             // Number of copied derivatives.
}

// ImageDir is the images directory of the split.
func (s *SplitSet) ImageDir() string {
	return filepath.Join(s.Dir, ImagesDirName)
}

// LabelDir is the labels directory of the split.
func (s *SplitSet) LabelDir() string {
	return filepath.Join(s.Dir, LabelsDirName)
}

// SplitReport is the outcome of SplitDataset.
type SplitReport struct {
	Train SplitSet
	Test  SplitSet
}

// Copied is the number of copied pairs across both splits.
func (r *SplitReport) Copied() int {
	return len(r.Train.Copied) + len(r.Test.Copied)
}

// Skipped is the number of skipped pairs across both splits.
func (r *SplitReport) Skipped() int {
	return len(r.Train.Skipped) + len(r.Test.Skipped)
}

// SplitDataset partitions the original images of m into train and test sets and copies each image
// with its label file into <OutputDir>/{Train_Set,Test_Set}/{images,labels}.
//
// Images without a label are skipped with a warning. Augmented derivatives are handled according
// to opts.AugmentPolicy. The split is over file names only; class balance is not considered.
func SplitDataset(m *Manifest, opts SplitOptions) (*SplitReport, error) {
	policy := opts.AugmentPolicy
	if policy == "" {
		policy = AugmentExclude
	}
	if _, err := ParseAugmentPolicy(string(policy)); err != nil {
		return nil, err
	}

	originals := m.Originals()
	byName := make(map[string]ManifestEntry, len(originals))
	names := make([]string, 0, len(originals))
	for _, e := range originals {
		byName[e.Name] = e
		names = append(names, e.Name)
	}

	// Derivatives by source name.
	derived := make(map[string][]ManifestEntry)
	for _, e := range m.Augmented() {
		derived[e.Source] = append(derived[e.Source], e)
	}

	trainNames, testNames, err := PartitionNames(names, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}
	log.Printf("Total original images found: %d", len(names))

	report := &SplitReport{
		Train: SplitSet{Name: TrainSetDirName, Dir: filepath.Join(opts.OutputDir, TrainSetDirName)},
		Test:  SplitSet{Name: TestSetDirName, Dir: filepath.Join(opts.OutputDir, TestSetDirName)},
	}

	for _, side := range []struct {
		set   *SplitSet
		names []string
	}{
		{&report.Train, trainNames},
		{&report.Test, testNames},
	} {
		set := side.set
		if err := ensureDirs(set.ImageDir(), set.LabelDir()); err != nil {
			return nil, err
		}
		set.Assigned = side.names

		log.Printf("Copying %s data", set.Name)
		for _, name := range side.names {
			e := byName[name]
			if !e.HasLabel() {
				log.Printf("Missing label for %q, skipping", name)
				set.Skipped = append(set.Skipped, name)
				continue
			}
			if err := copyPair(e, set); err != nil {
				log.Printf("Failed to copy %q, skipping: %v", name, err)
				set.Skipped = append(set.Skipped, name)
				continue
			}
			set.Copied = append(set.Copied, e)

			if policy != AugmentWithSource {
				continue
			}
			for _, d := range derived[name] {
				if !d.HasLabel() {
					log.Printf("Missing label for derivative %q, skipping", d.Name)
					continue
				}
				if err := copyPair(d, set); err != nil {
					log.Printf("Failed to copy derivative %q, skipping: %v", d.Name, err)
					continue
				}
				set.Copied = append(set.Copied, d)
				set.Augmented++
			}
		}
	}

	return report, nil
}

// copyPair copies the image and label of e into the images and labels directories of set. The
// label is stored under the base name of the image.
func copyPair(e ManifestEntry, set *SplitSet) error {
	if err := copyFile(e.ImagePath, filepath.Join(set.ImageDir(), e.Name)); err != nil {
		return err
	}
	return copyFile(e.LabelPath, filepath.Join(set.LabelDir(), baseName(e.Name)+LabelFileExt))
}

// Descriptor returns the dataset descriptor for the split in r with the given classes. The dataset
// root is the parent directory of the split sets.
func (r *SplitReport) Descriptor(classes ClassTable) *DatasetDescriptor {
	root := filepath.Dir(r.Train.Dir)
	abs, err := filepath.Abs(root)
	if err == nil {
		root = abs
	}
	return &DatasetDescriptor{
		Path:  root,
		Train: filepath.Join(TrainSetDirName, ImagesDirName),
		Val:   filepath.Join(TestSetDirName, ImagesDirName),
		NC:    classes.Len(),
		Names: classes.Names(),
	}
}
