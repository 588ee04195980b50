package foodprep

import (
	"image"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// DefaultImageSize is the side length of preprocessed images.
const DefaultImageSize = 416

// AugmentedLabelDirName is the directory below the preprocessing output that holds the labels of
// augmented derivatives.
const AugmentedLabelDirName = "labels_aug"

// PreprocessOptions configures Preprocess.
type PreprocessOptions struct {
	InputDir    string        // Raw images.
	LabelDir    string        // Labels of the raw images; may be empty.
	OutputDir   string        // Cleared and rebuilt on every run.
	Size        int           // Side length of the square output images.
	Filter      QualityFilter // Rejects blurry images.
	Augmenter   Augmenter     // Applied to the resized image.
	Augment     bool          // Write an augmented derivative per accepted image.
	Seed        int64         // Base seed for the per-image augmentation.
	JPEGQuality int
	Workers     int // Number of goroutines; <= 0 selects 2*NumCPU.
}

// DefaultPreprocessOptions returns the options of the standard pipeline for the given directories.
func DefaultPreprocessOptions(inputDir, labelDir, outputDir string) PreprocessOptions {
	return PreprocessOptions{
		InputDir:    inputDir,
		LabelDir:    labelDir,
		OutputDir:   outputDir,
		Size:        DefaultImageSize,
		Filter:      QualityFilter{Threshold: DefaultBlurThreshold},
		Augmenter:   DefaultAugmenter,
		Augment:     true,
		Seed:        DefaultSeed,
		JPEGQuality: DefaultJPEGQuality,
	}
}

// PreprocessReport tallies the outcome of a preprocessing run. Name lists are sorted.
type PreprocessReport struct {
	Accepted   []string // Written to the output.
	Blurry     []string // Rejected by the quality filter.
	Unreadable []string // Failed to load or decode.
	Failed     []string // Failed to write.
	Duplicate  []string // Sharing a base name with an earlier image.
	Augmented  int      // Number of derivatives written.
}

// Total is the number of input images seen.
func (r *PreprocessReport) Total() int {
	return len(r.Accepted) + len(r.Blurry) + len(r.Unreadable) + len(r.Failed) + len(r.Duplicate)
}

// preprocessState collects results from the worker goroutines.
type preprocessState struct {
	mu       sync.Mutex
	report   PreprocessReport
	manifest Manifest
}

func (s *preprocessState) record(list *[]string, name string, entries ...ManifestEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*list = append(*list, name)
	for _, e := range entries {
		s.manifest.Add(e)
		if e.Role == RoleAugmented {
			s.report.Augmented++
		}
	}
}

// Preprocess filters, resizes and augments every image in opts.InputDir and writes the results to
// opts.OutputDir, together with a manifest of the accepted images.
//
// Unreadable and blurry images are logged and skipped. Per-file failures never abort the run; only
// failing to prepare the output directory or to write the manifest returns an error.
func Preprocess(opts PreprocessOptions) (*PreprocessReport, *Manifest, error) {
	if opts.Size <= 0 {
		return nil, nil, errors.Errorf("invalid image size %d", opts.Size)
	}
	if filepath.Clean(opts.InputDir) == filepath.Clean(opts.OutputDir) {
		return nil, nil, errors.New("the image input and output paths cannot be identical")
	}

	images, err := imagesInDir(opts.InputDir)
	if err != nil {
		return nil, nil, err
	}
	images, duplicates := uniqueByBaseName(images)
	if err := resetDir(opts.OutputDir); err != nil {
		return nil, nil, err
	}
	augLabelDir := filepath.Join(opts.OutputDir, AugmentedLabelDirName)
	if opts.Augment && opts.LabelDir != "" {
		if err := ensureDirs(augLabelDir); err != nil {
			return nil, nil, err
		}
	}
	log.Printf("Preprocessing %d images from %q", len(images), opts.InputDir)

	state := &preprocessState{
		manifest: Manifest{ImageDir: opts.OutputDir, LabelDir: opts.LabelDir},
	}
	for _, path := range duplicates {
		state.report.Duplicate = append(state.report.Duplicate, filepath.Base(path))
	}

	// Limit the number of goroutines in flight, as they hold decoded images in memory.
	numTasks := opts.Workers
	if numTasks <= 0 {
		numTasks = 2 * runtime.NumCPU()
	}
	if len(images) < numTasks {
		numTasks = len(images)
	}
	workQueue := make(chan string, 2*numTasks+1)

	var wg sync.WaitGroup
	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		go func() {
			defer wg.Done()
			for path := range workQueue {
				preprocessImage(path, augLabelDir, &opts, state)
			}
		}()
	}

	for _, path := range images {
		workQueue <- path
	}
	close(workQueue)
	wg.Wait()

	r := &state.report
	for _, list := range [][]string{r.Accepted, r.Blurry, r.Unreadable, r.Failed, r.Duplicate} {
		sort.Strings(list)
	}
	state.manifest.Sort()

	manifestPath := filepath.Join(opts.OutputDir, ManifestFileName)
	if err := WriteManifest(manifestPath, &state.manifest); err != nil {
		return r, &state.manifest, err
	}

	log.Printf("Preprocessed %d images: %d accepted, %d blurry, %d unreadable, %d failed, %d duplicate",
		r.Total(), len(r.Accepted), len(r.Blurry), len(r.Unreadable), len(r.Failed), len(r.Duplicate))
	return r, &state.manifest, nil
}

// preprocessImage runs the pipeline for the single image at path.
func preprocessImage(path, augLabelDir string, opts *PreprocessOptions, s *preprocessState) {
	name := filepath.Base(path)

	img, err := loadImage(path)
	if err != nil {
		log.Printf("Failed to load %q, skipping: %v", path, err)
		s.record(&s.report.Unreadable, name)
		return
	}

	blurry, measure := opts.Filter.IsBlurry(img)
	if blurry {
		log.Printf("Blurry image skipped: %q (focus measure %.1f)", name, measure)
		s.record(&s.report.Blurry, name)
		return
	}

	resized := resizeExact(img, opts.Size, opts.Size)

	// The normalized round trip is exact for 8 bit data.
	out := Denormalize(Normalize(resized))
	outPath := filepath.Join(opts.OutputDir, name)
	if err := saveImage(outPath, out, opts.JPEGQuality); err != nil {
		log.Print(err)
		s.record(&s.report.Failed, name)
		return
	}

	original := ManifestEntry{
		Name:         name,
		ImagePath:    outPath,
		Role:         RoleOriginal,
		FocusMeasure: measure,
	}
	if opts.LabelDir != "" {
		if label := labelPathFor(opts.LabelDir, path); fileExists(label) {
			original.LabelPath = label
		}
	}
	entries := []ManifestEntry{original}

	if opts.Augment {
		if e, err := writeAugmented(resized, original, augLabelDir, opts); err != nil {
			log.Printf("Failed to augment %q: %v", name, err)
		} else {
			entries = append(entries, e)
		}
	}

	s.record(&s.report.Accepted, name, entries...)
}

// writeAugmented writes the augmented derivative of the resized source image, and the matching
// transformed labels if the source has labels.
func writeAugmented(resized image.Image, src ManifestEntry, augLabelDir string,
		opts *PreprocessOptions) (ManifestEntry, error) {

	rng := itemRand(opts.Seed, src.Name)
	aug, rec := opts.Augmenter.Apply(resized, rng)

	augName := AugmentedName(src.Name)
	augPath := filepath.Join(opts.OutputDir, augName)
	if err := saveImage(augPath, aug, opts.JPEGQuality); err != nil {
		return ManifestEntry{}, err
	}

	e := ManifestEntry{
		Name:       augName,
		ImagePath:  augPath,
		Role:       RoleAugmented,
		Source:     src.Name,
		Transforms: rec.String(),
	}

	if src.HasLabel() {
		boxes, err := LoadBoundingBoxes(src.LabelPath)
		if err != nil {
			return e, err
		}
		b := aug.Bounds()
		labelPath := filepath.Join(augLabelDir, baseName(augName)+LabelFileExt)
		if err := WriteBoundingBoxes(labelPath, rec.TransformBoxes(boxes, b.Dx(), b.Dy())); err != nil {
			return e, err
		}
		e.LabelPath = labelPath
	}

	return e, nil
}
