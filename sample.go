package foodprep

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// Defaults for the visualization sample.
const (
	DefaultSampleSize = 7
	DefaultSeed       = 42
)

// SampleFiles returns k names drawn without replacement from names, using a generator seeded with
// seed. The names are sorted before sampling so the result only depends on the set of names.
//
// Requesting more samples than there are names is a precondition violation and returns
// ErrSampleTooLarge.
func SampleFiles(names []string, k int, seed int64) ([]string, error) {
	if k < 0 {
		return nil, errors.Errorf("invalid sample size %d", k)
	}
	if k > len(names) {
		return nil, errors.Wrapf(ErrSampleTooLarge, "requested %d of %d files", k, len(names))
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(sorted))

	sample := make([]string, k)
	for i := 0; i < k; i++ {
		sample[i] = sorted[perm[i]]
	}

	return sample, nil
}
