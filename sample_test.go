package foodprep

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestSampleFiles(t *testing.T) {
	names := []string{"e.jpg", "a.jpg", "c.jpg", "b.jpg", "d.jpg", "g.jpg", "f.jpg", "h.jpg", "i.jpg"}

	first, err := SampleFiles(names, DefaultSampleSize, DefaultSeed)
	if err != nil {
		t.Fatalf("SampleFiles failed: %v", err)
	}
	if len(first) != DefaultSampleSize {
		t.Fatalf("got %d samples, want %d", len(first), DefaultSampleSize)
	}

	seen := make(map[string]bool)
	for _, n := range first {
		if seen[n] {
			t.Errorf("duplicate sample %q", n)
		}
		seen[n] = true
	}

	// The result depends only on the set of names and the seed.
	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}
	second, err := SampleFiles(reversed, DefaultSampleSize, DefaultSeed)
	if err != nil {
		t.Fatalf("SampleFiles failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("samples differ for the same set: %v vs %v", first, second)
	}
}

func TestSampleFiles_AllNames(t *testing.T) {
	names := []string{"a", "b", "c"}
	got, err := SampleFiles(names, 3, 1)
	if err != nil {
		t.Fatalf("SampleFiles failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %v, want a permutation of %v", got, names)
	}
}

func TestSampleFiles_Errors(t *testing.T) {
	names := []string{"a", "b", "c"}

	if _, err := SampleFiles(names, 4, 1); errors.Cause(err) != ErrSampleTooLarge {
		t.Errorf("k > n: got error %v, want ErrSampleTooLarge", err)
	}
	if _, err := SampleFiles(names, -1, 1); err == nil {
		t.Error("negative k: expected an error")
	}
}
