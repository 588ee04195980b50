package foodprep

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Match them with errors.Is; they are usually wrapped with the offending path.
var (
	// ErrSampleTooLarge is returned when more samples are requested than there are items.
	ErrSampleTooLarge = errors.New("sample size exceeds population")

	// ErrMissingLabel marks an image without a matching label file.
	ErrMissingLabel = errors.New("missing label file")

	// ErrInvalidDescriptor is returned for dataset descriptors that are inconsistent.
	ErrInvalidDescriptor = errors.New("invalid dataset descriptor")
)

// TrainingError reports a training subprocess that exited with a non-zero status.
type TrainingError struct {
	ExitCode int
	Err      error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed with exit code %d: %v", e.ExitCode, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}
