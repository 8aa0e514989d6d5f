package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWarehouse is returned for a selector other than 1, 2 or both.
	ErrInvalidWarehouse = errors.New("warehouse must be 1, 2, or both")

	// ErrMetadata marks failures of the metadata provider.
	ErrMetadata = errors.New("client metadata")

	// ErrSessionClosed is returned when writing through a closed session.
	ErrSessionClosed = errors.New("output session closed")
)

// IsMetadataErr reports whether err came from the metadata provider.
func IsMetadataErr(err error) bool {
	return errors.Is(err, ErrMetadata)
}

// DirectoryError reports the environment directory a run failed in.
type DirectoryError struct {
	Dir string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("environment %s: %v", e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}
