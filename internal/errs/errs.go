// Package errs holds the error kinds shared by the dataset packages. Call sites wrap them
// with fmt.Errorf("...: %w", ...) so callers can match with errors.Is.
package errs

import "errors"

var (
	// ErrConfiguration covers a missing data root, an unknown index name or a test
	// identifier with no files on disk.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataInconsistency is returned when a target label is requested but no row carries it.
	ErrDataInconsistency = errors.New("data inconsistency")

	// ErrDataShapeMismatch is returned when a stored array does not have the expected shape.
	ErrDataShapeMismatch = errors.New("data shape mismatch")

	// ErrStorageMissing is returned when an array that passed an existence check is gone.
	ErrStorageMissing = errors.New("storage missing")
)
