package dsscaffold

import (
	"github.com/cockroachdb/errors"

	"github.com/AidanDelaney/dsscaffold/pkg/internal"
)

var (
	// ErrInvalidSettings is returned when Settings fail validation.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrDestinationNotEmpty is returned when the project root already holds
	// entries and Force is not set. Nothing has been written at that point.
	ErrDestinationNotEmpty = errors.New("destination not empty")
	// ErrFilesystem marks a failure to create a folder or write a file.
	ErrFilesystem = internal.ErrFilesystem
	// ErrVersionControl marks a failure to initialize or commit the
	// repository. The generated files stay on disk.
	ErrVersionControl = internal.ErrVersionControl
)
