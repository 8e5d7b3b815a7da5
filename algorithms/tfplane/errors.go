package tfplane

import "errors"

// Error kinds returned by this package. Every error wraps exactly one of
// them; test with errors.Is.
var (
	// ErrInvalidArgument reports a channel grid that does not fit the
	// input series' grid, or otherwise malformed parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfBand reports a channel span outside the input series'
	// frequency support.
	ErrOutOfBand = errors.New("requested band outside frequency series")

	// ErrLengthMismatch reports buffers whose lengths disagree.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrAllocation reports a failure to allocate a series or window.
	ErrAllocation = errors.New("allocation failed")

	// ErrTransform reports a failed inverse FFT.
	ErrTransform = errors.New("inverse FFT failed")
)
