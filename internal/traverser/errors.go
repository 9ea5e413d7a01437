package traverser

import "errors"

var (
	// ErrInvalidSplit is returned by SplitBulk when the requested amount is
	// zero or would leave the source traverser with no bulk.
	ErrInvalidSplit = errors.New("traverser: invalid bulk split")
	// ErrPathNotTracked is returned when a path operation is attempted on a
	// traverser created without path tracking.
	ErrPathNotTracked = errors.New("traverser: path is not tracked")
)
