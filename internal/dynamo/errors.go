package dynamo

import "errors"

// Errors returned by the adapter layers. The core itself reports illegal
// mutations as no-ops, never as errors.
var (
	// ErrUnknownElement indicates an element index outside the element table.
	ErrUnknownElement = errors.New("dynamo: unknown element type")

	// ErrBadSnapshot indicates a snapshot that cannot be decoded.
	ErrBadSnapshot = errors.New("dynamo: malformed snapshot")

	// ErrUnknownPreset indicates a preset name with no registered builder.
	ErrUnknownPreset = errors.New("dynamo: unknown preset")

	// ErrInvalidParams indicates physics parameters outside their valid range.
	ErrInvalidParams = errors.New("dynamo: physics parameter out of valid bounds")
)
