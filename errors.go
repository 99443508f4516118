package degkit

import "errors"

var (
	// ErrInvalidStructure is returned when a structure string cannot be parsed.
	ErrInvalidStructure = errors.New("degkit: invalid structure")

	// ErrCompoundNotFound is returned when a compound is not in the store.
	ErrCompoundNotFound = errors.New("degkit: compound not found")

	// ErrNoObservations is returned when no measured data exists for a
	// historical-prior lookup.
	ErrNoObservations = errors.New("degkit: no observations recorded")

	// ErrStoreDisabled is returned when a persistence-backed operation is
	// called on an engine opened without a store.
	ErrStoreDisabled = errors.New("degkit: store disabled")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("degkit: invalid configuration")
)
