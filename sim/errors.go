package sim

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidInput is returned when a process name is empty or a size is not a positive
	// whole number
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateName is returned when a process with the requested name is already resident
	// or swapped
	ErrDuplicateName = errors.New("a process with this name already exists")
	// ErrExceedsCapacity is returned when a process could never fit in memory, even if memory
	// were empty
	ErrExceedsCapacity = errors.New("process size exceeds memory capacity")
	// ErrInsufficientSpace is carried by a swapped AdmissionResult when neither direct placement
	// nor eviction could make room. It is an expected outcome rather than a failure.
	ErrInsufficientSpace = errors.New("insufficient space in memory")
	// ErrNotFound is returned when an operation names a process that does not exist
	ErrNotFound = errors.New("process not found")
)
