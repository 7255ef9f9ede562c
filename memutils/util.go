package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uint64
}

// CheckPageSize verifies that pageSize is positive and partitions capacity into a whole number
// of frames.
func CheckPageSize[T Number](capacity, pageSize T) error {
	if pageSize <= 0 || capacity <= 0 || capacity%pageSize != 0 {
		return cerrors.Wrapf(ErrInvalidPageSize, "capacity is %d, page size is %d", capacity, pageSize)
	}
	return nil
}

// PageCount returns the number of pages of pageSize required to hold size, rounding up.
func PageCount(size, pageSize int) int {
	return (size + pageSize - 1) / pageSize
}

func AlignUp(value int, alignment int) int {
	return PageCount(value, alignment) * alignment
}
