package memutils

import "github.com/pkg/errors"

// ErrInvalidPageSize is the error returned from CheckPageSize if a page size cannot evenly
// partition the memory capacity it is applied to
var ErrInvalidPageSize error = errors.New("page size must be positive and evenly divide the memory capacity")
