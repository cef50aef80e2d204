package alloc

import "errors"

var (
	// ErrNoMemory indicates the host pool could not satisfy the request.
	ErrNoMemory = errors.New("alloc: out of memory")

	// ErrBadLayout indicates a negative size or a non power-of-two alignment.
	ErrBadLayout = errors.New("alloc: invalid layout")
)
