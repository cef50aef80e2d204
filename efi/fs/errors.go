package fs

import "errors"

var (
	// ErrIsDirectory indicates an operation that only applies to regular files.
	ErrIsDirectory = errors.New("fs: file is a directory")
	// ErrCreate wraps failures of Create while opening the file.
	ErrCreate = errors.New("fs: create failed")
	// ErrTruncate wraps failures of Create while truncating an existing file.
	ErrTruncate = errors.New("fs: truncate failed")
)
