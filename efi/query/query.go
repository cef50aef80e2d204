// Package query runs host operations whose result size is only known after
// asking: call with a guessed buffer, and on BufferTooSmall retry with the
// size the host reported.
//
// Every intermediate buffer is released before the next attempt and before
// any error is returned, so a failed query never leaks pool memory.
package query

import (
	"errors"
	"fmt"

	"github.com/joshuapare/efikit/efi"
	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/internal/logger"
)

// ErrProtocol indicates the host broke the sizing contract: it claimed to
// write more than the buffer held, or asked for a buffer that was not larger
// than the one it rejected.
var ErrProtocol = errors.New("query: host violated sizing protocol")

// Func performs one host call into buf. On Success n is the number of bytes
// written; on BufferTooSmall n is the size the host needs. buf is exclusively
// borrowed for the duration of the call.
type Func func(buf []byte) (n int, st efi.Status)

// Mode selects how a successful result is sized.
type Mode uint8

const (
	// Trim keeps the last buffer and reports the host's length. Used for
	// lists where the host may write less than the capacity.
	Trim Mode = iota
	// Exact reallocates to exactly the reported length when it differs from
	// the capacity. Used for records whose trailing content is size-significant.
	Exact
)

func (m Mode) String() string {
	if m == Exact {
		return "exact"
	}
	return "trim"
}

// Options configures Run.
type Options struct {
	Name  string // used in errors and logs
	Guess int    // initial capacity in bytes
	Align int    // buffer alignment; 0 means host.BaselineAlign
	Mode  Mode
}

// Result is a converged query buffer. It must be released with Free.
type Result struct {
	block *alloc.Block
	n     int
}

// Bytes returns exactly the bytes the host reported.
func (r *Result) Bytes() []byte { return r.block.Bytes()[:r.n] }

// Len returns the reported length.
func (r *Result) Len() int { return r.n }

// Cap returns the size of the underlying allocation.
func (r *Result) Cap() int { return r.block.Layout().Size }

// Free releases the buffer.
func (r *Result) Free() { r.block.Free() }

// Run drives fn until it succeeds or fails with anything but BufferTooSmall.
// The number of retries is not bounded; the host is trusted to converge, and
// a non-growing size request is reported as ErrProtocol.
func Run(a *alloc.Allocator, opts Options, fn Func) (*Result, error) {
	align := opts.Align
	if align == 0 {
		align = host.BaselineAlign
	}
	size := max(opts.Guess, 0)

	for attempt := 1; ; attempt++ {
		l, err := alloc.NewLayout(size, align)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.Name, err)
		}
		blk, err := a.AllocBlock(l)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.Name, err)
		}

		n, st := fn(blk.Bytes())
		switch {
		case st.IsSuccess():
			if n < 0 || n > size {
				blk.Free()
				return nil, fmt.Errorf("%s: host wrote %d bytes into %d: %w", opts.Name, n, size, ErrProtocol)
			}
			logger.Debug("query converged", "query", opts.Name, "attempts", attempt, "len", n, "cap", size)
			if opts.Mode == Exact && n != size {
				return exact(a, blk, n, opts)
			}
			return &Result{block: blk, n: n}, nil

		case st == efi.BufferTooSmall:
			blk.Free()
			if n <= size {
				return nil, fmt.Errorf("%s: host asked for %d bytes after rejecting %d: %w",
					opts.Name, n, size, ErrProtocol)
			}
			logger.Debug("query buffer too small", "query", opts.Name, "have", size, "need", n)
			size = n

		default:
			blk.Free()
			return nil, fmt.Errorf("%s: %w", opts.Name, st)
		}
	}
}

// exact moves the first n bytes of blk into a buffer of exactly n bytes.
func exact(a *alloc.Allocator, blk *alloc.Block, n int, opts Options) (*Result, error) {
	l, err := alloc.NewLayout(n, blk.Layout().Align)
	if err != nil {
		blk.Free()
		return nil, fmt.Errorf("%s: %w", opts.Name, err)
	}
	fit, err := a.AllocBlock(l)
	if err != nil {
		blk.Free()
		return nil, fmt.Errorf("%s: %w", opts.Name, err)
	}
	copy(fit.Bytes(), blk.Bytes()[:n])
	blk.Free()
	return &Result{block: fit, n: n}, nil
}
