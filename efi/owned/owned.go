// Package owned ties a raw host resource to the routine that releases it.
//
// An Owned[T] is created right after a successful host open or allocate call
// and released with Close, normally via defer. Release runs exactly once:
// Close after Close is a no-op, Move hands the resource to a new owner and
// disarms the old one, and go vet flags accidental copies.
//
//	root, err := vol.OpenRoot()
//	if err != nil {
//	    return err
//	}
//	defer root.Close()
package owned

import (
	"fmt"

	"github.com/joshuapare/efikit/efi"
)

// Dtor is a release strategy. Use Function or Closure to build one.
type Dtor[T any] interface {
	release(p *T) error
}

type funcDtor[T any] func(*T) efi.Status

func (f funcDtor[T]) release(p *T) error {
	if st := f(p); !st.IsSuccess() {
		return fmt.Errorf("owned: release: %w", st)
	}
	return nil
}

type closureDtor[T any] func()

func (f closureDtor[T]) release(*T) error {
	f()
	return nil
}

// Function releases through a plain host destructor such as a protocol's
// Close slot. A non-success status is returned from Owned.Close.
func Function[T any](fn func(*T) efi.Status) Dtor[T] {
	if fn == nil {
		return nil
	}
	return funcDtor[T](fn)
}

// Closure releases through a closure that captures whatever context the
// release needs, for destructors whose signature does not take *T.
func Closure[T any](fn func()) Dtor[T] {
	if fn == nil {
		return nil
	}
	return closureDtor[T](fn)
}

// noCopy may be embedded into structs which must not be copied after first use.
// See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Owned holds a raw resource pointer and its release strategy.
type Owned[T any] struct {
	_    noCopy
	p    *T
	dtor Dtor[T]
}

// New takes ownership of p. The caller asserts that p is valid and was
// produced by an operation compatible with dtor. A nil p or dtor panics.
func New[T any](p *T, dtor Dtor[T]) *Owned[T] {
	if p == nil {
		panic("owned: nil resource")
	}
	if dtor == nil {
		panic("owned: nil release")
	}
	return &Owned[T]{p: p, dtor: dtor}
}

// Get returns the resource. It panics once the value was closed or moved.
func (o *Owned[T]) Get() *T {
	if o.p == nil {
		panic("owned: use after release")
	}
	return o.p
}

// Live reports whether o still owns its resource.
func (o *Owned[T]) Live() bool { return o.p != nil }

// Move transfers the resource to a new Owned and disarms o. Closing o
// afterwards does nothing.
func (o *Owned[T]) Move() *Owned[T] {
	if o.p == nil {
		panic("owned: move after release")
	}
	n := &Owned[T]{p: o.p, dtor: o.dtor}
	o.p, o.dtor = nil, nil
	return n
}

// Close runs the release exactly once. The resource is considered released
// even when the release reports an error.
func (o *Owned[T]) Close() error {
	if o.p == nil {
		return nil
	}
	p, d := o.p, o.dtor
	o.p, o.dtor = nil, nil
	return d.release(p)
}
