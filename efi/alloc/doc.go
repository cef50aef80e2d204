// Package alloc provides aligned allocations on top of the firmware pool.
//
// # Overview
//
// The host pool only guarantees 8-byte alignment. Allocator satisfies any
// power-of-two alignment by over-allocating and shifting the returned pointer
// forward. The shift ("adjustment") is stored as an unaligned machine word in
// spare room directly after the caller's bytes, so Free can recover the
// original pool pointer without a side table:
//
//	raw                 result = raw + adjust          result + size
//	 |<---- adjust ---->|<------------- size ------------->|<- word ->|
//
// The adjustment is never stored in front of result: a caller's object may
// need strict alignment right up to its own end, but nothing is said about
// the bytes that follow it.
//
// # Usage Example
//
//	a := alloc.New(pool)
//	l := alloc.MustLayout(512, 64)
//	p, err := a.Alloc(l)
//	if err != nil {
//	    return err
//	}
//	defer a.Free(p, l)
//
// # Errors
//
// Pool exhaustion is reported as ErrNoMemory (wrapping the host status).
// Freeing a pointer or layout that did not come from this allocator is a
// contract violation and panics.
//
// # Thread Safety
//
// Allocator serialises Alloc and Free with a mutex. The firmware itself is
// single-threaded, but Go programs driving a simulated host are not.
package alloc
