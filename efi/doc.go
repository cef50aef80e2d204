// Package efi holds the vocabulary shared between firmware host tables and the
// safe wrappers built on top of them: status codes, GUIDs, memory and file
// attribute types.
//
// # Overview
//
// The firmware (the "host") hands out raw function tables, pool memory with a
// fixed 8-byte alignment, variable-length binary records and opaque handles
// that must be released through host-supplied destructors. The packages under
// efi/ turn those into ordinary Go values:
//
//   - efi/alloc: aligned allocations on top of the host pool
//   - efi/owned: release-exactly-once ownership of host handles
//   - efi/query: probe/allocate/retry for results of unknown size
//   - efi/devpath: the device path linked-record format
//   - efi/fs and efi/boot: file system and boot services wrappers
//
// The host itself is described by interfaces in efi/host. A simulated
// firmware lives in efi/host/sim.
//
// # Thread Safety
//
// Firmware is single-threaded. The allocator serialises its own state; every
// other wrapper must be confined to one goroutine or synchronised externally.
package efi
