// Package fs wraps the simple file system protocol. Volume roots and files
// are handed out as *owned.Owned[File]; closing an Owned closes exactly that
// handle and nothing opened through it.
package fs
