// Package ucs2 implements the NUL-terminated UCS-2 strings used by firmware
// for file names and device path payloads.
package ucs2

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrHasNul indicates an embedded NUL before the terminator.
	ErrHasNul = errors.New("ucs2: string contains NUL")
	// ErrUnsupportedChar indicates a character outside the Basic Multilingual Plane.
	ErrUnsupportedChar = errors.New("ucs2: character outside the BMP")
	// ErrInvalidUTF8 indicates a Go string that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("ucs2: invalid UTF-8")
	// ErrNotTerminated indicates raw units without a terminating NUL.
	ErrNotTerminated = errors.New("ucs2: missing NUL terminator")
)

// CharError reports the position of a character that cannot be stored.
type CharError struct {
	Index int
	Char  rune
	Err   error
}

func (e *CharError) Error() string {
	return fmt.Sprintf("%v: %q at index %d", e.Err, e.Char, e.Index)
}

func (e *CharError) Unwrap() error { return e.Err }

// Char is a single non-NUL UCS-2 code unit.
type Char uint16

const (
	FullStop       Char = '.'
	ReverseSolidus Char = '\\'
)

// String is an owned UCS-2 string. The backing units always end with a
// single NUL and contain no other NUL.
type String struct {
	units []uint16
}

// Empty returns a string holding only the terminator.
func Empty() String { return String{units: []uint16{0}} }

// New encodes s. Invalid UTF-8, characters outside the BMP and embedded NULs
// are rejected.
func New(s string) (String, error) {
	str := String{units: make([]uint16, 1, len(s)+1)}
	if err := str.PushString(s); err != nil {
		return String{}, err
	}
	return str, nil
}

// MustNew is New for constants known to be valid.
func MustNew(s string) String {
	str, err := New(s)
	if err != nil {
		panic(err)
	}
	return str
}

// FromUnits validates and copies NUL-terminated units.
func FromUnits(u []uint16) (String, error) {
	if len(u) == 0 || u[len(u)-1] != 0 {
		return String{}, ErrNotTerminated
	}
	if i := slices.Index(u, 0); i != len(u)-1 {
		return String{}, &CharError{Index: i, Char: 0, Err: ErrHasNul}
	}
	return String{units: slices.Clone(u)}, nil
}

// Decode reads little-endian units from b up to and including the first NUL.
// Bytes after the terminator are ignored.
func Decode(b []byte) (String, error) {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		units = append(units, u)
		if u == 0 {
			return String{units: units}, nil
		}
	}
	return String{}, ErrNotTerminated
}

// Len returns the number of characters, excluding the terminator.
func (s String) Len() int {
	if len(s.units) == 0 {
		return 0
	}
	return len(s.units) - 1
}

// IsEmpty reports whether s has no characters.
func (s String) IsEmpty() bool { return s.Len() == 0 }

// Units returns the NUL-terminated units. The result must not be modified.
func (s String) Units() []uint16 {
	if s.units == nil {
		return []uint16{0}
	}
	return s.units
}

// Bytes returns the little-endian encoding including the terminator.
func (s String) Bytes() []byte {
	u := s.Units()
	b := make([]byte, 2*len(u))
	for i, c := range u {
		binary.LittleEndian.PutUint16(b[2*i:], c)
	}
	return b
}

// Equal reports whether s and o hold the same characters.
func (s String) Equal(o String) bool {
	return slices.Equal(s.Units(), o.Units())
}

// Push appends c.
func (s *String) Push(c Char) {
	if c == 0 {
		panic("ucs2: push of NUL")
	}
	u := s.Units()
	s.units = append(u[:len(u)-1:len(u)-1], uint16(c), 0)
}

// PushString appends every character of v. On error s is left unchanged.
func (s *String) PushString(v string) error {
	u := s.Units()
	out := slices.Clone(u[:len(u)-1])
	for i := 0; len(v) > 0; i++ {
		r, n := utf8.DecodeRuneInString(v)
		v = v[n:]
		switch {
		case r == utf8.RuneError && n == 1:
			return &CharError{Index: i, Char: r, Err: ErrInvalidUTF8}
		case r == 0:
			return &CharError{Index: i, Char: r, Err: ErrHasNul}
		case r > 0xFFFF:
			return &CharError{Index: i, Char: r, Err: ErrUnsupportedChar}
		}
		out = append(out, uint16(r))
	}
	s.units = append(out, 0)
	return nil
}

var decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// String decodes s to UTF-8.
func (s String) String() string {
	u := s.Units()
	b := make([]byte, 2*(len(u)-1))
	for i, c := range u[:len(u)-1] {
		binary.LittleEndian.PutUint16(b[2*i:], c)
	}
	out, err := decoder.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
