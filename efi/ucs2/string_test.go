package ucs2

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndString(t *testing.T) {
	s, err := New(`\EFI\BOOT\BOOTX64.EFI`)
	require.NoError(t, err)
	assert.Equal(t, 20, s.Len())
	assert.Equal(t, `\EFI\BOOT\BOOTX64.EFI`, s.String())
	assert.Equal(t, uint16(0), s.Units()[s.Len()])
	assert.Len(t, s.Bytes(), 2*21)
}

func TestNewRejectsNulAndAstral(t *testing.T) {
	_, err := New("a\x00b")
	var ce *CharError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Index)
	assert.True(t, errors.Is(err, ErrHasNul))

	_, err = New("ok😀")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 2, ce.Index)
	assert.True(t, errors.Is(err, ErrUnsupportedChar))
}

func TestNewRejectsInvalidUTF8(t *testing.T) {
	_, err := New("EFI\xffBOOT")
	var ce *CharError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Index)
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	s := MustNew("boot")
	require.ErrorIs(t, s.PushString("\xc3"), ErrInvalidUTF8)
	assert.Equal(t, "boot", s.String())

	// An encoded U+FFFD is a real character and is kept.
	s, err = New("a\uFFFDb")
	require.NoError(t, err)
	assert.Equal(t, []uint16{'a', 0xFFFD, 'b', 0}, s.Units())
}

func TestPushStringRollsBack(t *testing.T) {
	s := MustNew("boot")
	require.Error(t, s.PushString(".e\x00fi"))
	assert.Equal(t, "boot", s.String())

	s.Push(FullStop)
	require.NoError(t, s.PushString("log"))
	assert.Equal(t, "boot.log", s.String())
}

func TestPushDoesNotAliasOriginal(t *testing.T) {
	a := MustNew("x")
	b := a
	b.Push('y')
	assert.Equal(t, "x", a.String())
	assert.Equal(t, "xy", b.String())
}

func TestDecode(t *testing.T) {
	raw := append(MustNew("é.txt").Bytes(), 0xFF, 0xFF)
	s, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "é.txt", s.String())

	_, err = Decode([]byte{'a', 0, 'b', 0})
	assert.ErrorIs(t, err, ErrNotTerminated)
}

func TestFromUnits(t *testing.T) {
	s, err := FromUnits([]uint16{'h', 'i', 0})
	require.NoError(t, err)
	assert.True(t, s.Equal(MustNew("hi")))

	_, err = FromUnits([]uint16{'h', 0, 'i', 0})
	assert.ErrorIs(t, err, ErrHasNul)
	_, err = FromUnits([]uint16{'h'})
	assert.ErrorIs(t, err, ErrNotTerminated)
}

func TestZeroValueIsEmpty(t *testing.T) {
	var s String
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "", s.String())
	assert.Equal(t, []byte{0, 0}, s.Bytes())
}
