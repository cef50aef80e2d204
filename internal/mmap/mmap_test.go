package mmap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestAnonIsPageAlignedAndWritable(t *testing.T) {
	data, release, err := Anon(3 * 4096)
	require.NoError(t, err)
	require.Len(t, data, 3*4096)
	require.Zero(t, uintptr(unsafe.Pointer(&data[0]))%4096)

	require.Equal(t, make([]byte, len(data)), data, "mapping must start zeroed")
	data[len(data)-1] = 0x5A

	require.NoError(t, release())
	require.NoError(t, release(), "second release is a no-op")
}

func TestAnonRejectsEmpty(t *testing.T) {
	_, _, err := Anon(0)
	require.Error(t, err)
}
