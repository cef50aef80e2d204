package host

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/efikit/efi"
)

func newTestArena(t *testing.T, size int) *Arena {
	t.Helper()
	a, err := NewArena(size)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

func TestArenaBaselineAlignment(t *testing.T) {
	a := newTestArena(t, 4096)

	for _, size := range []int{0, 1, 7, 8, 9, 15, 24, 33} {
		p, st := a.AllocatePool(efi.LoaderData, size)
		require.Equal(t, efi.Success, st, "size %d", size)
		assert.Zero(t, uintptr(p)%BaselineAlign, "size %d", size)
		assert.True(t, a.Contains(p))
	}
}

func TestArenaFreeCoalesces(t *testing.T) {
	a := newTestArena(t, 64)

	p1, st := a.AllocatePool(efi.LoaderData, 16)
	require.Equal(t, efi.Success, st)
	p2, st := a.AllocatePool(efi.LoaderData, 16)
	require.Equal(t, efi.Success, st)
	p3, st := a.AllocatePool(efi.LoaderData, 32)
	require.Equal(t, efi.Success, st)

	_, st = a.AllocatePool(efi.LoaderData, 8)
	require.Equal(t, efi.OutOfResources, st)

	require.Equal(t, efi.Success, a.FreePool(p1))
	require.Equal(t, efi.Success, a.FreePool(p3))
	require.Equal(t, efi.Success, a.FreePool(p2))
	assert.Zero(t, a.InUse())
	assert.Zero(t, a.Live())

	// The whole arena is one span again.
	p, st := a.AllocatePool(efi.LoaderData, 64)
	require.Equal(t, efi.Success, st)
	assert.Equal(t, p1, p)
}

func TestArenaRejectsForeignAndDoubleFree(t *testing.T) {
	a := newTestArena(t, 128)

	p, st := a.AllocatePool(efi.LoaderData, 24)
	require.Equal(t, efi.Success, st)

	assert.Equal(t, efi.InvalidParameter, a.FreePool(unsafe.Add(p, 8)))
	var local [8]byte
	assert.Equal(t, efi.InvalidParameter, a.FreePool(unsafe.Pointer(&local[0])))

	require.Equal(t, efi.Success, a.FreePool(p))
	assert.Equal(t, efi.InvalidParameter, a.FreePool(p))
}

func TestArenaRejectsOversizedRequests(t *testing.T) {
	a := newTestArena(t, 4096)

	for _, size := range []int{4097, math.MaxInt - 8, math.MaxInt} {
		p, st := a.AllocatePool(efi.LoaderData, size)
		assert.Nil(t, p, "size %d", size)
		assert.Equal(t, efi.OutOfResources, st, "size %d", size)
	}
	assert.Zero(t, a.InUse())

	p, st := a.AllocatePool(efi.LoaderData, 4096)
	require.Equal(t, efi.Success, st)
	require.Equal(t, efi.Success, a.FreePool(p))
}

func TestArenaClosed(t *testing.T) {
	a, err := NewArena(64)
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, st := a.AllocatePool(efi.LoaderData, 8)
	assert.Equal(t, efi.NotReady, st)
}
