package runtime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	mem := newGuestMemory(t)

	payload := []byte("capability bridge payload")
	require.NoError(t, writeMemory(mem, 128, payload))

	got, err := readMemory(mem, 128, uint32(len(payload)))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadMemoryCopies(t *testing.T) {
	mem := newGuestMemory(t)

	require.NoError(t, writeMemory(mem, 0, []byte("before")))
	got, err := readMemory(mem, 0, 6)
	require.NoError(t, err)

	// Mutating guest memory after the read must not change the host copy.
	require.NoError(t, writeMemory(mem, 0, []byte("after!")))
	require.Equal(t, []byte("before"), got)
}

func TestReadMemoryOutOfBounds(t *testing.T) {
	mem := newGuestMemory(t)
	size := mem.Size()

	_, err := readMemory(mem, size-4, 8)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds guest memory bounds")

	_, err = readMemory(mem, size, 1)
	require.Error(t, err)
}

func TestReadMemoryOverflow(t *testing.T) {
	mem := newGuestMemory(t)

	_, err := readMemory(mem, math.MaxUint32, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflow")
}

func TestWriteMemoryOutOfBounds(t *testing.T) {
	mem := newGuestMemory(t)
	size := mem.Size()

	err := writeMemory(mem, size-2, []byte("too long"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds guest memory bounds")
}

func TestWriteMemoryOverflow(t *testing.T) {
	mem := newGuestMemory(t)

	err := writeMemory(mem, math.MaxUint32-1, []byte("abcd"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflow")
}

func TestWriteMemoryNoPartialWrite(t *testing.T) {
	mem := newGuestMemory(t)
	size := mem.Size()

	marker := []byte{0xAA, 0xAA, 0xAA, 0xAA}
	require.NoError(t, writeMemory(mem, size-4, marker))

	// A rejected write must leave the destination untouched.
	require.Error(t, writeMemory(mem, size-4, []byte("overrun")))

	got, err := readMemory(mem, size-4, 4)
	require.NoError(t, err)
	require.Equal(t, marker, got)
}
