package runtime

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
)

// readMemory reads length bytes at offset from guest linear memory with
// bounds checking. Every guest-memory read in this package goes through
// here; an out-of-range or overflowing access is rejected, never truncated.
// The returned slice is a copy, safe to hold across further host work.
func readMemory(memory api.Memory, offset, length uint32) ([]byte, error) {
	if offset > math.MaxUint32-length {
		return nil, fmt.Errorf("guest memory access would overflow: offset=%d, length=%d", offset, length)
	}
	if uint64(offset)+uint64(length) > uint64(memory.Size()) {
		return nil, fmt.Errorf("read exceeds guest memory bounds: offset=%d, length=%d, memory_size=%d",
			offset, length, memory.Size())
	}
	data, ok := memory.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("failed to read %d bytes from guest memory at offset %d", length, offset)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// writeMemory writes data into guest linear memory at offset under the same
// validation rule as readMemory. The guest memory is never grown here.
func writeMemory(memory api.Memory, offset uint32, data []byte) error {
	length := uint32(len(data))
	if offset > math.MaxUint32-length {
		return fmt.Errorf("guest memory access would overflow: offset=%d, length=%d", offset, length)
	}
	if uint64(offset)+uint64(length) > uint64(memory.Size()) {
		return fmt.Errorf("write exceeds guest memory bounds: offset=%d, length=%d, memory_size=%d",
			offset, length, memory.Size())
	}
	if !memory.Write(offset, data) {
		return fmt.Errorf("failed to write %d bytes to guest memory at offset %d", length, offset)
	}
	return nil
}
