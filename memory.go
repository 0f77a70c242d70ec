package armfdir

import "encoding/binary"

// Addr is an address in the target's 32-bit address space: a location in
// flash, RAM, or the special register range, depending on which Memory it is
// read through.
type Addr uint32

// Memory is read-only access to a region of the target's address space.
// Every load the unwinder performs is word-sized and word-aligned, mirroring
// the fact that .ARM.exidx/.ARM.extab entries and the frames they describe
// are always read a uint32 at a time.
type Memory interface {
	// ReadWord reads the little-endian 32-bit word stored at addr. ok is
	// false if addr falls outside the region this Memory backs.
	ReadWord(addr Addr) (word uint32, ok bool)
}

// SliceMemory is a Memory backed by an in-process byte slice: the
// implementation used by tests, and by host-side tooling that has loaded a
// firmware image or core dump into memory.
type SliceMemory struct {
	base Addr
	data []byte
}

// NewSliceMemory returns a Memory that reads data as if it were mapped
// starting at base.
func NewSliceMemory(base Addr, data []byte) SliceMemory {
	return SliceMemory{base: base, data: data}
}

func (m SliceMemory) ReadWord(addr Addr) (uint32, bool) {
	off := int64(addr) - int64(m.base)
	if off < 0 || off+4 > int64(len(m.data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.data[off : off+4]), true
}
