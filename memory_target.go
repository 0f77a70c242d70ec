//go:build arm

package armfdir

import "unsafe"

// DirectMemory is the Memory used inside the fault handler itself, where
// .ARM.exidx, .ARM.extab and the faulting stack are simply "all of memory"
// rather than a bounded byte slice loaded by a host tool.
type DirectMemory struct{}

func (DirectMemory) ReadWord(addr Addr) (uint32, bool) {
	return *(*uint32)(unsafe.Pointer(uintptr(addr))), true
}
