// Package capture renders, in ordinary Go, the contract the fault-entry
// assembly stub on the real target is expected to honor before handing
// control to the unwinder: pick the stack that was active when the
// exception fired, and read the one (lr, fp) pair off it that seeds the
// walk. It is a model of that contract for testing and host tooling, not
// the privileged code itself.
package capture

import "github.com/flint-systems/armfdir"

// excReturnStackBit is bit 2 of EXC_RETURN: when set, the processor was
// using the process stack (PSP) at exception entry; when clear, the main
// stack (MSP).
const excReturnStackBit = 1 << 2

// SelectStackPointer picks msp or psp according to the EXC_RETURN value the
// processor pushed to lr on exception entry, mirroring the `tst lr, #4`
// test the firmware's own fault entry stub performs before it can know
// which stack its saved registers landed on.
func SelectStackPointer(excReturn, msp, psp armfdir.Addr) armfdir.Addr {
	if excReturn&excReturnStackBit != 0 {
		return psp
	}
	return msp
}

// Seed reads the frame-pointer-based call captured at sp on the active
// stack and returns the initial (lr, fp) pair the walker should start from.
// fp is the caller's r7 (the frame pointer the build convention rendezvous
// on) at the moment of the fault; lr is read from the word 20 bytes above
// sp, matching the layout the original firmware's PrepareUnwind reads
// (`ldr lr, [r0, #20]`).
func Seed(mem armfdir.Memory, sp, fp armfdir.Addr) (armfdir.Call, bool) {
	lr, ok := mem.ReadWord(sp + 20)
	if !ok {
		return armfdir.Call{}, false
	}
	return armfdir.Call{LR: armfdir.Addr(lr), FP: fp}, true
}
