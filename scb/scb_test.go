package scb

import "testing"

type fakeRegs map[uint32]uint32

func (f fakeRegs) Load(addr uint32) uint32       { return f[addr] }
func (f fakeRegs) Store(addr uint32, value uint32) { f[addr] = value }

func TestEnableFaults(t *testing.T) {
	regs := fakeRegs{}
	cb := ControlBlock{Regs: regs}
	cb.EnableFaults()

	want := uint32(MemFaultEna | BusFaultEna | UsgFaultEna)
	if got := regs[AddrSHCSR]; got != want {
		t.Errorf("SHCSR = %#x, want %#x", got, want)
	}
}

func TestEnableFaultsPreservesExistingBits(t *testing.T) {
	regs := fakeRegs{AddrSHCSR: 0x1}
	cb := ControlBlock{Regs: regs}
	cb.EnableFaults()

	if got := regs[AddrSHCSR]; got&0x1 == 0 {
		t.Errorf("SHCSR = %#x, expected pre-existing bit 0 preserved", got)
	}
}

func TestEnableTraps(t *testing.T) {
	regs := fakeRegs{}
	cb := ControlBlock{Regs: regs}
	cb.EnableTrapOnDivideByZero()
	cb.EnableTrapOnUnalignedAccess()

	want := uint32(DivByZeroTrap | UnalignTrap)
	if got := regs[AddrCCR]; got != want {
		t.Errorf("CCR = %#x, want %#x", got, want)
	}
}
