// Package scb models the Cortex-M System Control Block registers this
// facility depends on: enabling the three synchronous fault handlers and
// the divide-by-zero/unaligned-access traps that turn otherwise-silent
// corruption into a fault the unwinder gets to run against. Like package
// capture, this is a rendering of the contract the real initialization code
// (CMSIS register pokes, in the original firmware) must satisfy, built
// against an injectable register-access seam so it can be exercised without
// real hardware.
package scb

// Register addresses in the Cortex-M System Control Block.
const (
	AddrCFSR  = 0xE000ED28
	AddrHFSR  = 0xE000ED2C
	AddrSHCSR = 0xE000ED24
	AddrCCR   = 0xE000ED14
)

// SHCSR bit masks enabling the three configurable fault handlers.
const (
	MemFaultEna = 1 << 16
	BusFaultEna = 1 << 17
	UsgFaultEna = 1 << 18
)

// CCR bit masks for the two traps this facility turns on so arithmetic and
// alignment bugs fault instead of silently corrupting state.
const (
	DivByZeroTrap = 1 << 4
	UnalignTrap   = 1 << 3
)

// RegisterAccess abstracts the memory-mapped register reads/writes the
// configurator performs, so it can run against a fake in tests and the real
// address space on target.
type RegisterAccess interface {
	Load(addr uint32) uint32
	Store(addr uint32, value uint32)
}

// ControlBlock configures fault handling through a RegisterAccess.
type ControlBlock struct {
	Regs RegisterAccess
}

// EnableFaults turns on the MemManage, Bus and Usage fault handlers, so
// that faults the processor would otherwise escalate straight to HardFault
// are instead routed to a handler that can run the unwinder.
func (c ControlBlock) EnableFaults() {
	shcsr := c.Regs.Load(AddrSHCSR)
	shcsr |= MemFaultEna | BusFaultEna | UsgFaultEna
	c.Regs.Store(AddrSHCSR, shcsr)
}

// EnableTrapOnDivideByZero turns on the DIV_0_TRP bit, so integer division
// by zero raises a UsageFault instead of returning zero silently.
func (c ControlBlock) EnableTrapOnDivideByZero() {
	ccr := c.Regs.Load(AddrCCR)
	c.Regs.Store(AddrCCR, ccr|DivByZeroTrap)
}

// EnableTrapOnUnalignedAccess turns on the UNALIGN_TRP bit, so an
// unaligned load or store raises a UsageFault instead of being quietly
// handled by the bus.
func (c ControlBlock) EnableTrapOnUnalignedAccess() {
	ccr := c.Regs.Load(AddrCCR)
	c.Regs.Store(AddrCCR, ccr|UnalignTrap)
}
