package armfdir

// SavedRegisters is the eight-word block the processor pushes onto the
// active stack on exception entry, laid out exactly as the hardware writes
// it (r0-r3, r12, lr, the return pc, and xpsr).
type SavedRegisters struct {
	R0, R1, R2, R3 uint32
	R12            uint32
	LR             uint32
	PC             uint32
	XPSR           uint32
}

// FaultClass identifies which synchronous fault handler captured a
// DebugInfo.
type FaultClass int

const (
	FaultHard FaultClass = iota
	FaultMemManage
	FaultBus
	FaultUsage
)

func (f FaultClass) String() string {
	switch f {
	case FaultHard:
		return "HardFault"
	case FaultMemManage:
		return "MemManageFault"
	case FaultBus:
		return "BusFault"
	case FaultUsage:
		return "UsageFault"
	default:
		return "UnknownFault"
	}
}

// DebugInfo aggregates everything captured at fault entry: the register
// snapshot, the two status registers that classify the fault, and the call
// chain reconstructed from them.
type DebugInfo struct {
	Registers *SavedRegisters
	Cfsr      uint32
	Hfsr      uint32
	Class     FaultClass
	CallStack CallStack
}
