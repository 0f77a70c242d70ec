package armfdir

// CallStackCapacity bounds the number of frames UnwindStack will record,
// matching the firmware's compile-time CALL_STACK_MAX_SIZE.
const CallStackCapacity = 20

// Sentinel values the walker recognizes as termination markers: an lr of
// 0xFFFFFFFF closes a cannot-unwind frame, and an fp of 0x07070707 is an
// implementation convention some compact-model tables use to mark the
// bottom of the chain explicitly.
const (
	sentinelLR Addr = 0xFFFFFFFF
	sentinelFP Addr = 0x07070707
)

// Call describes one resumed stack frame: LR is the return address into the
// caller, FP is the caller's stack pointer at the moment of the call.
type Call struct {
	LR Addr
	FP Addr
}

// CallStack is an ordered, capacity-bounded sequence of Call frames. The
// backing array carries one slot beyond CallStackCapacity: the walker
// always computes the frame that would follow the last finalized one before
// deciding whether it fits, and that scratch write needs somewhere safe to
// land. Frames and Length never expose that slot.
type CallStack struct {
	Calls  [CallStackCapacity + 1]Call
	Length int
}

// Frames returns the finalized frames, innermost (the interrupted frame)
// first; each later entry is the caller of the one before it.
func (cs *CallStack) Frames() []Call {
	return cs.Calls[:cs.Length]
}

// working returns the frame currently being unwound, not yet finalized.
func (cs *CallStack) working() *Call {
	return &cs.Calls[cs.Length]
}
