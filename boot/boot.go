// Package boot describes the exception vector table layout this facility
// assumes is in place: which vector numbers are the synchronous fault
// handlers that feed the unwinder, modeled after the BSP startup file's
// isr_vectors table rather than reproduced as linkable assembly.
package boot

// Exception numbers for the Cortex-M handlers this facility cares about.
// SVCall, PendSV and SysTick are part of every vector table but play
// no role in fault capture, so they aren't named here.
const (
	ExceptionReset      = 1
	ExceptionNMI        = 2
	ExceptionHardFault   = 3
	ExceptionMemManage  = 4
	ExceptionBusFault   = 5
	ExceptionUsageFault = 6
)

// Handler names the function expected at a given vector table slot.
type Handler struct {
	Exception int
	Name      string
}

// FaultHandlers lists the vector table entries that must route to this
// facility's fault entry stub for DebugInfo capture to happen at all.
var FaultHandlers = []Handler{
	{ExceptionHardFault, "HardFault_Handler"},
	{ExceptionMemManage, "MemManage_Handler"},
	{ExceptionBusFault, "BusFault_Handler"},
	{ExceptionUsageFault, "UsageFault_Handler"},
}

// VectorTable is a minimal, host-checkable rendering of the isr_vectors
// array the real startup file places in .isr_vector: a mapping from
// exception number to the handler name linked at that slot. Tooling can use
// it to confirm a build actually wired the fault handlers it needs before
// trusting any DebugInfo it produces.
type VectorTable map[int]string

// Validate reports the fault handlers FaultHandlers names that this table
// either omits or points somewhere unexpected.
func (vt VectorTable) Validate() []Handler {
	var missing []Handler
	for _, h := range FaultHandlers {
		if vt[h.Exception] != h.Name {
			missing = append(missing, h)
		}
	}
	return missing
}
