package armfdir

// UnwindStack walks the suspended call chain starting at seed, consulting
// the .ARM.exidx table at [exidxBase, exidxEnd) and the image bytes exposed
// through mem. It performs no allocation and never mutates mem; CallStack is
// capacity-bounded at compile time (CallStackCapacity).
//
// seed is the frame the fault itself interrupted: its lr and fp come from
// whatever captured the register snapshot (see the capture package), not
// from this package.
func UnwindStack(mem Memory, exidxBase, exidxEnd Addr, seed Call) CallStack {
	var cs CallStack
	cs.Calls[0] = seed

	for cs.Length < CallStackCapacity &&
		cs.Calls[cs.Length].LR != sentinelLR &&
		cs.Calls[cs.Length].FP != sentinelFP {
		unwindNext(mem, exidxBase, exidxEnd, &cs)
	}

	return cs
}

// unwindNext resolves the working frame of cs to an exidx entry, finalizes
// it (recording the function address the entry actually covers rather than
// the raw return address), and computes the next working frame by running
// that entry's compact-model unwind instructions. A lookup miss or a
// CANTUNWIND entry both terminate the walk the same way: by writing the
// sentinel pair into the new working frame.
func unwindNext(mem Memory, exidxBase, exidxEnd Addr, cs *CallStack) {
	fp := cs.Calls[cs.Length].FP
	ret := cs.Calls[cs.Length].LR

	entry, index, ok := Lookup(mem, exidxBase, exidxEnd, ret)
	if ok {
		cs.Calls[cs.Length].LR = entry.DecodedFn
	}
	cs.Length++
	next := cs.working()

	if !ok || entry.CantUnwind() {
		*next = Call{LR: sentinelLR, FP: sentinelFP}
		return
	}

	if entry.Inline() {
		// The opcode stream's first word is the exidx entry word itself, so
		// any additional instruction words it needs are read starting right
		// after it in the exidx table, not from .ARM.extab.
		entryWordAddr := exidxBase + Addr(index*8) + 4
		if newFP, decoded := DecodeFrame(mem, entry.Entry, entryWordAddr, fp); decoded {
			*next = readCallerFrame(mem, newFP)
		} else {
			*next = Call{LR: sentinelLR, FP: sentinelFP}
		}
		return
	}

	firstWord, readOK := mem.ReadWord(entry.DecodedEntry)
	if !readOK || firstWord&0x80000000 == 0 {
		*next = Call{LR: sentinelLR, FP: sentinelFP}
		return
	}
	if newFP, decoded := DecodeFrame(mem, firstWord, entry.DecodedEntry, fp); decoded {
		*next = readCallerFrame(mem, newFP)
	} else {
		*next = Call{LR: sentinelLR, FP: sentinelFP}
	}
}

// readCallerFrame reads the saved caller lr/fp pushed at newFP by the
// calling convention the unwind table was built for: the caller's fp is
// stored at newFP, and its lr immediately after it, with the Thumb bit
// cleared so it is a valid code address for the next lookup.
func readCallerFrame(mem Memory, newFP Addr) Call {
	callerFP, okFP := mem.ReadWord(newFP)
	callerLR, okLR := mem.ReadWord(newFP + 4)
	if !okFP || !okLR {
		return Call{LR: sentinelLR, FP: sentinelFP}
	}
	return Call{LR: Addr(callerLR - 1), FP: Addr(callerFP)}
}
