package armfdir

// exidxCantUnwind is the EXIDX_CANTUNWIND sentinel value for an exidx
// entry's second word.
const exidxCantUnwind = 0x1

// ExidxEntry is one 8-byte record of the .ARM.exidx table, in both its raw
// and decoded forms.
type ExidxEntry struct {
	Fn    uint32 // raw first word: prel31 offset to the covered function
	Entry uint32 // raw second word: either EXIDX_CANTUNWIND, an inlined
	// compact-model word (bit 31 set), or a prel31 pointer into .ARM.extab

	DecodedFn    Addr // absolute address of the covered function
	DecodedEntry Addr // absolute address of the .ARM.extab record, when Entry is a pointer
}

// CantUnwind reports whether this entry is the EXIDX_CANTUNWIND sentinel:
// the compiler could prove no unwind information is needed, or none is
// available, for the function it covers.
func (e ExidxEntry) CantUnwind() bool {
	return e.Entry == exidxCantUnwind
}

// Inline reports whether Entry holds an inlined compact-model word (bit 31
// set) rather than a prel31 pointer into .ARM.extab.
func (e ExidxEntry) Inline() bool {
	return e.Entry&0x80000000 != 0
}

// ReadExidxEntry reads and decodes the exidx record at the given entry
// index (not byte offset: every entry is 8 bytes).
func ReadExidxEntry(mem Memory, exidxBase Addr, index int) (ExidxEntry, bool) {
	entryAddr := exidxBase + Addr(index*8)

	fnWord, ok := mem.ReadWord(entryAddr)
	if !ok {
		return ExidxEntry{}, false
	}
	entryWord, ok := mem.ReadWord(entryAddr + 4)
	if !ok {
		return ExidxEntry{}, false
	}

	e := ExidxEntry{Fn: fnWord, Entry: entryWord}
	if fnWord&0x80000000 != 0 {
		// Bit 31 set marks a corrupt/reserved entry; sink it below every
		// real function address instead of decoding a bogus prel31 offset.
		e.DecodedFn = 0
	} else {
		e.DecodedFn = DecodePrel31(fnWord, entryAddr)
	}

	if entryWord&0x80000000 != 0 {
		e.DecodedEntry = Addr(entryWord)
	} else {
		e.DecodedEntry = DecodePrel31(entryWord, entryAddr+4)
	}

	return e, true
}

// Lookup finds the exidx entry in the table [exidxBase, exidxEnd) whose
// covered function is the closest one at or below ret: the record covering
// the instruction at ret. Entries are assumed sorted ascending by decoded
// function address, as the linker produces them. ok is false if ret is
// below the first entry's function address, or the table could not be
// read. When several entries share the same decoded function address, the
// one at the higher index is returned.
func Lookup(mem Memory, exidxBase, exidxEnd Addr, ret Addr) (entry ExidxEntry, index int, ok bool) {
	count := int(exidxEnd-exidxBase) / 8
	if count == 0 {
		return ExidxEntry{}, 0, false
	}

	lo, hi := 0, count-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		e, readOK := ReadExidxEntry(mem, exidxBase, mid)
		if !readOK {
			return ExidxEntry{}, 0, false
		}
		if e.DecodedFn <= ret {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	entry, ok = ReadExidxEntry(mem, exidxBase, lo)
	if !ok {
		return ExidxEntry{}, 0, false
	}
	if entry.DecodedFn > ret {
		return ExidxEntry{}, 0, false
	}
	return entry, lo, true
}
