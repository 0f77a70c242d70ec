package armfdir

import (
	"encoding/binary"
	"testing"
)

// buildExidx encodes a table of (function address, raw entry word) pairs
// into an .ARM.exidx-shaped byte slice mapped starting at base, using
// prel31-encoded function-address words exactly as the linker would.
func buildExidx(base Addr, fns []Addr, entries []uint32) (Addr, []byte) {
	buf := make([]byte, len(fns)*8)
	for i, fn := range fns {
		entryAddr := base + Addr(i*8)
		offset := uint32(fn) - uint32(entryAddr)
		binary.LittleEndian.PutUint32(buf[i*8:], offset&0x7fffffff)
		binary.LittleEndian.PutUint32(buf[i*8+4:], entries[i])
	}
	return base, buf
}

func TestLookup(t *testing.T) {
	const base Addr = 0x08000000
	fns := []Addr{0x08000000, 0x08000100, 0x08000200, 0x08000300}
	entries := []uint32{1, 1, 1, 1} // CANTUNWIND, content irrelevant for Lookup itself

	_, data := buildExidx(base, fns, entries)
	mem := NewSliceMemory(base, data)
	end := base + Addr(len(data))

	tests := []struct {
		name      string
		ret       Addr
		wantIndex int
		wantOK    bool
	}{
		{"exact match on first entry", 0x08000000, 0, true},
		{"mid-function address", 0x08000050, 0, true},
		{"exact match on third entry", 0x08000200, 2, true},
		{"address in last function", 0x080003F0, 3, true},
		{"below first entry", 0x07FFFFFF, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, index, ok := Lookup(mem, base, end, tt.ret)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%#x) ok = %v, want %v", tt.ret, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if index != tt.wantIndex {
				t.Errorf("Lookup(%#x) index = %d, want %d", tt.ret, index, tt.wantIndex)
			}
			if entry.DecodedFn != fns[tt.wantIndex] {
				t.Errorf("Lookup(%#x) DecodedFn = %#x, want %#x", tt.ret, entry.DecodedFn, fns[tt.wantIndex])
			}
		})
	}
}

func TestLookupTieBreaksHigherIndex(t *testing.T) {
	const base Addr = 0x08000000
	// Two entries legitimately describe the same function address (e.g. an
	// alias); the later, higher-indexed one should win.
	fns := []Addr{0x08000000, 0x08000000, 0x08000200}
	entries := []uint32{1, 1, 1}

	_, data := buildExidx(base, fns, entries)
	mem := NewSliceMemory(base, data)
	end := base + Addr(len(data))

	_, index, ok := Lookup(mem, base, end, 0x08000000)
	if !ok {
		t.Fatal("Lookup failed")
	}
	if index != 1 {
		t.Errorf("Lookup tie-break index = %d, want 1 (higher index)", index)
	}
}

func TestLookupEmptyTable(t *testing.T) {
	mem := NewSliceMemory(0x08000000, nil)
	_, _, ok := Lookup(mem, 0x08000000, 0x08000000, 0x08000000)
	if ok {
		t.Error("Lookup on empty table should fail")
	}
}

func TestExidxEntryCantUnwind(t *testing.T) {
	e := ExidxEntry{Entry: exidxCantUnwind}
	if !e.CantUnwind() {
		t.Error("expected CantUnwind() true")
	}
	e.Entry = 0x80B0A802
	if e.CantUnwind() {
		t.Error("expected CantUnwind() false for inline entry")
	}
}

func TestReadExidxEntryReservedFnWordDecodesToZero(t *testing.T) {
	const entryAddr Addr = 0x08000000
	data := make([]byte, 8)
	// fnWord has bit 31 set: reserved/corrupt, must decode to DecodedFn==0
	// rather than a plausible-looking prel31 offset.
	binary.LittleEndian.PutUint32(data, 0x80000010)
	binary.LittleEndian.PutUint32(data[4:], exidxCantUnwind)

	mem := NewSliceMemory(entryAddr, data)
	e, ok := ReadExidxEntry(mem, entryAddr, 0)
	if !ok {
		t.Fatal("ReadExidxEntry failed")
	}
	if e.DecodedFn != 0 {
		t.Errorf("DecodedFn = %#x, want 0 for a reserved fn word", e.DecodedFn)
	}
}

func TestExidxEntryInline(t *testing.T) {
	e := ExidxEntry{Entry: 0x80B0A802}
	if !e.Inline() {
		t.Error("expected Inline() true when bit 31 is set")
	}
	e.Entry = 0x00001000
	if e.Inline() {
		t.Error("expected Inline() false when bit 31 is clear")
	}
}
