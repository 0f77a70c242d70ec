package main

import (
	"testing"

	"github.com/flint-systems/armfdir"
)

func TestUnionMemoryReadsFirstMatch(t *testing.T) {
	a := armfdir.NewSliceMemory(0x08000000, []byte{1, 0, 0, 0})
	b := armfdir.NewSliceMemory(0x20000000, []byte{2, 0, 0, 0})
	u := unionMemory{a, b}

	word, ok := u.ReadWord(0x08000000)
	if !ok || word != 1 {
		t.Errorf("ReadWord(0x08000000) = %d, %v, want 1, true", word, ok)
	}
	word, ok = u.ReadWord(0x20000000)
	if !ok || word != 2 {
		t.Errorf("ReadWord(0x20000000) = %d, %v, want 2, true", word, ok)
	}
	if _, ok := u.ReadWord(0x40000000); ok {
		t.Error("expected no match for unmapped address")
	}
}
