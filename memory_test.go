package armfdir

import "testing"

func TestSliceMemoryReadWord(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80}
	mem := NewSliceMemory(0x08000000, data)

	word, ok := mem.ReadWord(0x08000000)
	if !ok {
		t.Fatal("ReadWord failed")
	}
	if want := uint32(0x40302010); word != want {
		t.Errorf("ReadWord = %#x, want %#x", word, want)
	}

	if _, ok := mem.ReadWord(0x08000004); !ok {
		t.Error("ReadWord at second word failed")
	}

	if _, ok := mem.ReadWord(0x08000005); ok {
		t.Error("expected failure past end of backing slice")
	}

	if _, ok := mem.ReadWord(0x07FFFFFF); ok {
		t.Error("expected failure below base")
	}
}
