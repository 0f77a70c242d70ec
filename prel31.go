package armfdir

// DecodePrel31 resolves a prel31 value: a 31-bit signed offset, relative to
// the address the word itself is stored at, packed into the low 31 bits of
// word (bit 30 is the sign bit; bit 31 is reserved by callers to distinguish
// a prel31 pointer from an inlined value and is ignored here). where is the
// address word was read from.
func DecodePrel31(word uint32, where Addr) Addr {
	offset := word & 0x7fffffff
	if offset&0x40000000 != 0 {
		offset |= ^uint32(0x7fffffff)
	}
	return Addr(offset + uint32(where))
}
