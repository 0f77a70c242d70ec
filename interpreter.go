package armfdir

// opcodeCursor walks the unwind-instruction byte stream of a compact-model
// entry. The stream starts at a byte offset inside entryPtr's first word
// (innerOffset: 1 for SU16, past the personality byte; 2 for LU16/LU32, past
// the personality and length bytes) and continues, most-significant byte
// first within each subsequent word, into words read from entryPtr.
type opcodeCursor struct {
	mem       Memory
	entryPtr  Addr
	firstWord uint32
	pos       int
}

func newOpcodeCursor(mem Memory, entryPtr Addr, firstWord uint32, innerOffset int) opcodeCursor {
	return opcodeCursor{mem: mem, entryPtr: entryPtr, firstWord: firstWord, pos: innerOffset}
}

func (c *opcodeCursor) next() (byte, bool) {
	wordIdx := c.pos / 4
	byteInWord := c.pos % 4
	c.pos++

	word := c.firstWord
	if wordIdx != 0 {
		w, ok := c.mem.ReadWord(c.entryPtr + Addr(4*wordIdx))
		if !ok {
			return 0, false
		}
		word = w
	}
	shift := uint(24 - byteInWord*8)
	return byte(word >> shift), true
}

// interpretUnwindOpcodes runs count unwind-bytecode opcodes, starting at
// innerOffset bytes into firstWord, against the working stack pointer fp.
// It implements the vsp-raising/lowering opcodes (0x00-0x7f) and the large
// vsp-raise (0xb2 uleb128) verbatim, including their literal, non-symmetric
// arithmetic; every other recognized opcode consumes its operand bytes with
// no effect on vsp. The finish opcode (0xb0) stops interpretation
// immediately: any bytes after it, padding or otherwise, are not applied.
// The refuse-to-unwind sequence (0x80 0x00), an opcode whose operand byte
// would lie past count, or a short read fails the decode; spare and
// reserved opcodes are consumed as single no-op bytes.
func interpretUnwindOpcodes(mem Memory, entryPtr Addr, firstWord uint32, count, innerOffset int, fp Addr) (Addr, bool) {
	cur := newOpcodeCursor(mem, entryPtr, firstWord, innerOffset)
	vsp := fp

	skip := func(n int) bool {
		for i := 0; i < n; i++ {
			if _, ok := cur.next(); !ok {
				return false
			}
		}
		return true
	}

	for i := 0; i < count; i++ {
		op, ok := cur.next()
		if !ok {
			return fp, false
		}

		switch {
		case op&0xc0 == 0x00: // 00xxxxxx: vsp += (xxxxxx<<2) + 4
			vsp += Addr((uint32(op&0x3f) << 2) + 4)

		case op&0xc0 == 0x40: // 01xxxxxx: vsp -= (xxxxxx<<2) - 4
			vsp -= Addr((uint32(op&0x3f) << 2) - 4)

		case op == 0x80: // 10000000 00000000: refuse to unwind
			if i+1 >= count {
				return fp, false
			}
			op2, ok := cur.next()
			if !ok {
				return fp, false
			}
			i++
			if op2 == 0x00 {
				return fp, false
			}
			// 10000000 iiiiiiii, i != 0: pop register mask, no effect here.

		case op&0xf0 == 0x80: // 1000iiii iiiiiiii: pop register mask
			if i+1 >= count || !skip(1) {
				return fp, false
			}
			i++

		case op&0xf0 == 0x90: // 1001nnnn: vsp = r[n] (includes reserved 0x9d, 0x9f)
			// no effect: the caller's fp is taken from the saved frame, not
			// from a named register.

		case op&0xf8 == 0xa0, op&0xf8 == 0xa8: // 10100nnn / 10101nnn: pop {r4-r4+n}[,r14]
			// no effect

		case op == 0xb0: // finish
			return vsp, true

		case op == 0xb1: // 10110001 0000iiii: pop under mask
			if i+1 >= count || !skip(1) {
				return fp, false
			}
			i++

		case op == 0xb2: // 10110010 uleb128: vsp += 0x204 + (uleb128 << 2)
			if i+1 >= count {
				return fp, false
			}
			operand, ok := cur.next()
			if !ok {
				return fp, false
			}
			i++
			vsp += Addr(0x204 + (uint32(operand) << 2))

		case op == 0xb3: // 10110011 sssscccc: pop VFP registers D[ssss]-D[ssss+cccc]
			if i+1 >= count || !skip(1) {
				return fp, false
			}
			i++

		case op == 0xb4: // 10110100: pop FPA registers, no effect here
			// no effect

		case op&0xf8 == 0xb8, op&0xf8 == 0xc8 && op != 0xc9: // 10111nnn / 11001nnn (0xc9 below): pop VFP/FPA ranges
			// no effect

		case op == 0xc6, op == 0xc7, op == 0xc9: // pop WMMX/iWMMXt registers
			if i+1 >= count || !skip(1) {
				return fp, false
			}
			i++

		case op&0xf8 == 0xc0: // 11000nnn: pop WMMX regs wR[10]-wR[10+nnn]
			// no effect

		default:
			// Spare/reserved range: recognized as a single no-op byte so the
			// stream stays in sync, per the unwind-opcode table.
		}
	}

	return vsp, true
}
