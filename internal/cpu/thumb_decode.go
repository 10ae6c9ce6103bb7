package cpu

// DecodeThumb classifies a 16-bit THUMB opcode into one of the 19
// instruction-format structs declared in thumb_instructions.go (spec
// component C8). THUMB's formats are distinguished by a run of fixed
// high bits rather than ARM's uniform condition field, so this decoder
// walks the format table top-down, checking the narrowest/most specific
// masks before the broader ones they nest inside.
func DecodeThumb(op uint16) interface{} {
	switch {
	case op&0xE000 == 0x0000 && op&0x1800 != 0x1800:
		return decodeMoveShifted(op)
	case op&0xF800 == 0x1800:
		return decodeAddSub(op)
	case op&0xE000 == 0x2000:
		return decodeImmediate(op)
	case op&0xFC00 == 0x4000:
		return decodeALU(op)
	case op&0xFC00 == 0x4400:
		return decodeHiRegOp(op)
	case op&0xF800 == 0x4800:
		return ThumbPCRelativeLoad{Rd: uint8((op >> 8) & 0x7), Imm: uint16(op&0xFF) << 2}
	case op&0xF000 == 0x5000 && op&0x0200 == 0:
		return decodeLoadStoreReg(op)
	case op&0xF000 == 0x5000:
		return decodeLoadStoreSigned(op)
	case op&0xE000 == 0x6000:
		return decodeLoadStoreImm(op)
	case op&0xF000 == 0x8000:
		return ThumbLoadStoreHalf{
			L:   (op>>11)&1 != 0,
			Imm: uint16((op>>6)&0x1F) << 1,
			Rb:  uint8((op >> 3) & 0x7),
			Rd:  uint8(op & 0x7),
		}
	case op&0xF000 == 0x9000:
		return ThumbLoadStoreSP{
			L:   (op>>11)&1 != 0,
			Rd:  uint8((op >> 8) & 0x7),
			Imm: uint16(op&0xFF) << 2,
		}
	case op&0xF000 == 0xA000:
		return ThumbLoadAddress{
			SP:  (op>>11)&1 != 0,
			Rd:  uint8((op >> 8) & 0x7),
			Imm: uint16(op&0xFF) << 2,
		}
	case op&0xFF00 == 0xB000:
		return ThumbAddSP{
			Negative: (op>>7)&1 != 0,
			Imm:      uint16(op&0x7F) << 2,
		}
	case op&0xF600 == 0xB400:
		return ThumbPushPop{
			L:            (op>>11)&1 != 0,
			PCOrLR:       (op>>8)&1 != 0,
			RegisterList: uint8(op & 0xFF),
		}
	case op&0xF000 == 0xC000:
		return ThumbMultipleLoadStore{
			L:            (op>>11)&1 != 0,
			Rb:           uint8((op >> 8) & 0x7),
			RegisterList: uint8(op & 0xFF),
		}
	case op&0xFF00 == 0xDF00:
		return ThumbSWI{Comment: uint8(op & 0xFF)}
	case op&0xF000 == 0xD000:
		return ThumbConditionalBranch{
			Cond:   ARMCondition((op >> 8) & 0xF),
			Offset: signExtend(uint32(op&0xFF), 8) << 1,
		}
	case op&0xF800 == 0xE000:
		return ThumbBranch{Offset: signExtend(uint32(op&0x7FF), 11) << 1}
	case op&0xF000 == 0xF000:
		if (op>>11)&1 == 0 {
			return ThumbBranchLinkHigh{OffsetHigh: signExtend(uint32(op&0x7FF), 11) << 12}
		}
		return ThumbBranchLinkLow{OffsetLow: uint16(op & 0x7FF)}
	default:
		return ThumbUndefined{Raw: op}
	}
}

// signExtend sign-extends the low bits-wide field of v into a full int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func decodeMoveShifted(op uint16) ThumbMoveShifted {
	return ThumbMoveShifted{
		Op:  uint8((op >> 11) & 0x3),
		Imm: uint8((op >> 6) & 0x1F),
		Rs:  uint8((op >> 3) & 0x7),
		Rd:  uint8(op & 0x7),
	}
}

func decodeAddSub(op uint16) ThumbAddSub {
	return ThumbAddSub{
		Imm:   (op>>10)&1 != 0,
		Sub:   (op>>9)&1 != 0,
		RnOrN: uint8((op >> 6) & 0x7),
		Rs:    uint8((op >> 3) & 0x7),
		Rd:    uint8(op & 0x7),
	}
}

func decodeImmediate(op uint16) ThumbImmediate {
	return ThumbImmediate{
		Op:  uint8((op >> 11) & 0x3),
		Rd:  uint8((op >> 8) & 0x7),
		Imm: uint8(op & 0xFF),
	}
}

func decodeALU(op uint16) ThumbALU {
	return ThumbALU{
		Op: uint8((op >> 6) & 0xF),
		Rs: uint8((op >> 3) & 0x7),
		Rd: uint8(op & 0x7),
	}
}

// decodeHiRegOp covers format 5: ADD/CMP/MOV across the full register
// file (op 0-2) and BX (op 3). H1/H2 extend Rd/Rs into R8-R15.
func decodeHiRegOp(op uint16) interface{} {
	aluOp := uint8((op >> 8) & 0x3)
	h1 := (op>>7)&1 != 0
	h2 := (op>>6)&1 != 0
	rs := uint8((op >> 3) & 0x7)
	rd := uint8(op & 0x7)
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}
	if aluOp == 0x3 {
		return ThumbBranchExchange{Rs: rs}
	}
	return ThumbHiRegOp{Op: aluOp, Rs: rs, Rd: rd}
}

func decodeLoadStoreReg(op uint16) ThumbLoadStore {
	return ThumbLoadStore{
		L:  (op>>11)&1 != 0,
		B:  (op>>10)&1 != 0,
		Ro: uint8((op >> 6) & 0x7),
		Rb: uint8((op >> 3) & 0x7),
		Rd: uint8(op & 0x7),
	}
}

// decodeLoadStoreSigned covers format 8: STRH/LDRH/LDSB/LDSH, discriminated
// by the S (bit 11) and H (bit 10) fields rather than L/B.
func decodeLoadStoreSigned(op uint16) ThumbLoadStore {
	s := (op>>11)&1 != 0
	h := (op>>10)&1 != 0
	ins := ThumbLoadStore{
		SignExtend: s,
		H:          h || !s,
		Ro:         uint8((op >> 6) & 0x7),
		Rb:         uint8((op >> 3) & 0x7),
		Rd:         uint8(op & 0x7),
	}
	ins.L = s || h
	return ins
}

func decodeLoadStoreImm(op uint16) ThumbLoadStoreImm {
	b := (op>>12)&1 != 0
	imm5 := uint16((op >> 6) & 0x1F)
	if !b {
		imm5 <<= 2
	}
	return ThumbLoadStoreImm{
		L:   (op>>11)&1 != 0,
		B:   b,
		Imm: imm5,
		Rb:  uint8((op >> 3) & 0x7),
		Rd:  uint8(op & 0x7),
	}
}
