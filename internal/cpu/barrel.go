package cpu

// shift applies one of the four ARM barrel-shifter operations to value,
// returning the shifted result and the carry-out bit that feeds CPSR.C
// when the instruction has S=1 (spec §4.7). amount is already resolved
// (either the instruction's immediate shift amount or the low byte of a
// shift register).
func shift(kind ARMShiftType, value uint32, amount uint8, carryIn bool, byRegister bool) (uint32, bool) {
	switch kind {
	case LSL:
		return shiftLSL(value, amount, carryIn, byRegister)
	case LSR:
		return shiftLSR(value, amount, carryIn, byRegister)
	case ASR:
		return shiftASR(value, amount, carryIn, byRegister)
	case ROR:
		return shiftROR(value, amount, carryIn, byRegister)
	default:
		return value, carryIn
	}
}

func shiftLSL(value uint32, amount uint8, carryIn bool, byRegister bool) (uint32, bool) {
	if amount == 0 {
		return value, carryIn
	}
	if amount >= 32 {
		if amount == 32 {
			return 0, value&1 != 0
		}
		return 0, false
	}
	carryOut := (value>>(32-uint32(amount)))&1 != 0
	return value << amount, carryOut
}

func shiftLSR(value uint32, amount uint8, carryIn bool, byRegister bool) (uint32, bool) {
	// An immediate-form LSR #0 is encoded specially and means LSR #32.
	if amount == 0 {
		if byRegister {
			return value, carryIn
		}
		amount = 32
	}
	if amount >= 32 {
		if amount == 32 {
			return 0, value&0x80000000 != 0
		}
		return 0, false
	}
	carryOut := (value>>(uint32(amount)-1))&1 != 0
	return value >> amount, carryOut
}

func shiftASR(value uint32, amount uint8, carryIn bool, byRegister bool) (uint32, bool) {
	if amount == 0 {
		if byRegister {
			return value, carryIn
		}
		amount = 32
	}
	signed := int32(value)
	if amount >= 32 {
		if signed < 0 {
			return 0xFFFFFFFF, true
		}
		return 0, false
	}
	carryOut := (value>>(uint32(amount)-1))&1 != 0
	return uint32(signed >> amount), carryOut
}

func shiftROR(value uint32, amount uint8, carryIn bool, byRegister bool) (uint32, bool) {
	// An immediate-form ROR #0 is encoded specially and means RRX (rotate
	// right through carry by one bit).
	if amount == 0 && !byRegister {
		carryOut := value&1 != 0
		result := value >> 1
		if carryIn {
			result |= 0x80000000
		}
		return result, carryOut
	}
	if amount == 0 {
		return value, carryIn
	}
	amount &= 31
	if amount == 0 {
		return value, value&0x80000000 != 0
	}
	result := (value >> amount) | (value << (32 - amount))
	carryOut := (result>>31)&1 != 0
	return result, carryOut
}

// rotateImmediate applies the 8-bit-immediate / 4-bit-rotate-field
// encoding used by data-processing immediate operands: the 8-bit value
// is rotated right by 2x the rotate field (spec §4.7). A zero rotate
// field leaves carryIn unaffected, per the ARM ISA.
func rotateImmediate(imm8 uint32, rot4 uint8, carryIn bool) (uint32, bool) {
	if rot4 == 0 {
		return imm8, carryIn
	}
	amount := uint32(rot4) * 2
	result := (imm8 >> amount) | (imm8 << (32 - amount))
	carryOut := (result>>31)&1 != 0
	return result, carryOut
}
