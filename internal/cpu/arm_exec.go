package cpu

import (
	"GoBA/util/convert"
	"GoBA/util/dbg"
)

// executeARM dispatches a decoded ARM instruction (spec component C7).
// The caller has already checked the condition field; this only runs for
// instructions that passed.
func (c *CPU) executeARM(instr uint32) {
	switch ins := DecodeARM(instr).(type) {
	case ARMDataProcessingInstruction:
		c.execDataProcessing(ins)
	case ARMPSRTransferInstruction:
		c.execPSRTransfer(ins)
	case ARMMultiplyInstruction:
		c.execMultiply(ins)
	case ARMMultiplyLongInstruction:
		c.execMultiplyLong(ins)
	case ARMSwapInstruction:
		c.execSwap(ins)
	case ARMBranchExchangeInstruction:
		c.execBX(ins)
	case ARMHalfwordTransferInstruction:
		c.execHalfwordTransfer(ins)
	case ARMLoadStoreInstruction:
		c.execLoadStore(ins)
	case ARMBlockDataTransferInstruction:
		c.execBlockTransfer(ins)
	case ARMBranchInstruction:
		c.execBranch(ins)
	case ARMSWIInstruction:
		c.execSWI(ins)
	case ARMUndefinedInstruction:
		dbg.Printf("cpu: undefined ARM opcode %08X at PC-8=%08X\n", ins.Raw, c.registers.GetPC()-8)
		c.enterException(UNDMode, vectorUND)
	}
}

// operand2 resolves a data-processing instruction's second operand and
// its shifter carry-out (spec §4.7).
func (c *CPU) operand2(ins ARMDataProcessingInstruction) (uint32, bool) {
	carryIn := c.registers.GetFlagC()
	if ins.I {
		return rotateImmediate(uint32(ins.Nn), ins.Is, carryIn)
	}
	value := c.registers.GetReg(ins.Rm)
	var amount uint8
	byReg := ins.R
	if ins.R {
		amount = uint8(c.registers.GetReg(ins.Rs))
		// A register-specified R15 used as the shifted value reads PC+12
		// (one extra word beyond the normal PC+8), since by the time the
		// barrel shifter consumes it the pipeline has issued one more
		// fetch for the Rs lookup; GBA software rarely depends on this,
		// it is tracked here for completeness.
		if ins.Rm == 15 {
			value += 4
		}
	} else {
		amount = ins.Is
	}
	return shift(ins.ShiftType, value, amount, carryIn, byReg)
}

func (c *CPU) execDataProcessing(ins ARMDataProcessingInstruction) {
	op2, shifterCarry := c.operand2(ins)
	rn := c.registers.GetReg(ins.Rn)
	carryIn := c.registers.GetFlagC()

	var result uint32
	var writesResult = true
	var arithmetic = false

	switch ins.Opcode {
	case AND:
		result = rn & op2
	case EOR:
		result = rn ^ op2
	case SUB:
		result = rn - op2
		arithmetic = true
	case RSB:
		result = op2 - rn
		arithmetic = true
	case ADD:
		result = rn + op2
		arithmetic = true
	case ADC:
		result = rn + op2 + b2u32(carryIn)
		arithmetic = true
	case SBC:
		result = rn - op2 - (1 - b2u32(carryIn))
		arithmetic = true
	case RSC:
		result = op2 - rn - (1 - b2u32(carryIn))
		arithmetic = true
	case TST:
		result = rn & op2
		writesResult = false
	case TEQ:
		result = rn ^ op2
		writesResult = false
	case CMP:
		result = rn - op2
		arithmetic = true
		writesResult = false
	case CMN:
		result = rn + op2
		arithmetic = true
		writesResult = false
	case ORR:
		result = rn | op2
	case MOV:
		result = op2
	case BIC:
		result = rn &^ op2
	case MVN:
		result = ^op2
	}

	if writesResult {
		if ins.Rd == 15 {
			c.writePC(result, c.registers.IsThumb())
			if ins.S {
				// S=1 with Rd=r15 restores CPSR from SPSR (exception
				// return), per spec §4.7.
				c.registers.SetCPSR(c.registers.GetSPSR())
			}
			return
		}
		c.registers.SetReg(ins.Rd, result)
	}

	if ins.S {
		c.registers.SetFlagN(result&0x80000000 != 0)
		c.registers.SetFlagZ(result == 0)
		if arithmetic {
			c.registers.SetFlagC(arithmeticCarry(ins.Opcode, rn, op2, carryIn))
			c.registers.SetFlagV(arithmeticOverflow(ins.Opcode, rn, op2, result))
		} else {
			c.registers.SetFlagC(shifterCarry)
		}
	}
}

func b2u32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// arithmeticCarry computes the carry-out of an ADD/SUB-family op using
// 64-bit widening, covering ADC/SBC/RSC's dependency on the incoming
// carry (a bug in naive hardcoded-carry implementations, avoided here).
func arithmeticCarry(op ARMDataProcessingOperation, a, b uint32, carryIn bool) bool {
	switch op {
	case ADD, CMN:
		return uint64(a)+uint64(b) > 0xFFFFFFFF
	case ADC:
		return uint64(a)+uint64(b)+uint64(b2u32(carryIn)) > 0xFFFFFFFF
	case SUB, CMP:
		return a >= b
	case RSB:
		return b >= a
	case SBC:
		return uint64(a) >= uint64(b)+uint64(1-b2u32(carryIn))
	case RSC:
		return uint64(b) >= uint64(a)+uint64(1-b2u32(carryIn))
	default:
		return false
	}
}

func arithmeticOverflow(op ARMDataProcessingOperation, a, b, result uint32) bool {
	switch op {
	case ADD, ADC, CMN:
		return (a^result)&(b^result)&0x80000000 != 0
	case SUB, SBC, CMP:
		return (a^b)&(a^result)&0x80000000 != 0
	case RSB, RSC:
		return (b^a)&(b^result)&0x80000000 != 0
	default:
		return false
	}
}

func (c *CPU) execPSRTransfer(ins ARMPSRTransferInstruction) {
	if !ins.IsMSR {
		var v uint32
		if ins.ToCPSR {
			v = c.registers.GetCPSR()
		} else {
			v = c.registers.GetSPSR()
		}
		c.registers.SetReg(ins.Rd, v)
		return
	}

	var operand uint32
	if ins.I {
		operand, _ = rotateImmediate(uint32(ins.Nn), ins.RotImm, c.registers.GetFlagC())
	} else {
		operand = c.registers.GetReg(ins.Rm)
	}

	var mask uint32
	if ins.FieldsC {
		mask |= 0x000000FF
	}
	if ins.FieldsX {
		mask |= 0x0000FF00
	}
	if ins.FieldsS {
		mask |= 0x00FF0000
	}
	if ins.FieldsF {
		mask |= 0xFF000000
	}

	if ins.ToCPSR {
		cur := c.registers.GetCPSR()
		next := (cur &^ mask) | (operand & mask)
		// The control field (mode bits) is only writable in a privileged
		// mode; USR mode MSR to CPSR's control field is unpredictable on
		// hardware and left as a software responsibility here.
		c.registers.SetCPSR(next)
	} else {
		cur := c.registers.GetSPSR()
		c.registers.SetSPSR((cur &^ mask) | (operand & mask))
	}
}

func (c *CPU) execMultiply(ins ARMMultiplyInstruction) {
	result := c.registers.GetReg(ins.Rm) * c.registers.GetReg(ins.Rs)
	if ins.A {
		result += c.registers.GetReg(ins.Rn)
	}
	c.registers.SetReg(ins.Rd, result)
	if ins.S {
		c.registers.SetFlagN(result&0x80000000 != 0)
		c.registers.SetFlagZ(result == 0)
	}
}

func (c *CPU) execMultiplyLong(ins ARMMultiplyLongInstruction) {
	rm := uint64(c.registers.GetReg(ins.Rm))
	rs := uint64(c.registers.GetReg(ins.Rs))
	var result uint64
	if ins.Signed {
		result = uint64(int64(int32(rm)) * int64(int32(rs)))
	} else {
		result = rm * rs
	}
	if ins.A {
		acc := uint64(c.registers.GetReg(ins.RdHi))<<32 | uint64(c.registers.GetReg(ins.RdLo))
		result += acc
	}
	c.registers.SetReg(ins.RdLo, uint32(result))
	c.registers.SetReg(ins.RdHi, uint32(result>>32))
	if ins.S {
		c.registers.SetFlagN(result&0x8000000000000000 != 0)
		c.registers.SetFlagZ(result == 0)
	}
}

func (c *CPU) execSwap(ins ARMSwapInstruction) {
	addr := c.registers.GetReg(ins.Rn)
	if ins.B {
		old := c.bus.ReadByte(addr)
		c.bus.WriteByte(addr, uint8(c.registers.GetReg(ins.Rm)))
		c.registers.SetReg(ins.Rd, uint32(old))
	} else {
		old := rotr(c.bus.ReadWord(addr), (addr&3)*8)
		c.bus.WriteWord(addr, c.registers.GetReg(ins.Rm))
		c.registers.SetReg(ins.Rd, old)
	}
}

func (c *CPU) execBX(ins ARMBranchExchangeInstruction) {
	target := c.registers.GetReg(ins.Rm)
	thumb := target&1 != 0
	c.registers.SetThumbState(thumb)
	c.writePC(target&^1, thumb)
}

func (c *CPU) execBranch(ins ARMBranchInstruction) {
	pc := c.registers.GetPC()
	if ins.Link {
		c.registers.SetReg(14, pc-4)
	}
	c.writePC(pc+ins.TargetAddr, false)
}

func (c *CPU) execHalfwordTransfer(ins ARMHalfwordTransferInstruction) {
	base := c.registers.GetReg(ins.Rn)
	var offset uint32
	if ins.ImmOff {
		offset = uint32(ins.Imm)
	} else {
		offset = c.registers.GetReg(ins.Rm)
	}
	addr := base
	if ins.P {
		if ins.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if ins.L {
		var value uint32
		switch {
		case !ins.S && ins.H: // LDRH
			value = uint32(rotr16(c.bus.ReadHalf(addr&^1), uint8((addr&1)*8)))
		case ins.S && !ins.H: // LDRSB
			value = uint32(int32(int8(c.bus.ReadByte(addr))))
		case ins.S && ins.H: // LDRSH; odd address behaves as LDRSB (spec §4.2)
			if addr&1 != 0 {
				value = uint32(int32(int8(c.bus.ReadByte(addr))))
			} else {
				value = uint32(int32(int16(c.bus.ReadHalf(addr))))
			}
		default:
			value = uint32(c.bus.ReadHalf(addr &^ 1))
		}
		if ins.Rd == 15 {
			c.writePC(value, c.registers.IsThumb())
		} else {
			c.registers.SetReg(ins.Rd, value)
		}
	} else {
		c.bus.WriteHalf(addr&^1, uint16(c.registers.GetReg(ins.Rd)))
	}

	if !ins.P {
		if ins.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.registers.SetReg(ins.Rn, addr)
	} else if ins.W {
		c.registers.SetReg(ins.Rn, addr)
	}
}

func (c *CPU) execLoadStore(ins ARMLoadStoreInstruction) {
	base := c.registers.GetReg(ins.Rn)
	var offset uint32
	if ins.I {
		offset, _ = shift(ins.ShiftType, c.registers.GetReg(ins.Rm), ins.ShiftAmt, c.registers.GetFlagC(), false)
	} else {
		offset = ins.Offset
	}

	addr := base
	if ins.P {
		if ins.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if ins.L {
		var value uint32
		if ins.B {
			value = uint32(c.bus.ReadByte(addr))
		} else {
			value = rotr(c.bus.ReadWord(addr), (addr&3)*8)
		}
		if ins.Rd == 15 {
			c.writePC(value&^1, c.registers.IsThumb())
		} else {
			c.registers.SetReg(ins.Rd, value)
		}
	} else {
		value := c.registers.GetReg(ins.Rd)
		if ins.Rd == 15 {
			// STR with Rd=15 stores PC+12 (spec §4.7: the pipeline has
			// issued one further fetch by the time the store's value is
			// latched).
			value += 4
		}
		if ins.B {
			c.bus.WriteByte(addr, uint8(value))
		} else {
			c.bus.WriteWord(addr&^3, value)
		}
	}

	if !ins.P {
		if ins.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.registers.SetReg(ins.Rn, addr)
	} else if ins.W {
		c.registers.SetReg(ins.Rn, addr)
	}
}

func (c *CPU) execBlockTransfer(ins ARMBlockDataTransferInstruction) {
	base := c.registers.GetReg(ins.Rn)
	count := 0
	for i := 0; i < 16; i++ {
		if ins.RegisterList&(1<<uint(i)) != 0 {
			count++
		}
	}
	if count == 0 {
		// Empty register list is unpredictable on hardware; nothing to
		// transfer, but the base still advances by 0x40 per the common
		// documented behavior.
		count = 16
	}

	addr := base
	if !ins.U {
		addr = base - uint32(count)*4
	}

	// For U=0 (decrement) the transfer still proceeds low-to-high memory
	// order once addr is pre-computed as base-count*4; P then just picks
	// whether the first access is at addr or addr+4.
	order := make([]uint8, 0, 16)
	for i := 0; i < 16; i++ {
		if ins.RegisterList&(1<<uint(i)) != 0 {
			order = append(order, uint8(i))
		}
	}

	useUserBank := ins.S && !(ins.L && ins.RegisterList&0x8000 != 0)

	cur := addr
	for _, reg := range order {
		a := cur
		if ins.P == ins.U {
			a = cur + 4
		}
		if ins.L {
			v := c.bus.ReadWord(a &^ 3)
			if reg == 15 {
				c.writePC(v, false)
				if ins.S {
					c.registers.SetCPSR(c.registers.GetSPSR())
				}
			} else if useUserBank {
				c.registers.SetUserReg(reg, v)
			} else {
				c.registers.SetReg(reg, v)
			}
		} else {
			var v uint32
			if useUserBank {
				v = c.registers.GetUserReg(reg)
			} else {
				v = c.registers.GetReg(reg)
			}
			if reg == 15 {
				v += 4 // STM with PC in the list stores PC+12 overall
			}
			c.bus.WriteWord(a&^3, v)
		}
		cur += 4
	}

	if ins.W {
		if ins.U {
			c.registers.SetReg(ins.Rn, base+uint32(count)*4)
		} else {
			c.registers.SetReg(ins.Rn, base-uint32(count)*4)
		}
	}
}

func (c *CPU) execSWI(ins ARMSWIInstruction) {
	c.enterException(SVCMode, vectorSWI)
}

func rotr(v uint32, amount uint32) uint32 {
	amount &= 31
	if amount == 0 {
		return v
	}
	return (v >> amount) | (v << (32 - amount))
}

func rotr16(v uint16, amount uint8) uint16 {
	amount &= 15
	if amount == 0 {
		return v
	}
	return (v >> amount) | (v << (16 - amount))
}
