package cpu

import "GoBA/util/dbg"

// executeThumb dispatches a decoded THUMB instruction (spec component
// C8). Unlike ARM, THUMB carries no per-instruction condition field
// (other than the conditional branch format itself), so every case here
// always executes once reached.
func (c *CPU) executeThumb(op uint16) {
	switch ins := DecodeThumb(op).(type) {
	case ThumbMoveShifted:
		c.execThumbMoveShifted(ins)
	case ThumbAddSub:
		c.execThumbAddSub(ins)
	case ThumbImmediate:
		c.execThumbImmediate(ins)
	case ThumbALU:
		c.execThumbALU(ins)
	case ThumbHiRegOp:
		c.execThumbHiRegOp(ins)
	case ThumbBranchExchange:
		c.execThumbBX(ins)
	case ThumbPCRelativeLoad:
		c.execThumbPCRelativeLoad(ins)
	case ThumbLoadStore:
		c.execThumbLoadStore(ins)
	case ThumbLoadStoreImm:
		c.execThumbLoadStoreImm(ins)
	case ThumbLoadStoreHalf:
		c.execThumbLoadStoreHalf(ins)
	case ThumbLoadStoreSP:
		c.execThumbLoadStoreSP(ins)
	case ThumbLoadAddress:
		c.execThumbLoadAddress(ins)
	case ThumbAddSP:
		c.execThumbAddSP(ins)
	case ThumbPushPop:
		c.execThumbPushPop(ins)
	case ThumbMultipleLoadStore:
		c.execThumbMultipleLoadStore(ins)
	case ThumbConditionalBranch:
		c.execThumbConditionalBranch(ins)
	case ThumbSWI:
		c.execSWI(ARMSWIInstruction{Immediate: uint32(ins.Comment)})
	case ThumbBranch:
		c.writePC(uint32(int32(c.registers.GetPC())+ins.Offset), true)
	case ThumbBranchLinkHigh:
		c.registers.SetReg(14, uint32(int32(c.registers.GetPC())+ins.OffsetHigh))
	case ThumbBranchLinkLow:
		c.execThumbBranchLinkLow(ins)
	case ThumbUndefined:
		dbg.Printf("cpu: undefined THUMB opcode %04X at PC-4=%08X\n", ins.Raw, c.registers.GetPC()-4)
		c.enterException(UNDMode, vectorUND)
	}
}

// execThumbMoveShifted implements format 1 (LSL/LSR/ASR Rd, Rs, #imm5),
// which always sets flags like a data-processing MOVS would.
func (c *CPU) execThumbMoveShifted(ins ThumbMoveShifted) {
	value := c.registers.GetReg(ins.Rs)
	carryIn := c.registers.GetFlagC()
	var result uint32
	var carryOut bool
	switch ins.Op {
	case 0:
		result, carryOut = shiftLSL(value, ins.Imm, carryIn, false)
	case 1:
		result, carryOut = shiftLSR(value, ins.Imm, carryIn, false)
	default:
		result, carryOut = shiftASR(value, ins.Imm, carryIn, false)
	}
	c.registers.SetReg(ins.Rd, result)
	c.setLogicFlags(result, carryOut)
}

// execThumbAddSub implements format 2 (ADD/SUB Rd, Rs, Rn|#imm3), an
// always-flag-setting three-operand form.
func (c *CPU) execThumbAddSub(ins ThumbAddSub) {
	a := c.registers.GetReg(ins.Rs)
	var b uint32
	if ins.Imm {
		b = uint32(ins.RnOrN)
	} else {
		b = c.registers.GetReg(ins.RnOrN)
	}
	var result uint32
	var op ARMDataProcessingOperation
	if ins.Sub {
		result = a - b
		op = SUB
	} else {
		result = a + b
		op = ADD
	}
	c.registers.SetReg(ins.Rd, result)
	c.setArithFlags(op, a, b, result)
}

// execThumbImmediate implements format 3 (MOV/CMP/ADD/SUB Rd, #imm8).
func (c *CPU) execThumbImmediate(ins ThumbImmediate) {
	rd := c.registers.GetReg(ins.Rd)
	imm := uint32(ins.Imm)
	switch ins.Op {
	case 0: // MOV
		c.registers.SetReg(ins.Rd, imm)
		c.setLogicFlags(imm, c.registers.GetFlagC())
	case 1: // CMP
		result := rd - imm
		c.setArithFlags(CMP, rd, imm, result)
	case 2: // ADD
		result := rd + imm
		c.registers.SetReg(ins.Rd, result)
		c.setArithFlags(ADD, rd, imm, result)
	case 3: // SUB
		result := rd - imm
		c.registers.SetReg(ins.Rd, result)
		c.setArithFlags(SUB, rd, imm, result)
	}
}

// execThumbALU implements format 4's 16 two-operand ALU operations,
// reusing the ARM barrel shifter and carry/overflow helpers where an
// operation is shared with the ARM data-processing set.
func (c *CPU) execThumbALU(ins ThumbALU) {
	rd := c.registers.GetReg(ins.Rd)
	rs := c.registers.GetReg(ins.Rs)
	carryIn := c.registers.GetFlagC()

	switch ins.Op {
	case 0x0: // AND
		result := rd & rs
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryIn)
	case 0x1: // EOR
		result := rd ^ rs
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryIn)
	case 0x2: // LSL
		result, carryOut := shiftLSL(rd, uint8(rs), carryIn, true)
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryOut)
	case 0x3: // LSR
		result, carryOut := shiftLSR(rd, uint8(rs), carryIn, true)
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryOut)
	case 0x4: // ASR
		result, carryOut := shiftASR(rd, uint8(rs), carryIn, true)
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryOut)
	case 0x5: // ADC
		result := rd + rs + b2u32(carryIn)
		c.registers.SetReg(ins.Rd, result)
		c.setArithFlags(ADC, rd, rs, result)
	case 0x6: // SBC
		result := rd - rs - (1 - b2u32(carryIn))
		c.registers.SetReg(ins.Rd, result)
		c.setArithFlags(SBC, rd, rs, result)
	case 0x7: // ROR
		result, carryOut := shiftROR(rd, uint8(rs), carryIn, true)
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryOut)
	case 0x8: // TST
		c.setLogicFlags(rd&rs, carryIn)
	case 0x9: // NEG
		result := uint32(0) - rs
		c.registers.SetReg(ins.Rd, result)
		c.setArithFlags(RSB, rs, 0, result)
	case 0xA: // CMP
		c.setArithFlags(CMP, rd, rs, rd-rs)
	case 0xB: // CMN
		c.setArithFlags(CMN, rd, rs, rd+rs)
	case 0xC: // ORR
		result := rd | rs
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryIn)
	case 0xD: // MUL
		result := rd * rs
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryIn)
	case 0xE: // BIC
		result := rd &^ rs
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryIn)
	case 0xF: // MVN
		result := ^rs
		c.registers.SetReg(ins.Rd, result)
		c.setLogicFlags(result, carryIn)
	}
}

// execThumbHiRegOp implements format 5's ADD/CMP/MOV across the full
// register file. Rd/Rs have already been widened to R0-R15 by the
// decoder; writing R15 through ADD/MOV branches (spec §4.6 set_pc, no
// link saved, always lands back in THUMB state).
func (c *CPU) execThumbHiRegOp(ins ThumbHiRegOp) {
	rs := c.registers.GetReg(ins.Rs)
	rd := c.registers.GetReg(ins.Rd)
	switch ins.Op {
	case 0: // ADD
		result := rd + rs
		if ins.Rd == 15 {
			c.writePC(result&^1, true)
			return
		}
		c.registers.SetReg(ins.Rd, result)
	case 1: // CMP
		c.setArithFlags(CMP, rd, rs, rd-rs)
	case 2: // MOV
		if ins.Rd == 15 {
			c.writePC(rs&^1, true)
			return
		}
		c.registers.SetReg(ins.Rd, rs)
	}
}

func (c *CPU) execThumbBX(ins ThumbBranchExchange) {
	target := c.registers.GetReg(ins.Rs)
	thumb := target&1 != 0
	c.registers.SetThumbState(thumb)
	c.writePC(target&^1, thumb)
}

func (c *CPU) execThumbPCRelativeLoad(ins ThumbPCRelativeLoad) {
	base := (c.registers.GetPC() &^ 3) + uint32(ins.Imm)
	c.registers.SetReg(ins.Rd, c.bus.ReadWord(base))
}

// execThumbLoadStore implements formats 7 and 8: register-offset
// load/store, including the sign-extended byte/halfword sub-forms.
func (c *CPU) execThumbLoadStore(ins ThumbLoadStore) {
	addr := c.registers.GetReg(ins.Rb) + c.registers.GetReg(ins.Ro)
	switch {
	case !ins.L && ins.B: // STRB (format 7)
		c.bus.WriteByte(addr, uint8(c.registers.GetReg(ins.Rd)))
	case !ins.L && ins.H: // STRH (format 8, S=0,H=0)
		c.bus.WriteHalf(addr&^1, uint16(c.registers.GetReg(ins.Rd)))
	case !ins.L: // STR (format 7)
		c.bus.WriteWord(addr&^3, c.registers.GetReg(ins.Rd))
	case ins.B: // LDRB (format 7)
		c.registers.SetReg(ins.Rd, uint32(c.bus.ReadByte(addr)))
	case ins.SignExtend && !ins.H: // LDSB
		c.registers.SetReg(ins.Rd, uint32(int32(int8(c.bus.ReadByte(addr)))))
	case ins.SignExtend && ins.H: // LDSH; odd address behaves as LDSB
		if addr&1 != 0 {
			c.registers.SetReg(ins.Rd, uint32(int32(int8(c.bus.ReadByte(addr)))))
		} else {
			c.registers.SetReg(ins.Rd, uint32(int32(int16(c.bus.ReadHalf(addr)))))
		}
	case ins.H: // LDRH
		c.registers.SetReg(ins.Rd, uint32(rotr16(c.bus.ReadHalf(addr&^1), uint8((addr&1)*8))))
	default: // LDR (format 7)
		c.registers.SetReg(ins.Rd, rotr(c.bus.ReadWord(addr&^3), (addr&3)*8))
	}
}

func (c *CPU) execThumbLoadStoreImm(ins ThumbLoadStoreImm) {
	addr := c.registers.GetReg(ins.Rb) + uint32(ins.Imm)
	switch {
	case ins.L && ins.B:
		c.registers.SetReg(ins.Rd, uint32(c.bus.ReadByte(addr)))
	case ins.L:
		c.registers.SetReg(ins.Rd, rotr(c.bus.ReadWord(addr&^3), (addr&3)*8))
	case ins.B:
		c.bus.WriteByte(addr, uint8(c.registers.GetReg(ins.Rd)))
	default:
		c.bus.WriteWord(addr&^3, c.registers.GetReg(ins.Rd))
	}
}

func (c *CPU) execThumbLoadStoreHalf(ins ThumbLoadStoreHalf) {
	addr := c.registers.GetReg(ins.Rb) + uint32(ins.Imm)
	if ins.L {
		c.registers.SetReg(ins.Rd, uint32(rotr16(c.bus.ReadHalf(addr&^1), uint8((addr&1)*8))))
	} else {
		c.bus.WriteHalf(addr&^1, uint16(c.registers.GetReg(ins.Rd)))
	}
}

func (c *CPU) execThumbLoadStoreSP(ins ThumbLoadStoreSP) {
	addr := c.registers.GetReg(13) + uint32(ins.Imm)
	if ins.L {
		c.registers.SetReg(ins.Rd, rotr(c.bus.ReadWord(addr&^3), (addr&3)*8))
	} else {
		c.bus.WriteWord(addr&^3, c.registers.GetReg(ins.Rd))
	}
}

func (c *CPU) execThumbLoadAddress(ins ThumbLoadAddress) {
	var base uint32
	if ins.SP {
		base = c.registers.GetReg(13)
	} else {
		base = c.registers.GetPC() &^ 3
	}
	c.registers.SetReg(ins.Rd, base+uint32(ins.Imm))
}

func (c *CPU) execThumbAddSP(ins ThumbAddSP) {
	sp := c.registers.GetReg(13)
	if ins.Negative {
		c.registers.SetReg(13, sp-uint32(ins.Imm))
	} else {
		c.registers.SetReg(13, sp+uint32(ins.Imm))
	}
}

// execThumbPushPop implements format 14. PUSH stores low-to-high in
// descending memory (pre-decrement), and optionally LR; POP loads
// ascending (post-increment) and optionally PC (which always returns to
// THUMB state, unlike ARM's LDM-with-PC).
func (c *CPU) execThumbPushPop(ins ThumbPushPop) {
	sp := c.registers.GetReg(13)
	if ins.L {
		for i := 0; i < 8; i++ {
			if ins.RegisterList&(1<<uint(i)) != 0 {
				c.registers.SetReg(uint8(i), c.bus.ReadWord(sp))
				sp += 4
			}
		}
		if ins.PCOrLR {
			c.writePC(c.bus.ReadWord(sp)&^1, true)
			sp += 4
		}
		c.registers.SetReg(13, sp)
		return
	}

	n := popcount16(ins.RegisterList)
	if ins.PCOrLR {
		n++
	}
	sp -= uint32(n) * 4
	cur := sp
	for i := 0; i < 8; i++ {
		if ins.RegisterList&(1<<uint(i)) != 0 {
			c.bus.WriteWord(cur, c.registers.GetReg(uint8(i)))
			cur += 4
		}
	}
	if ins.PCOrLR {
		c.bus.WriteWord(cur, c.registers.GetReg(14))
	}
	c.registers.SetReg(13, sp)
}

// execThumbMultipleLoadStore implements format 15 (STMIA/LDMIA Rb!,
// {Rlist}), always writing back the incremented base.
func (c *CPU) execThumbMultipleLoadStore(ins ThumbMultipleLoadStore) {
	addr := c.registers.GetReg(ins.Rb)
	n := popcount16(ins.RegisterList)
	if n == 0 {
		n = 8
	}
	for i := 0; i < 8; i++ {
		if ins.RegisterList&(1<<uint(i)) != 0 {
			if ins.L {
				c.registers.SetReg(uint8(i), c.bus.ReadWord(addr&^3))
			} else {
				c.bus.WriteWord(addr&^3, c.registers.GetReg(uint8(i)))
			}
			addr += 4
		}
	}
	c.registers.SetReg(ins.Rb, addr)
}

func (c *CPU) execThumbConditionalBranch(ins ThumbConditionalBranch) {
	if !CheckCondition(ins.Cond, c.registers.GetFlagN(), c.registers.GetFlagZ(), c.registers.GetFlagC(), c.registers.GetFlagV()) {
		return
	}
	c.writePC(uint32(int32(c.registers.GetPC())+ins.Offset), true)
}

// execThumbBranchLinkLow completes the two-instruction BL sequence: LR
// (already holding PC+OffsetHigh from the first half) becomes the branch
// base, the low 11 bits fold in, and LR is left pointing just past this
// instruction with bit 0 set, mirroring ARM's BL-return convention
// adapted for THUMB (spec §4.6).
func (c *CPU) execThumbBranchLinkLow(ins ThumbBranchLinkLow) {
	lr := c.registers.GetReg(14)
	target := lr + uint32(ins.OffsetLow)<<1
	returnAddr := c.registers.GetPC() - 2
	c.registers.SetReg(14, returnAddr|1)
	c.writePC(target, true)
}

// setLogicFlags sets N/Z from result and C from the barrel shifter's
// carry-out, matching the always-S data-processing behavior THUMB's ALU
// and shift forms share with ARM's MOVS/ANDS/etc.
func (c *CPU) setLogicFlags(result uint32, carryOut bool) {
	c.registers.SetFlagN(result&0x80000000 != 0)
	c.registers.SetFlagZ(result == 0)
	c.registers.SetFlagC(carryOut)
}

// setArithFlags sets N/Z/C/V for an add/sub-family THUMB operation,
// reusing the ARM carry/overflow helpers so both executors agree on the
// same flag semantics.
func (c *CPU) setArithFlags(op ARMDataProcessingOperation, a, b, result uint32) {
	c.registers.SetFlagN(result&0x80000000 != 0)
	c.registers.SetFlagZ(result == 0)
	c.registers.SetFlagC(arithmeticCarry(op, a, b, c.registers.GetFlagC()))
	c.registers.SetFlagV(arithmeticOverflow(op, a, b, result))
}
