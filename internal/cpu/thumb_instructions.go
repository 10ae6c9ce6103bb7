package cpu

// THUMB instruction field structs produced by the THUMB decoder (spec
// component C8). THUMB has no condition field except the conditional
// branch form, so these are plainer than the ARM structs.

// ThumbMoveShifted is format 1: LSL/LSR/ASR Rd, Rs, #imm5.
type ThumbMoveShifted struct {
	Op  uint8 // 0=LSL 1=LSR 2=ASR
	Imm uint8
	Rs  uint8
	Rd  uint8
}

// ThumbAddSub is format 2: ADD/SUB Rd, Rs, Rn|#imm3.
type ThumbAddSub struct {
	Sub   bool
	Imm   bool
	RnOrN uint8
	Rs    uint8
	Rd    uint8
}

// ThumbImmediate is format 3: MOV/CMP/ADD/SUB Rd, #imm8.
type ThumbImmediate struct {
	Op  uint8 // 0=MOV 1=CMP 2=ADD 3=SUB
	Rd  uint8
	Imm uint8
}

// ThumbALU is format 4: the 16 two-operand ALU operations.
type ThumbALU struct {
	Op uint8
	Rs uint8
	Rd uint8
}

// ThumbHiRegOp is format 5's ADD/CMP/MOV over the full R0-R15 range.
type ThumbHiRegOp struct {
	Op    uint8 // 0=ADD 1=CMP 2=MOV
	Rs    uint8 // already resolved to 0-15
	Rd    uint8
}

// ThumbBranchExchange is format 5's BX Rs/Hs form.
type ThumbBranchExchange struct {
	Rs uint8
}

// ThumbPCRelativeLoad is format 6: LDR Rd, [PC, #imm8*4].
type ThumbPCRelativeLoad struct {
	Rd  uint8
	Imm uint16
}

// ThumbLoadStore is format 7/8: register-offset load/store, including the
// sign-extended byte/halfword sub-form distinguished by SignExtend/H.
type ThumbLoadStore struct {
	L           bool
	B           bool
	SignExtend  bool
	H           bool
	Ro, Rb, Rd  uint8
}

// ThumbLoadStoreImm is format 9: immediate-offset word/byte load/store.
type ThumbLoadStoreImm struct {
	L   bool
	B   bool
	Imm uint16
	Rb  uint8
	Rd  uint8
}

// ThumbLoadStoreHalf is format 10: immediate-offset halfword load/store.
type ThumbLoadStoreHalf struct {
	L   bool
	Imm uint16
	Rb  uint8
	Rd  uint8
}

// ThumbLoadStoreSP is format 11: SP-relative load/store.
type ThumbLoadStoreSP struct {
	L   bool
	Rd  uint8
	Imm uint16
}

// ThumbLoadAddress is format 12: ADD Rd, PC|SP, #imm8*4.
type ThumbLoadAddress struct {
	SP  bool
	Rd  uint8
	Imm uint16
}

// ThumbAddSP is format 13: ADD SP, #+/-imm7*4.
type ThumbAddSP struct {
	Negative bool
	Imm      uint16
}

// ThumbPushPop is format 14: PUSH/POP {Rlist}{LR/PC}.
type ThumbPushPop struct {
	L            bool
	PCOrLR       bool
	RegisterList uint8
}

// ThumbMultipleLoadStore is format 15: STMIA/LDMIA Rb!, {Rlist}.
type ThumbMultipleLoadStore struct {
	L            bool
	Rb           uint8
	RegisterList uint8
}

// ThumbConditionalBranch is format 16: B<cond> label.
type ThumbConditionalBranch struct {
	Cond   ARMCondition
	Offset int32
}

// ThumbSWI is format 17.
type ThumbSWI struct {
	Comment uint8
}

// ThumbBranch is format 18: unconditional B label.
type ThumbBranch struct {
	Offset int32
}

// ThumbBranchLinkHigh/Low are format 19's two halves: the first sets up
// LR with the high 11 bits of a 22-bit signed offset; the second
// completes the branch using LR as a base and folds in the low 11 bits.
type ThumbBranchLinkHigh struct {
	OffsetHigh int32
}

type ThumbBranchLinkLow struct {
	OffsetLow uint16
}

// ThumbUndefined marks a 16-bit opcode that matches none of the 19
// formats, such as 0xE800-0xEFFF or the unused 0xB000-0xBFFF patterns;
// it mirrors ARMUndefinedInstruction.
type ThumbUndefined struct {
	Raw uint16
}
