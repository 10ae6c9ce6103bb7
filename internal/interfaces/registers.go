package interfaces

// Registers is the mode-aware register file contract (spec component C1):
// reads/writes of R0-R15 automatically resolve to the bank selected by the
// current CPSR mode, including the FIQ high bank. R15 reads return the raw
// PC, which the pipeline keeps two fetches ahead of the executing
// instruction.
type Registers interface {
	GetReg(idx uint8) uint32
	SetReg(idx uint8, v uint32)

	GetCPSR() uint32
	SetCPSR(v uint32)
	GetSPSR() uint32
	SetSPSR(v uint32)

	GetMode() uint8
	SetMode(mode uint8)

	GetPC() uint32
	SetPC(v uint32)

	IsThumb() bool
	SetThumbState(thumb bool)
	IsFIQDisabled() bool
	SetFIQDisabled(disabled bool)
	IsIRQDisabled() bool
	SetIRQDisabled(disabled bool)

	GetFlagN() bool
	GetFlagZ() bool
	GetFlagC() bool
	GetFlagV() bool
	SetFlagN(bool)
	SetFlagZ(bool)
	SetFlagC(bool)
	SetFlagV(bool)
}
