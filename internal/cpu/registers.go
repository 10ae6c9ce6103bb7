package cpu

import (
	"fmt"
	"strconv"

	"GoBA/util/dbg"
)

// ARM7TDMI CPU operating modes.
const (
	USRMode = 0b10000 // User mode
	FIQMode = 0b10001 // FIQ mode (Fast Interrupt Request)
	IRQMode = 0b10010 // IRQ mode (Interrupt Request)
	SVCMode = 0b10011 // Supervisor mode
	ABTMode = 0b10111 // Abort mode
	UNDMode = 0b11011 // Undefined instruction mode
	SYSMode = 0b11111 // System mode (shares User mode registers)
)

// Registers holds the state of the ARM7TDMI's mode-banked register file
// (spec component C1). R0-R12 are shared across modes except FIQ, which
// banks its own R8-R12; SP and LR are banked per privileged mode; PC is
// never banked.
type Registers struct {
	R [13]uint32 // R0-R12 for non-FIQ modes

	SP_usr, LR_usr uint32
	SP_svc, LR_svc uint32
	SP_abt, LR_abt uint32
	SP_und, LR_und uint32
	SP_irq, LR_irq uint32

	R8_fiq, R9_fiq, R10_fiq, R11_fiq, R12_fiq uint32
	SP_fiq, LR_fiq                            uint32

	PC uint32

	CPSR uint32

	SPSR_svc, SPSR_abt, SPSR_und, SPSR_irq, SPSR_fiq uint32
}

// NewRegisters builds a Registers in the hardware reset state: Supervisor
// mode, ARM state, both IRQ and FIQ masked. CPU.Reset and
// CPU.ResetSkipBIOS then switch to System mode and preload the SP banks.
func NewRegisters() *Registers {
	r := &Registers{}
	r.CPSR = uint32(SVCMode) | (1 << 6) | (1 << 7)
	return r
}

func validMode(mode uint8) bool {
	switch mode {
	case USRMode, FIQMode, IRQMode, SVCMode, ABTMode, UNDMode, SYSMode:
		return true
	default:
		return false
	}
}

func (r *Registers) GetMode() uint8 { return uint8(r.CPSR & 0x1F) }

// SetMode switches the active bank. A CPSR mode byte outside the seven
// valid encodings is an implementation bug, not a runtime condition to
// recover from (spec §7, edge case "invalid-mode").
func (r *Registers) SetMode(mode uint8) {
	if !validMode(mode) {
		panic(fmt.Sprintf("cpu: invalid CPSR mode %#02x", mode))
	}
	r.CPSR = (r.CPSR &^ 0x1F) | uint32(mode)
}

func (r *Registers) GetCPSR() uint32 { return r.CPSR }

// SetCPSR overwrites the whole register, used by MSR CPSR and by IRQ
// return (SPSR -> CPSR). The mode field is validated the same as SetMode.
func (r *Registers) SetCPSR(v uint32) {
	if !validMode(uint8(v & 0x1F)) {
		panic(fmt.Sprintf("cpu: invalid CPSR mode %#02x", v&0x1F))
	}
	r.CPSR = v
}

func (r *Registers) GetPC() uint32  { return r.PC }
func (r *Registers) SetPC(v uint32) { r.PC = v }

// GetReg/SetReg resolve R0-R15 against the bank selected by the current
// CPSR mode. Reading R15 returns the live PC value; because the pipeline
// (spec §4.6) keeps PC two fetches ahead of the instruction being
// executed, this naturally yields PC+8 in ARM state and PC+4 in THUMB
// state without any extra arithmetic here. Writing R15 through SetReg
// only updates the raw value — branch-like writes that must also flush
// the pipeline go through CPU.writePC instead.
func (r *Registers) GetReg(idx uint8) uint32 {
	if idx > 15 {
		panic("cpu: read from undefined register R" + strconv.Itoa(int(idx)))
	}
	if idx == 15 {
		return r.PC
	}
	mode := r.GetMode()
	if mode == FIQMode {
		switch idx {
		case 8:
			return r.R8_fiq
		case 9:
			return r.R9_fiq
		case 10:
			return r.R10_fiq
		case 11:
			return r.R11_fiq
		case 12:
			return r.R12_fiq
		case 13:
			return r.SP_fiq
		case 14:
			return r.LR_fiq
		}
	}
	switch idx {
	case 13:
		switch mode {
		case USRMode, SYSMode:
			return r.SP_usr
		case SVCMode:
			return r.SP_svc
		case ABTMode:
			return r.SP_abt
		case UNDMode:
			return r.SP_und
		case IRQMode:
			return r.SP_irq
		}
	case 14:
		switch mode {
		case USRMode, SYSMode:
			return r.LR_usr
		case SVCMode:
			return r.LR_svc
		case ABTMode:
			return r.LR_abt
		case UNDMode:
			return r.LR_und
		case IRQMode:
			return r.LR_irq
		}
	}
	return r.R[idx]
}

func (r *Registers) SetReg(idx uint8, value uint32) {
	if idx > 15 {
		panic("cpu: write to undefined register R" + strconv.Itoa(int(idx)))
	}
	if idx == 15 {
		r.PC = value
		return
	}
	mode := r.GetMode()
	if mode == FIQMode {
		switch idx {
		case 8:
			r.R8_fiq = value
			return
		case 9:
			r.R9_fiq = value
			return
		case 10:
			r.R10_fiq = value
			return
		case 11:
			r.R11_fiq = value
			return
		case 12:
			r.R12_fiq = value
			return
		case 13:
			r.SP_fiq = value
			return
		case 14:
			r.LR_fiq = value
			return
		}
	}
	switch idx {
	case 13:
		switch mode {
		case USRMode, SYSMode:
			r.SP_usr = value
		case SVCMode:
			r.SP_svc = value
		case ABTMode:
			r.SP_abt = value
		case UNDMode:
			r.SP_und = value
		case IRQMode:
			r.SP_irq = value
		}
		return
	case 14:
		switch mode {
		case USRMode, SYSMode:
			r.LR_usr = value
		case SVCMode:
			r.LR_svc = value
		case ABTMode:
			r.LR_abt = value
		case UNDMode:
			r.LR_und = value
		case IRQMode:
			r.LR_irq = value
		}
		return
	}
	r.R[idx] = value
}

// GetUserReg/SetUserReg bypass the current mode's bank and always hit the
// USR/SYS bank, used by LDM/STM's user-bank transfer ("^" with no PC in
// the list, spec §4.7).
func (r *Registers) GetUserReg(idx uint8) uint32 {
	switch {
	case idx == 15:
		return r.PC
	case idx == 13:
		return r.SP_usr
	case idx == 14:
		return r.LR_usr
	default:
		return r.R[idx]
	}
}

func (r *Registers) SetUserReg(idx uint8, value uint32) {
	switch {
	case idx == 15:
		r.PC = value
	case idx == 13:
		r.SP_usr = value
	case idx == 14:
		r.LR_usr = value
	default:
		r.R[idx] = value
	}
}

// GetSPSR/SetSPSR access the banked SPSR for the current mode. USR/SYS
// have no SPSR; GBATEK documents reads there as unpredictable, so this
// returns CPSR's own value rather than fabricating state (spec §1 treats
// unpredictable-but-documented hardware corners as implementer's choice).
func (r *Registers) GetSPSR() uint32 {
	switch r.GetMode() {
	case FIQMode:
		return r.SPSR_fiq
	case SVCMode:
		return r.SPSR_svc
	case ABTMode:
		return r.SPSR_abt
	case IRQMode:
		return r.SPSR_irq
	case UNDMode:
		return r.SPSR_und
	default:
		return r.CPSR
	}
}

func (r *Registers) SetSPSR(value uint32) {
	switch r.GetMode() {
	case FIQMode:
		r.SPSR_fiq = value
	case SVCMode:
		r.SPSR_svc = value
	case ABTMode:
		r.SPSR_abt = value
	case IRQMode:
		r.SPSR_irq = value
	case UNDMode:
		r.SPSR_und = value
	default:
		dbg.Printf("cpu: SetSPSR in mode with no SPSR (%02X), ignored\n", r.GetMode())
	}
}

func (r *Registers) IsThumb() bool { return (r.CPSR>>5)&1 == 1 }

func (r *Registers) SetThumbState(thumb bool) {
	if thumb {
		r.CPSR |= 1 << 5
	} else {
		r.CPSR &^= 1 << 5
	}
}

func (r *Registers) IsFIQDisabled() bool { return (r.CPSR>>6)&1 == 1 }

func (r *Registers) SetFIQDisabled(disabled bool) {
	if disabled {
		r.CPSR |= 1 << 6
	} else {
		r.CPSR &^= 1 << 6
	}
}

func (r *Registers) IsIRQDisabled() bool { return (r.CPSR>>7)&1 == 1 }

func (r *Registers) SetIRQDisabled(disabled bool) {
	if disabled {
		r.CPSR |= 1 << 7
	} else {
		r.CPSR &^= 1 << 7
	}
}

func (r *Registers) GetFlagN() bool { return (r.CPSR>>31)&1 == 1 }
func (r *Registers) GetFlagZ() bool { return (r.CPSR>>30)&1 == 1 }
func (r *Registers) GetFlagC() bool { return (r.CPSR>>29)&1 == 1 }
func (r *Registers) GetFlagV() bool { return (r.CPSR>>28)&1 == 1 }

func (r *Registers) SetFlagN(set bool) { r.setCPSRBit(31, set) }
func (r *Registers) SetFlagZ(set bool) { r.setCPSRBit(30, set) }
func (r *Registers) SetFlagC(set bool) { r.setCPSRBit(29, set) }
func (r *Registers) SetFlagV(set bool) { r.setCPSRBit(28, set) }

func (r *Registers) setCPSRBit(bit uint, set bool) {
	if set {
		r.CPSR |= 1 << bit
	} else {
		r.CPSR &^= 1 << bit
	}
}

func modeName(mode uint8) string {
	switch mode {
	case USRMode:
		return "USR"
	case FIQMode:
		return "FIQ"
	case IRQMode:
		return "IRQ"
	case SVCMode:
		return "SVC"
	case ABTMode:
		return "ABT"
	case UNDMode:
		return "UND"
	case SYSMode:
		return "SYS"
	default:
		return fmt.Sprintf("?%02X?", mode)
	}
}

func (r *Registers) String() string {
	state := "ARM"
	if r.IsThumb() {
		state = "THUMB"
	}
	return fmt.Sprintf(
		"R0 =%08X  R1 =%08X  R2 =%08X  R3 =%08X\n"+
			"R4 =%08X  R5 =%08X  R6 =%08X  R7 =%08X\n"+
			"R8 =%08X  R9 =%08X  R10=%08X  R11=%08X\n"+
			"R12=%08X  SP =%08X  LR =%08X  PC =%08X\n"+
			"CPSR=%08X (%s %s N:%t Z:%t C:%t V:%t I:%t F:%t)",
		r.GetReg(0), r.GetReg(1), r.GetReg(2), r.GetReg(3),
		r.GetReg(4), r.GetReg(5), r.GetReg(6), r.GetReg(7),
		r.GetReg(8), r.GetReg(9), r.GetReg(10), r.GetReg(11),
		r.GetReg(12), r.GetReg(13), r.GetReg(14), r.GetReg(15),
		r.CPSR, modeName(r.GetMode()), state,
		r.GetFlagN(), r.GetFlagZ(), r.GetFlagC(), r.GetFlagV(),
		r.IsIRQDisabled(), r.IsFIQDisabled(),
	)
}
