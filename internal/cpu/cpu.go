// Package cpu implements the ARM7TDMI instruction-set interpreter: the
// mode-banked register file (C1), the two-deep prefetch pipeline (C6),
// the ARM (C7) and THUMB (C8) executors, and the per-step scheduler that
// ties fetch, DMA service and IRQ dispatch together (C9).
package cpu

import (
	"GoBA/internal/dma"
	"GoBA/internal/interfaces"
	"GoBA/internal/interrupt"
)

// Bus is the memory surface the CPU executes against (the same shape as
// interfaces.Bus, aliased here so the rest of this package can keep
// referring to a package-local name).
type Bus = interfaces.Bus

// vectorReset and the other low exception vectors (spec §4.4's
// "IRQ entry" plus the SWI/UND cases executeARM/executeThumb raise).
const (
	vectorReset = 0x00
	vectorUND   = 0x04
	vectorSWI   = 0x08
	vectorIRQ   = 0x18
)

// CPU is the step scheduler (spec component C9).
type CPU struct {
	registers *Registers
	bus       Bus
	pipe      pipeline

	interrupts *interrupt.Controller
	dmaEngine  *dma.Controller

	// branched is set by writePC whenever the instruction just executed
	// redirected the pipeline (branch, BX, Rd=15 write, exception entry).
	// stepARM/stepThumb consult it to decide whether the pipeline-driven
	// PC advance computed by pipe.Next still applies, since writePC's own
	// refill has already put the correct, unrelated PC value in place.
	branched bool
}

// New wires a CPU to its bus and the interrupt/DMA controllers it
// consults once per step. The caller (composition root) sets the bus's
// OpenBusSource and PCSource to this CPU after New returns, since the CPU
// cannot exist before the bus does.
func New(bus Bus, interrupts *interrupt.Controller, dmaEngine *dma.Controller) *CPU {
	c := &CPU{
		registers:  NewRegisters(),
		bus:        bus,
		interrupts: interrupts,
		dmaEngine:  dmaEngine,
	}
	return c
}

func (c *CPU) Registers() interfaces.Registers { return c.registers }

// OpenBusWord and CurrentPC let the bus consult this CPU's pipeline and
// PC state (bus.OpenBusSource / bus.PCSource).
func (c *CPU) OpenBusWord(addr uint32) uint32 { return c.pipe.OpenBusWord(addr) }
func (c *CPU) CurrentPC() uint32              { return c.registers.PC }

// Reset performs the factory boot layout spec §3 Lifecycle names: System
// mode, both interrupt sources masked, ARM state, the SP banks the BIOS
// itself sets up before handing off to cartridge code, PC at the reset
// vector. Note this differs from the teacher's own default (Supervisor
// mode, no SP preload) — spec §3 is explicit that CPSR mode is SYSTEM at
// reset, so that takes precedence here.
func (c *CPU) Reset() {
	c.resetCommon()
	c.registers.SetPC(vectorReset)
	c.refill()
}

// ResetSkipBIOS is the same factory layout but for the entry point real
// hardware reaches after the boot ROM hands off: PC at the cartridge
// entry point 0x08000000 instead of the reset vector (spec §3, "a 'skip
// BIOS' variant jumps to 0x08000000").
func (c *CPU) ResetSkipBIOS() {
	c.resetCommon()
	c.registers.SetPC(0x08000000)
	c.refill()
}

func (c *CPU) resetCommon() {
	c.registers = NewRegisters()
	c.registers.SetMode(SYSMode)
	c.registers.SP_usr = 0x03007F00
	c.registers.SP_irq = 0x03007FA0
	c.registers.SP_svc = 0x03007FE0
	c.registers.SetIRQDisabled(true)
	c.registers.SetFIQDisabled(true)
	c.registers.SetThumbState(false)
}

func (c *CPU) refill() {
	pc := c.pipe.Refill(c.bus, c.registers.GetPC(), c.registers.IsThumb())
	c.registers.SetPC(pc)
}

// writePC implements set_pc() (spec §4.1/§4.6): mask the alignment bit
// appropriate to the target state and refill the pipeline.
func (c *CPU) writePC(value uint32, thumb bool) {
	if thumb {
		value &^= 1
	} else {
		value &^= 3
	}
	c.registers.SetPC(value)
	c.refill()
	c.branched = true
}

// enterException implements the shared tail of SWI, UND and IRQ entry:
// save CPSR to the target mode's SPSR, switch mode, mask IRQ, force ARM
// state, compute the link value and vector the pipeline (spec §4.4's
// "IRQ entry", generalized to the other low vectors it shares a shape
// with).
func (c *CPU) enterException(mode uint8, vector uint32) {
	oldCPSR := c.registers.GetCPSR()
	oldPC := c.registers.GetPC()
	c.registers.SetMode(mode)
	c.registers.SetSPSR(oldCPSR)
	c.registers.SetIRQDisabled(true)
	c.registers.SetThumbState(false)
	c.registers.SetReg(14, oldPC-4)
	c.writePC(vector, false)
}

// Step advances the machine by one unit of work: a DMA transfer if one is
// in flight, an IRQ dispatch if one is pending and unmasked, or else one
// CPU instruction. Returns the number of cycles consumed (spec §4.5/§4.7
// both specify per-operation costs; see timing.go).
func (c *CPU) Step() int {
	if c.dmaEngine != nil && c.dmaEngine.Pending() {
		if cycles, did := c.dmaEngine.Step(c.bus); did {
			return cycles
		}
	}

	if c.interrupts != nil && c.interrupts.Halted() {
		return cycleHalted
	}

	if c.interrupts != nil && c.interrupts.Pending() && !c.registers.IsIRQDisabled() {
		c.interrupts.ClearHalt()
		c.enterException(IRQMode, vectorIRQ)
		return cycleIRQEntry
	}

	if c.registers.IsThumb() {
		return c.stepThumb()
	}
	return c.stepARM()
}

// stepARM fetches the next ARM opcode and executes it. pipe.Next is given
// the current PC (already the fetch-offset value this instruction must
// observe on any R15 read, per spec §4.1) and returns the PC the *next*
// step should see; that value is only committed once execution is known
// not to have redirected the pipeline itself (writePC / enterException),
// since those already leave the correct PC and prefetch state behind.
func (c *CPU) stepARM() int {
	curPC := c.registers.GetPC()
	opcode, newPC := c.pipe.Next(c.bus, curPC)

	cond := ARMCondition((opcode >> 28) & 0xF)
	if !CheckCondition(cond, c.registers.GetFlagN(), c.registers.GetFlagZ(), c.registers.GetFlagC(), c.registers.GetFlagV()) {
		c.registers.SetPC(newPC)
		return cycleConditionFailed
	}
	c.branched = false
	c.executeARM(opcode)
	if !c.branched {
		c.registers.SetPC(newPC)
	}
	return armInstructionCycles(opcode)
}

func (c *CPU) stepThumb() int {
	curPC := c.registers.GetPC()
	opcode, newPC := c.pipe.Next(c.bus, curPC)
	c.branched = false
	c.executeThumb(uint16(opcode))
	if !c.branched {
		c.registers.SetPC(newPC)
	}
	return thumbInstructionCycles(uint16(opcode))
}
