// Package emulator is the composition root (Design Notes §9's "Emulator
// value"): it wires the bus, MMIO bank, interrupt controller, DMA engine
// and CPU together in place of the teacher's and the original
// implementation's module-level globals, and drives the scanline clock
// that feeds DMA's VBlank/HBlank triggers and the display interrupts.
package emulator

import (
	"GoBA/internal/bus"
	"GoBA/internal/cartridge"
	"GoBA/internal/cpu"
	"GoBA/internal/dma"
	"GoBA/internal/interrupt"
	"GoBA/internal/memory"
	"GoBA/internal/mmio"

	"github.com/pkg/errors"
)

// Emulator owns every live component of one running GBA core instance.
// Nothing here is a package-level global; constructing a second Emulator
// in the same process is always safe.
type Emulator struct {
	Bus        *bus.Bus
	MMIO       *mmio.Bank
	Interrupts *interrupt.Controller
	DMA        *dma.Controller
	CPU        *cpu.CPU
	Cartridge  *cartridge.Cartridge

	ppu *ppuStub
}

// New builds an Emulator from a ROM image and an optional BIOS image. A
// nil/empty bios falls back to a zeroed 16 KiB image (spec §1: the core
// does not ship or require a real boot ROM); skipBIOS additionally starts
// the CPU at the post-BIOS handoff state (CPU.ResetSkipBIOS) instead of
// the cold reset vector, matching how most homebrew and test ROMs are run
// without a BIOS dump.
func New(romImage, biosImage []byte, skipBIOS bool) (*Emulator, error) {
	cart, err := cartridge.New(romImage)
	if err != nil {
		return nil, errors.Wrap(err, "emulator: loading cartridge")
	}

	bios := memory.NewBIOS(biosImage)
	ewram := memory.NewEWRAM()
	iwram := memory.NewIWRAM()
	interrupts := interrupt.New()

	dmaEngine := dma.New(func(channel int) {
		switch channel {
		case 0:
			interrupts.RequestInterrupt(interrupt.DMA0)
		case 1:
			interrupts.RequestInterrupt(interrupt.DMA1)
		case 2:
			interrupts.RequestInterrupt(interrupt.DMA2)
		case 3:
			interrupts.RequestInterrupt(interrupt.DMA3)
		}
	})

	mmioBank := mmio.New(interrupts, dmaEngine)
	gbaBus := bus.New(bios, ewram, iwram, mmioBank, cart)
	c := cpu.New(gbaBus, interrupts, dmaEngine)
	gbaBus.SetOpenBusSource(c)
	gbaBus.SetPCSource(c)

	if skipBIOS {
		c.ResetSkipBIOS()
	} else {
		c.Reset()
	}

	e := &Emulator{
		Bus:        gbaBus,
		MMIO:       mmioBank,
		Interrupts: interrupts,
		DMA:        dmaEngine,
		CPU:        c,
		Cartridge:  cart,
		ppu:        newPPUStub(mmioBank, interrupts, dmaEngine),
	}
	return e, nil
}

// Step advances the machine by one CPU step (one instruction, one DMA
// transfer unit, or one IRQ dispatch) and the matching slice of the
// scanline clock, returning the number of cycles consumed.
func (e *Emulator) Step() int {
	cycles := e.CPU.Step()
	e.ppu.Tick(cycles)
	return cycles
}

// SetKeys forwards the host's button state to KEYINPUT (spec §4.3).
func (e *Emulator) SetKeys(pressedMask uint16) {
	e.MMIO.SetKeys(pressedMask)
}
