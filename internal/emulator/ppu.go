package emulator

import (
	"GoBA/internal/dma"
	"GoBA/internal/interrupt"
	"GoBA/internal/mmio"
)

// GBA scanline timing constants (spec §1 places actual pixel rendering out
// of scope, but the scanline clock itself is what drives DMA's VBlank/
// HBlank triggers and the VBlank/HBlank/VCounter interrupts, so this core
// still needs to track it).
const (
	cyclesPerDot   = 4
	dotsPerLine    = 308
	cyclesPerLine  = cyclesPerDot * dotsPerLine
	hblankStartDot = 240
	hblankStartCyc = hblankStartDot * cyclesPerDot
	visibleLines   = 160
	totalLines     = 228
)

// ppuStub is the "external collaborator" spec §1 says this core does not
// render: it tracks only the scanline/dot counters needed to publish
// DISPSTAT/VCOUNT and fire the three display-related interrupt sources and
// DMA's VBlank/HBlank triggers at the right cycle boundaries.
type ppuStub struct {
	bank        *mmio.Bank
	interrupts  *interrupt.Controller
	dmaEngine   *dma.Controller
	lineCycles  int
	line        int
	hblankFired bool
}

func newPPUStub(bank *mmio.Bank, interrupts *interrupt.Controller, dmaEngine *dma.Controller) *ppuStub {
	return &ppuStub{bank: bank, interrupts: interrupts, dmaEngine: dmaEngine}
}

// Tick advances the scanline clock by the given number of CPU cycles,
// crossing HBlank/VBlank/new-line boundaries as needed and publishing the
// resulting state to the MMIO bank and interrupt/DMA controllers.
func (p *ppuStub) Tick(cycles int) {
	for cycles > 0 {
		remaining := cyclesPerLine - p.lineCycles
		step := cycles
		if step > remaining {
			step = remaining
		}
		p.lineCycles += step
		cycles -= step

		if !p.hblankFired && p.lineCycles >= hblankStartCyc {
			p.hblankFired = true
			p.enterHBlank()
		}

		if p.lineCycles >= cyclesPerLine {
			p.lineCycles = 0
			p.hblankFired = false
			p.advanceLine()
		}
	}
	p.publishDispstat()
}

func (p *ppuStub) enterHBlank() {
	p.dmaEngine.NotifyHBlank()
	if _, hblankEnabled, _ := p.bank.DispstatIRQEnabled(); hblankEnabled {
		p.interrupts.RequestInterrupt(interrupt.HBlank)
	}
}

func (p *ppuStub) advanceLine() {
	p.line++
	if p.line >= totalLines {
		p.line = 0
	}
	p.bank.SetVCount(uint8(p.line))

	if p.line == visibleLines {
		p.dmaEngine.NotifyVBlank()
		if vblankEnabled, _, _ := p.bank.DispstatIRQEnabled(); vblankEnabled {
			p.interrupts.RequestInterrupt(interrupt.VBlank)
		}
	}

	if uint8(p.line) == p.bank.DispstatVCountTarget() {
		if _, _, vcounterEnabled := p.bank.DispstatIRQEnabled(); vcounterEnabled {
			p.interrupts.RequestInterrupt(interrupt.VCount)
		}
	}
}

func (p *ppuStub) publishDispstat() {
	vblank := p.line >= visibleLines
	hblank := p.hblankFired
	vcounter := uint8(p.line) == p.bank.DispstatVCountTarget()
	p.bank.SetDispstatFlags(vblank, hblank, vcounter)
}
