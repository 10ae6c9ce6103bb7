package cpu

import "GoBA/internal/interfaces"

// pipeline models the ARM7TDMI's two-deep instruction prefetch (spec
// component C6). p[0] is about to execute; p[1] is the next fetch. Every
// fill/advance also records the address each slot was fetched from in
// lastAddr; the bus's open-bus fallback (spec §4.2) is built from the slot
// contents only and does not read lastAddr.
type pipeline struct {
	p        [2]uint32
	lastAddr [2]uint32
	thumb    bool
}

// fetchBus is the minimal fetch surface the pipeline needs; interfaces.Bus
// satisfies it with room to spare.
type fetchBus = interfaces.Bus

func fetchWidth(thumb bool) uint32 {
	if thumb {
		return 2
	}
	return 4
}

func (p *pipeline) fetch(bus fetchBus, addr uint32, thumb bool) uint32 {
	if thumb {
		return uint32(bus.ReadHalf(addr))
	}
	return bus.ReadWord(addr)
}

// Refill implements fill_pipe(): from the given PC, read two fetches into
// p[0]/p[1] and return the PC value that should be visible afterward
// (executing_address + 2*fetch_width), per spec §4.6.
func (p *pipeline) Refill(bus fetchBus, pc uint32, thumb bool) uint32 {
	p.thumb = thumb
	width := fetchWidth(thumb)
	p.p[0] = p.fetch(bus, pc, thumb)
	p.lastAddr[0] = pc
	pc += width
	p.p[1] = p.fetch(bus, pc, thumb)
	p.lastAddr[1] = pc
	pc += width
	return pc
}

// Next implements next_instr(): consume p[0], shift p[1] into p[0], fetch
// a fresh p[1] at the given PC, and return the PC advanced by one fetch
// width along with the opcode that was consumed.
func (p *pipeline) Next(bus fetchBus, pc uint32) (opcode uint32, newPC uint32) {
	opcode = p.p[0]
	p.p[0] = p.p[1]
	p.lastAddr[0] = p.lastAddr[1]
	width := fetchWidth(p.thumb)
	p.p[1] = p.fetch(bus, pc, p.thumb)
	p.lastAddr[1] = pc
	return opcode, pc + width
}

// OpenBusWord implements bus.OpenBusSource: the fabricated word an
// unmapped/forbidden read returns, built from the pipeline's last-fetched
// opcode(s) and rotated per spec §4.2.
func (p *pipeline) OpenBusWord(addr uint32) uint32 {
	var word uint32
	if p.thumb {
		word = p.openBusWordThumb(addr)
	} else {
		word = p.p[1]
	}
	return rotr(word, (addr&3)*8)
}

// openBusWordThumb implements the region-dependent half-combining rule
// spec §4.2 calls "more intricate": BIOS/OAM take low=p[0], high=p[1];
// IWRAM depends on addr&3 (behaves like a mirrored p[1] pair shifted by
// whether the low half-word index is even or odd); everywhere else both
// halves come from p[1].
func (p *pipeline) openBusWordThumb(addr uint32) uint32 {
	switch {
	case addr <= 0x00003FFF, (addr >= 0x07000000 && addr <= 0x07FFFFFF):
		return uint32(uint16(p.p[0])) | uint32(uint16(p.p[1]))<<16
	case addr >= 0x03000000 && addr <= 0x03FFFFFF:
		if addr&2 != 0 {
			return uint32(uint16(p.p[1]))<<16 | uint32(uint16(p.p[1]))
		}
		return uint32(uint16(p.p[0])) | uint32(uint16(p.p[1]))<<16
	default:
		return uint32(uint16(p.p[1]))<<16 | uint32(uint16(p.p[1]))
	}
}
