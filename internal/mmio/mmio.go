// Package mmio implements the memory-mapped I/O register bank (spec
// component C3): a flat table keyed by a 12-bit offset, routing most
// addresses to plain storage and a handful to the interrupt and DMA
// controllers they actually belong to.
package mmio

import (
	"GoBA/internal/dma"
	"GoBA/internal/interrupt"
)

// Register offsets, per spec §4.3's MMIO map.
const (
	offDISPCNT  = 0x000
	offDISPSTAT = 0x004
	offVCOUNT   = 0x006
	offDMABase  = 0x0B0
	offDMAEnd   = 0x0DE
	offKEYINPUT = 0x130
	offIE       = 0x200
	offIF       = 0x202
	offWAITCNT  = 0x204
	offIME      = 0x208
	offPOSTFLG  = 0x300
	offHALTCNT  = 0x301
)

// dispstatStatusMask covers the three hardware-owned low bits of DISPSTAT
// (VBlank/HBlank/VCounter flags): software writes never touch them, per
// spec §4.3.
const dispstatStatusMask = 0x0007

// Bank is the MMIO register file. Most of the 1 KiB register window is
// generic storage the bus reads and writes untouched (video/sound/serial/
// timer registers, whose consuming peripherals this core does not model,
// per spec §1); a handful of offsets are intercepted and forwarded to the
// interrupt controller, the DMA engine, or a side-effect hook.
type Bank struct {
	data [0x804]byte // 1 KiB register window plus the 0x04000800 internal-control word

	interrupts *interrupt.Controller
	dma        *dma.Controller

	keyinput uint16 // active-low button state, all released = all 1s
}

// New wires a Bank to the interrupt and DMA controllers it forwards
// register accesses to.
func New(interrupts *interrupt.Controller, dmaCtrl *dma.Controller) *Bank {
	b := &Bank{interrupts: interrupts, dma: dmaCtrl, keyinput: 0x03FF}
	return b
}

// SetKeys updates KEYINPUT; bit layout is active-low (spec §4.3: 0 = held).
func (b *Bank) SetKeys(pressedMask uint16) {
	b.keyinput = ^pressedMask & 0x03FF
}

// SetDispstatFlags is called by the composition root's PPU stub once per
// scanline/frame boundary to update the hardware-owned DISPSTAT status
// bits, independent of whatever the CPU last wrote to bits 3-15.
func (b *Bank) SetDispstatFlags(vblank, hblank, vcounter bool) {
	cur := uint16(b.data[offDISPSTAT]) | uint16(b.data[offDISPSTAT+1])<<8
	cur &^= dispstatStatusMask
	if vblank {
		cur |= 1 << 0
	}
	if hblank {
		cur |= 1 << 1
	}
	if vcounter {
		cur |= 1 << 2
	}
	b.data[offDISPSTAT] = byte(cur)
	b.data[offDISPSTAT+1] = byte(cur >> 8)
}

// SetVCount is called by the PPU stub to publish the current scanline.
func (b *Bank) SetVCount(line uint8) {
	b.data[offVCOUNT] = line
	b.data[offVCOUNT+1] = 0
}

// DispstatIRQEnabled reports the three software-writable IRQ-enable bits
// of DISPSTAT (bits 3-5), which the PPU stub consults before requesting
// VBlank/HBlank/VCounter interrupts.
func (b *Bank) DispstatIRQEnabled() (vblank, hblank, vcounter bool) {
	v := b.data[offDISPSTAT]
	return v&(1<<3) != 0, v&(1<<4) != 0, v&(1<<5) != 0
}

// DispstatVCountTarget returns the scanline DISPSTAT's VCounter match
// compares against (bits 8-15 of the register).
func (b *Bank) DispstatVCountTarget() uint8 {
	return b.data[offDISPSTAT+1]
}

func inDMARange(off uint32) bool { return off >= offDMABase && off <= offDMAEnd }

// ReadByte/ReadHalf/ReadWord and the Write counterparts implement the
// interfaces.Bus-compatible register surface the bus dispatches 0x04xxxxxx
// accesses to (addr already masked to a 12-bit offset by the caller).
func (b *Bank) ReadByte(off uint32) uint8 {
	switch {
	case off == offIE || off == offIE+1:
		return byteOf(b.interrupts.ReadIE(), off-offIE)
	case off == offIF || off == offIF+1:
		return byteOf(b.interrupts.ReadIF(), off-offIF)
	case off == offIME || off == offIME+1:
		return boolByte(b.interrupts.ReadIME(), off-offIME)
	case off == offKEYINPUT || off == offKEYINPUT+1:
		return byteOf(b.keyinput, off-offKEYINPUT)
	case inDMARange(off):
		return byteOf(b.dma.ReadRegHalf(alignHalf(off-offDMABase)), off&1)
	default:
		return b.data[off]
	}
}

func (b *Bank) ReadHalf(off uint32) uint16 {
	switch {
	case off == offIE:
		return b.interrupts.ReadIE()
	case off == offIF:
		return b.interrupts.ReadIF()
	case off == offIME:
		return boolUint16(b.interrupts.ReadIME())
	case off == offKEYINPUT:
		return b.keyinput
	case inDMARange(off):
		return b.dma.ReadRegHalf(off - offDMABase)
	default:
		return uint16(b.data[off]) | uint16(b.data[off+1])<<8
	}
}

func (b *Bank) ReadWord(off uint32) uint32 {
	switch {
	case inDMARange(off):
		return b.dma.ReadRegWord(off - offDMABase)
	default:
		lo := uint32(b.ReadHalf(off))
		hi := uint32(b.ReadHalf(off + 2))
		return lo | hi<<16
	}
}

func (b *Bank) WriteByte(off uint32, v uint8) {
	switch {
	case off == offHALTCNT:
		b.interrupts.Halt()
	case off == offIF || off == offIF+1:
		b.writeIFByte(off, v)
	case off == offIME || off == offIME+1:
		b.writeIMEByte(off, v)
	case off == offIE || off == offIE+1:
		b.writeIEByte(off, v)
	case off == offDISPSTAT:
		cur := b.data[off]
		b.data[off] = (cur & dispstatStatusMask) | (v &^ dispstatStatusMask)
	case inDMARange(off):
		cur := b.dma.ReadRegHalf(alignHalf(off - offDMABase))
		b.dma.WriteRegHalf(alignHalf(off-offDMABase), mergeByte(cur, v, off&1))
	default:
		b.data[off] = v
	}
}

func (b *Bank) WriteHalf(off uint32, v uint16) {
	switch {
	case off == offIE:
		b.interrupts.WriteIE(v)
	case off == offIF:
		b.interrupts.WriteIF(v)
	case off == offIME:
		b.interrupts.WriteIME(v)
	case off == offHALTCNT || off == offHALTCNT-1:
		b.interrupts.Halt()
	case off == offDISPSTAT:
		cur := uint16(b.data[off]) | uint16(b.data[off+1])<<8
		nv := (cur & dispstatStatusMask) | (v &^ dispstatStatusMask)
		b.data[off] = byte(nv)
		b.data[off+1] = byte(nv >> 8)
	case inDMARange(off):
		b.dma.WriteRegHalf(off-offDMABase, v)
	default:
		b.data[off] = byte(v)
		b.data[off+1] = byte(v >> 8)
	}
}

func (b *Bank) WriteWord(off uint32, v uint32) {
	switch {
	case inDMARange(off):
		b.dma.WriteRegWord(off-offDMABase, v)
	default:
		b.WriteHalf(off, uint16(v))
		b.WriteHalf(off+2, uint16(v>>16))
	}
}

func (b *Bank) writeIEByte(off uint32, v uint8) {
	cur := b.interrupts.ReadIE()
	b.interrupts.WriteIE(mergeByte(cur, v, off-offIE))
}

func (b *Bank) writeIFByte(off uint32, v uint8) {
	// write-1-to-clear applies per the byte actually written; the other
	// byte of IF is untouched.
	if off == offIF {
		b.interrupts.WriteIF(uint16(v))
	} else {
		b.interrupts.WriteIF(uint16(v) << 8)
	}
}

func (b *Bank) writeIMEByte(off uint32, v uint8) {
	if off == offIME {
		b.interrupts.WriteIME(uint16(v))
	}
}

func alignHalf(off uint32) uint32 { return off &^ 1 }

func byteOf(v uint16, idx uint32) uint8 {
	if idx == 0 {
		return uint8(v)
	}
	return uint8(v >> 8)
}

func boolByte(v bool, idx uint32) uint8 {
	if idx != 0 {
		return 0
	}
	if v {
		return 1
	}
	return 0
}

func boolUint16(v bool) uint16 {
	if v {
		return 1
	}
	return 0
}

func mergeByte(cur uint16, v uint8, idx uint32) uint16 {
	if idx == 0 {
		return (cur &^ 0xFF) | uint16(v)
	}
	return (cur &^ 0xFF00) | uint16(v)<<8
}
