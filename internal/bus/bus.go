// Package bus implements the address decoder (spec component C2): it
// routes byte/half/word accesses to BIOS, EWRAM, IWRAM, the MMIO bank,
// palette, VRAM, OAM, cartridge ROM and cartridge backup storage, and
// applies the GBA's alignment and open-bus rules.
package bus

import (
	"GoBA/internal/cartridge"
	"GoBA/internal/memory"
	"GoBA/internal/mmio"
	"GoBA/util/dbg"
)

// GBA memory map constants, keyed on the high nibble of addr (spec §4.2).
const (
	BIOSAddrStart = 0x00000000
	BIOSAddrEnd   = 0x00003FFF

	EWRAMAddrStart  = 0x02000000
	EWRAMAddrEnd    = 0x02FFFFFF
	EWRAMMirrorMask = 0x0003FFFF // mod 0x40000

	IWRAMAddrStart  = 0x03000000
	IWRAMAddrEnd    = 0x03FFFFFF
	IWRAMMirrorMask = 0x00007FFF // mod 0x8000

	MMIOAddrStart = 0x04000000
	MMIOAddrEnd   = 0x04FFFFFF
	mmioPageMask  = 0x0000FFFF // each 64 KiB slot within page 4

	PALAddrStart  = 0x05000000
	PALAddrEnd    = 0x05FFFFFF
	PALMirrorMask = 0x000003FF // mod 0x400

	VRAMAddrStart = 0x06000000
	VRAMAddrEnd   = 0x06FFFFFF
	vramWindow    = 0x00020000 // 128 KiB window per spec §4.2's complex mirror
	vramLowPart   = 0x00018000
	vramFoldMask  = 0x00017FFF

	OAMAddrStart  = 0x07000000
	OAMAddrEnd    = 0x07FFFFFF
	OAMMirrorMask = 0x000003FF // mod 0x400

	ROMAddrStart = 0x08000000
	ROMAddrEnd   = 0x0DFFFFFF
	romBankSize  = 0x02000000 // three wait-state mirrors of the same image

	BackupAddrStart = 0x0E000000
	BackupAddrEnd   = 0x0FFFFFFF
)

// OpenBusSource supplies the fabricated word a read of an unmapped or
// forbidden address returns, drawn from the pipeline's last-fetched
// opcode(s) and already rotated per spec §4.2. The CPU's pipeline
// implements this; the bus only needs to ask for it.
type OpenBusSource interface {
	OpenBusWord(addr uint32) uint32
}

// PCSource tells the bus whether the BIOS region may currently be read,
// per spec §4.2: "readable only when PC is inside BIOS; otherwise
// open-bus."
type PCSource interface {
	CurrentPC() uint32
}

// Bus wires every addressable component together.
type Bus struct {
	BIOS      *memory.BIOS
	EWRAM     *memory.RAM
	IWRAM     *memory.RAM
	MMIO      *mmio.Bank
	Palette   *memory.RAM
	VRAM      *memory.RAM
	OAM       *memory.RAM
	Cartridge *cartridge.Cartridge

	openBus OpenBusSource
	pc      PCSource

	CycleCount uint64
}

// New wires a Bus from its backing components. Palette, VRAM and OAM are
// plain RAM blocks here (spec §1: rendering is out of scope; only their
// storage and the bus's widening/drop write rules are modeled).
func New(bios *memory.BIOS, ewram, iwram *memory.RAM, mmioBank *mmio.Bank, cart *cartridge.Cartridge) *Bus {
	return &Bus{
		BIOS:      bios,
		EWRAM:     ewram,
		IWRAM:     iwram,
		MMIO:      mmioBank,
		Palette:   memory.NewRAM(1024),
		VRAM:      memory.NewRAM(96 * 1024),
		OAM:       memory.NewRAM(1024),
		Cartridge: cart,
	}
}

// SetOpenBusSource and SetPCSource complete the wiring once the CPU
// exists; Bus must be constructed before CPU (CPU takes a Bus), so these
// cannot be constructor arguments.
func (b *Bus) SetOpenBusSource(s OpenBusSource) { b.openBus = s }
func (b *Bus) SetPCSource(s PCSource)           { b.pc = s }

func (b *Bus) openBusWord(addr uint32) uint32 {
	if b.openBus == nil {
		return 0
	}
	return b.openBus.OpenBusWord(addr)
}

func (b *Bus) biosReadable() bool {
	if b.pc == nil {
		return true
	}
	return b.pc.CurrentPC() <= BIOSAddrEnd
}

// ReadByte/ReadHalf/ReadWord and the Write counterparts are the naturally
// aligned accessors the CPU and DMA engine use; addr's low bits matching
// the access size are masked off here, not by the caller (spec §4.2).
func (b *Bus) ReadByte(addr uint32) uint8 {
	switch {
	case addr <= BIOSAddrEnd:
		if !b.biosReadable() {
			return uint8(b.openBusWord(addr))
		}
		return b.BIOS.Read8(addr)
	case addr < EWRAMAddrStart:
		return uint8(b.openBusWord(addr))
	case addr <= EWRAMAddrEnd:
		return b.EWRAM.Read8(addr & EWRAMMirrorMask)
	case addr <= IWRAMAddrEnd:
		return b.IWRAM.Read8(addr & IWRAMMirrorMask)
	case addr <= MMIOAddrEnd:
		off, ok := mmioOffset(addr)
		if !ok {
			return uint8(b.openBusWord(addr))
		}
		return b.MMIO.ReadByte(off)
	case addr <= PALAddrEnd:
		return b.Palette.Read8(addr & PALMirrorMask)
	case addr <= VRAMAddrEnd:
		return b.VRAM.Read8(vramOffset(addr))
	case addr <= OAMAddrEnd:
		return b.OAM.Read8(addr & OAMMirrorMask)
	case addr <= ROMAddrEnd:
		off := (addr - ROMAddrStart) % romBankSize
		if uint32(len(romBytes(b.Cartridge))) <= off {
			return uint8(b.openBusWord(addr))
		}
		return b.Cartridge.ReadByte(off)
	case addr <= BackupAddrEnd:
		if !b.Cartridge.HasBackup() {
			return uint8(b.openBusWord(addr))
		}
		return b.Cartridge.ReadSave(addr - BackupAddrStart)
	default:
		return uint8(b.openBusWord(addr))
	}
}

func (b *Bus) ReadHalf(addr uint32) uint16 {
	addr &^= 1
	switch {
	case addr <= BIOSAddrEnd:
		if !b.biosReadable() {
			return uint16(b.openBusWord(addr))
		}
		return b.BIOS.Read16(addr)
	case addr < EWRAMAddrStart:
		return uint16(b.openBusWord(addr))
	case addr <= EWRAMAddrEnd:
		return b.EWRAM.Read16(addr & EWRAMMirrorMask)
	case addr <= IWRAMAddrEnd:
		return b.IWRAM.Read16(addr & IWRAMMirrorMask)
	case addr <= MMIOAddrEnd:
		off, ok := mmioOffset(addr)
		if !ok {
			return uint16(b.openBusWord(addr))
		}
		return b.MMIO.ReadHalf(off)
	case addr <= PALAddrEnd:
		return b.Palette.Read16(addr & PALMirrorMask)
	case addr <= VRAMAddrEnd:
		return b.VRAM.Read16(vramOffset(addr))
	case addr <= OAMAddrEnd:
		return b.OAM.Read16(addr & OAMMirrorMask)
	case addr <= ROMAddrEnd:
		off := (addr - ROMAddrStart) % romBankSize
		if uint32(len(romBytes(b.Cartridge))) <= off+1 {
			return uint16(b.openBusWord(addr))
		}
		return b.Cartridge.ReadHalf(off)
	case addr <= BackupAddrEnd:
		if !b.Cartridge.HasBackup() {
			return uint16(b.openBusWord(addr))
		}
		return uint16(b.Cartridge.ReadSave(addr - BackupAddrStart))
	default:
		return uint16(b.openBusWord(addr))
	}
}

// ReadWord returns the naturally aligned word at addr&^3. Misaligned-word
// rotation (spec §4.2) is the caller's responsibility (LDR applies it);
// for mapped memory the bus only ever serves the aligned word underneath.
// An open-bus read is the exception: the open-bus source is given the
// unaligned addr and rotates the pipeline word by (addr&3)*8 itself.
func (b *Bus) ReadWord(addr uint32) uint32 {
	aligned := addr &^ 3
	switch {
	case aligned <= BIOSAddrEnd:
		if !b.biosReadable() {
			return b.openBusWord(addr)
		}
		return b.BIOS.Read32(aligned)
	case aligned < EWRAMAddrStart:
		return b.openBusWord(addr)
	case aligned <= EWRAMAddrEnd:
		return b.EWRAM.Read32(aligned & EWRAMMirrorMask)
	case aligned <= IWRAMAddrEnd:
		return b.IWRAM.Read32(aligned & IWRAMMirrorMask)
	case aligned <= MMIOAddrEnd:
		off, ok := mmioOffset(aligned)
		if !ok {
			return b.openBusWord(addr)
		}
		return b.MMIO.ReadWord(off)
	case aligned <= PALAddrEnd:
		return b.Palette.Read32(aligned & PALMirrorMask)
	case aligned <= VRAMAddrEnd:
		return b.VRAM.Read32(vramOffset(aligned))
	case aligned <= OAMAddrEnd:
		return b.OAM.Read32(aligned & OAMMirrorMask)
	case aligned <= ROMAddrEnd:
		off := (aligned - ROMAddrStart) % romBankSize
		if uint32(len(romBytes(b.Cartridge))) <= off+3 {
			return b.openBusWord(addr)
		}
		return b.Cartridge.ReadWord(off)
	case aligned <= BackupAddrEnd:
		if !b.Cartridge.HasBackup() {
			return b.openBusWord(addr)
		}
		lo := uint32(b.Cartridge.ReadSave(aligned - BackupAddrStart))
		return lo | lo<<8 | lo<<16 | lo<<24
	default:
		return b.openBusWord(addr)
	}
}

func (b *Bus) WriteByte(addr uint32, v uint8) {
	switch {
	case addr <= BIOSAddrEnd:
		// BIOS writes are ignored (spec §4.2).
	case addr < EWRAMAddrStart:
		// unused range, silently dropped.
	case addr <= EWRAMAddrEnd:
		b.EWRAM.Write8(addr&EWRAMMirrorMask, v)
	case addr <= IWRAMAddrEnd:
		b.IWRAM.Write8(addr&IWRAMMirrorMask, v)
	case addr <= MMIOAddrEnd:
		if off, ok := mmioOffset(addr); ok {
			b.MMIO.WriteByte(off, v)
		}
	case addr <= PALAddrEnd:
		// byte writes to palette are widened to a half-word write.
		b.Palette.Write16((addr&PALMirrorMask)&^1, uint16(v)<<8|uint16(v))
	case addr <= VRAMAddrEnd:
		// widened for the whole window; this core does not model the
		// BG/OBJ boundary a real PPU would split byte-write behavior on.
		b.VRAM.Write16(vramOffset(addr)&^1, uint16(v)<<8|uint16(v))
	case addr <= OAMAddrEnd:
		// byte writes to OAM are dropped.
	case addr <= ROMAddrEnd:
		// ROM writes are ignored.
	case addr <= BackupAddrEnd:
		if b.Cartridge.HasBackup() {
			b.Cartridge.WriteSave(addr-BackupAddrStart, v)
		}
	default:
		dbg.Printf("bus: unhandled byte write to %08X\n", addr)
	}
}

func (b *Bus) WriteHalf(addr uint32, v uint16) {
	addr &^= 1
	switch {
	case addr <= BIOSAddrEnd:
	case addr < EWRAMAddrStart:
	case addr <= EWRAMAddrEnd:
		b.EWRAM.Write16(addr&EWRAMMirrorMask, v)
	case addr <= IWRAMAddrEnd:
		b.IWRAM.Write16(addr&IWRAMMirrorMask, v)
	case addr <= MMIOAddrEnd:
		if off, ok := mmioOffset(addr); ok {
			b.MMIO.WriteHalf(off, v)
		}
	case addr <= PALAddrEnd:
		b.Palette.Write16(addr&PALMirrorMask, v)
	case addr <= VRAMAddrEnd:
		b.VRAM.Write16(vramOffset(addr), v)
	case addr <= OAMAddrEnd:
		b.OAM.Write16(addr&OAMMirrorMask, v)
	case addr <= ROMAddrEnd:
	case addr <= BackupAddrEnd:
		if b.Cartridge.HasBackup() {
			b.Cartridge.WriteSave(addr-BackupAddrStart, uint8(v))
		}
	default:
		dbg.Printf("bus: unhandled half write to %08X\n", addr)
	}
}

func (b *Bus) WriteWord(addr uint32, v uint32) {
	aligned := addr &^ 3
	switch {
	case aligned <= BIOSAddrEnd:
	case aligned < EWRAMAddrStart:
	case aligned <= EWRAMAddrEnd:
		b.EWRAM.Write32(aligned&EWRAMMirrorMask, v)
	case aligned <= IWRAMAddrEnd:
		b.IWRAM.Write32(aligned&IWRAMMirrorMask, v)
	case aligned <= MMIOAddrEnd:
		if off, ok := mmioOffset(aligned); ok {
			b.MMIO.WriteWord(off, v)
		}
	case aligned <= PALAddrEnd:
		b.Palette.Write32(aligned&PALMirrorMask, v)
	case aligned <= VRAMAddrEnd:
		b.VRAM.Write32(vramOffset(aligned), v)
	case aligned <= OAMAddrEnd:
		b.OAM.Write32(aligned&OAMMirrorMask, v)
	case aligned <= ROMAddrEnd:
	case aligned <= BackupAddrEnd:
		if b.Cartridge.HasBackup() {
			b.Cartridge.WriteSave(aligned-BackupAddrStart, uint8(v))
		}
	default:
		dbg.Printf("bus: unhandled word write to %08X\n", addr)
	}
}

// mmioOffset applies the page-4 mirroring rule: the live 1 KiB register
// window only exists in the first 64 KiB slot (0x04000000-0x040003FF);
// 0x04000800 additionally mirrors into every other 64 KiB slot across the
// rest of page 4; every other address is open-bus (spec §4.3), reported
// via ok=false.
func mmioOffset(addr uint32) (uint32, bool) {
	if addr < MMIOAddrStart+0x400 {
		return addr & mmioPageMask, true
	}
	if addr&mmioPageMask == 0x800 {
		return 0x800, true
	}
	return 0, false
}

// vramOffset implements the 128 KiB VRAM mirror window (spec §4.2): the
// low 0x18000 bytes map directly; the remaining 0x18000-0x1FFFF range
// folds back onto 0x10000-0x17FFF.
func vramOffset(addr uint32) uint32 {
	off := (addr - VRAMAddrStart) % vramWindow
	if off >= vramLowPart {
		off &= vramFoldMask
	}
	return off
}

func romBytes(c *cartridge.Cartridge) []byte { return c.ROMBytes() }
