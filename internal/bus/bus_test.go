package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoBA/internal/cartridge"
	"GoBA/internal/dma"
	"GoBA/internal/interrupt"
	"GoBA/internal/memory"
	"GoBA/internal/mmio"
)

// fakePipeline stands in for the CPU's pipeline/PC state the real bus
// consults for open-bus fallback and BIOS readability.
type fakePipeline struct {
	word uint32
	pc   uint32
}

func (f *fakePipeline) OpenBusWord(addr uint32) uint32 { return rotr(f.word, (addr&3)*8) }
func (f *fakePipeline) CurrentPC() uint32              { return f.pc }

func rotr(v, amount uint32) uint32 {
	amount &= 31
	if amount == 0 {
		return v
	}
	return (v >> amount) | (v << (32 - amount))
}

func newTestBus(t *testing.T, rom []byte) (*Bus, *fakePipeline) {
	t.Helper()
	cart, err := cartridge.New(rom)
	require.NoError(t, err)
	interrupts := interrupt.New()
	dmaEngine := dma.New(nil)
	mmioBank := mmio.New(interrupts, dmaEngine)
	b := New(memory.NewBIOS(nil), memory.NewEWRAM(), memory.NewIWRAM(), mmioBank, cart)
	fp := &fakePipeline{pc: 0x08000000}
	b.SetOpenBusSource(fp)
	b.SetPCSource(fp)
	return b, fp
}

func minimalROM() []byte { return make([]byte, 0x100) }

func TestEWRAMWriteReadRoundTripsWithMirror(t *testing.T) {
	b, _ := newTestBus(t, minimalROM())
	b.WriteWord(EWRAMAddrStart, 0x11223344)
	assert.Equal(t, uint32(0x11223344), b.ReadWord(EWRAMAddrStart))
	// mod 0x40000 mirror: the mirrored address reads back what was written at the base.
	assert.Equal(t, uint32(0x11223344), b.ReadWord(EWRAMAddrStart+EWRAMMirrorMask+1))
}

func TestIWRAMMirror(t *testing.T) {
	b, _ := newTestBus(t, minimalROM())
	b.WriteByte(IWRAMAddrStart, 0xAB)
	assert.Equal(t, uint8(0xAB), b.ReadByte(IWRAMAddrStart+IWRAMMirrorMask+1))
}

// Spec §8 scenario 3: LDR-style misaligned word read returns the aligned
// word rotated right by (addr&3)*8. (Bus serves the aligned word; the
// rotation itself is the LDR executor's job, exercised here directly on
// the aligned read the executor would apply rotr to.)
func TestMisalignedWordReadIsAlignedUnderneath(t *testing.T) {
	b, _ := newTestBus(t, minimalROM())
	b.WriteByte(EWRAMAddrStart+0, 0xDE)
	b.WriteByte(EWRAMAddrStart+1, 0xAD)
	b.WriteByte(EWRAMAddrStart+2, 0xBE)
	b.WriteByte(EWRAMAddrStart+3, 0xEF)

	aligned := b.ReadWord(EWRAMAddrStart + 1) // bus masks low bits itself
	assert.Equal(t, uint32(0xEFBEADDE), aligned)

	rotated := rotr(aligned, ((EWRAMAddrStart + 1) & 3) * 8)
	assert.Equal(t, uint32(0xADDEEFBE), rotated, "spec §8 scenario 3's expected LDR result")
}

// Spec §8 scenario 4: open-bus reads reflect the pipeline's last fetch,
// rotated per address.
func TestOpenBusReflectsPipelineWord(t *testing.T) {
	b, fp := newTestBus(t, minimalROM())
	fp.word = 0xCAFEBABE

	assert.Equal(t, uint32(0xCAFEBABE), b.ReadWord(0x0F000000))
	assert.Equal(t, uint32(0xBABECAFE), b.ReadWord(0x0F000002))
}

func TestBIOSOpenBusWhenPCOutsideBIOS(t *testing.T) {
	b, fp := newTestBus(t, minimalROM())
	fp.word = 0x11223344
	fp.pc = 0x08000000 // executing from ROM, not BIOS

	assert.Equal(t, uint32(0x11223344), b.ReadWord(0))
}

func TestBIOSReadableWhenPCInsideBIOS(t *testing.T) {
	b, fp := newTestBus(t, minimalROM())
	fp.pc = 0x100 // inside the 16 KiB BIOS window
	assert.Equal(t, uint32(0), b.ReadWord(0), "BIOS should serve zeros, not open-bus, while PC is inside it")
}

func TestBIOSWritesAreIgnored(t *testing.T) {
	b, fp := newTestBus(t, minimalROM())
	fp.pc = 0
	b.WriteWord(0, 0xFFFFFFFF)
	assert.Equal(t, uint32(0), b.ReadWord(0))
}

// Spec §8 scenario 6: a byte write to VRAM's background region widens to
// a half-word write of (v<<8)|v.
func TestByteWriteToVRAMWidensToHalfword(t *testing.T) {
	b, _ := newTestBus(t, minimalROM())
	b.WriteByte(VRAMAddrStart, 0xAB)
	assert.Equal(t, uint16(0xABAB), b.ReadHalf(VRAMAddrStart))
}

func TestByteWriteToPaletteWidensToHalfword(t *testing.T) {
	b, _ := newTestBus(t, minimalROM())
	b.WriteByte(PALAddrStart+1, 0x7C)
	assert.Equal(t, uint16(0x7C7C), b.ReadHalf(PALAddrStart))
}

func TestByteWriteToOAMIsDropped(t *testing.T) {
	b, _ := newTestBus(t, minimalROM())
	b.WriteHalf(OAMAddrStart, 0x1234)
	b.WriteByte(OAMAddrStart, 0xFF)
	assert.Equal(t, uint16(0x1234), b.ReadHalf(OAMAddrStart), "byte writes to OAM are dropped")
}

// Spec §4.2's "complex" VRAM mirror: the 128 KiB window's upper 0x8000
// bytes (0x18000-0x1FFFF) fold back onto 0x10000-0x17FFF.
func TestVRAMUpperWindowFoldsBack(t *testing.T) {
	b, _ := newTestBus(t, minimalROM())
	b.WriteWord(VRAMAddrStart+0x10000, 0xAAAAAAAA)
	assert.Equal(t, uint32(0xAAAAAAAA), b.ReadWord(VRAMAddrStart+0x18000))
}

func TestROMOutOfRangeIsOpenBus(t *testing.T) {
	rom := minimalROM()
	b, fp := newTestBus(t, rom)
	fp.word = 0x99887766
	assert.Equal(t, uint32(0x99887766), b.ReadWord(ROMAddrStart+uint32(len(rom))+0x1000))
}

func TestBackupWindowWithNoDetectedBackupIsOpenBus(t *testing.T) {
	b, fp := newTestBus(t, minimalROM()) // no SRAM/FLASH/EEPROM token present
	fp.word = 0x13243546
	assert.Equal(t, uint32(0x13243546), b.ReadWord(BackupAddrStart))
}

func TestBackupWindowWithDetectedSRAMPersists(t *testing.T) {
	rom := make([]byte, 0x200)
	copy(rom[0xE4:], []byte("SRAM_Vnnn"))
	b, _ := newTestBus(t, rom)
	b.WriteByte(BackupAddrStart, 0x42)
	assert.Equal(t, uint8(0x42), b.ReadByte(BackupAddrStart))
}

func TestMMIOPage0x800MirrorsEveryPage(t *testing.T) {
	off1, ok1 := mmioOffset(MMIOAddrStart + 0x800)
	off2, ok2 := mmioOffset(MMIOAddrStart + 0x10800)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, off1, off2)
}

func TestMMIOOtherPageMirrorsAreOpenBus(t *testing.T) {
	_, ok := mmioOffset(MMIOAddrStart + 0x10050)
	assert.False(t, ok)
}
