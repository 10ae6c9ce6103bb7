package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRAMWriteReadRoundTripsAllWidths(t *testing.T) {
	r := NewRAM(64)
	r.Write8(0, 0xAB)
	assert.Equal(t, byte(0xAB), r.Read8(0))

	r.Write16(4, 0x1234)
	assert.Equal(t, uint16(0x1234), r.Read16(4))

	r.Write32(8, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), r.Read32(8))
}

// Write8 must store the byte it was given, not the offset -- a
// copy/paste bug in this family of flat stores has historically swapped
// the two parameters (spec §9).
func TestWrite8StoresTheValueNotTheOffset(t *testing.T) {
	r := NewRAM(16)
	r.Write8(10, 0x42)
	assert.Equal(t, byte(0x42), r.Read8(10), "Write8 must store value, not offset")
}

func TestNewEWRAMAndIWRAMAreCorrectlySized(t *testing.T) {
	assert.Equal(t, uint32(EWRAMSize), NewEWRAM().Len())
	assert.Equal(t, uint32(IWRAMSize), NewIWRAM().Len())
}

func TestNewBIOSZeroPadsShortImage(t *testing.T) {
	b := NewBIOS([]byte{0x11, 0x22})
	require.Equal(t, uint32(BIOSSize), b.Len())
	assert.Equal(t, byte(0x11), b.Read8(0))
	assert.Equal(t, byte(0x22), b.Read8(1))
	assert.Equal(t, byte(0), b.Read8(2))
}

func TestNewBIOSWithNilImageIsAllZero(t *testing.T) {
	b := NewBIOS(nil)
	assert.Equal(t, uint32(0), b.Read32(0))
}

func TestBIOSReadWidths(t *testing.T) {
	b := NewBIOS([]byte{0xEF, 0xBE, 0xAD, 0xDE})
	assert.Equal(t, byte(0xEF), b.Read8(0))
	assert.Equal(t, uint16(0xBEEF), b.Read16(0))
	assert.Equal(t, uint32(0xDEADBEEF), b.Read32(0))
}
