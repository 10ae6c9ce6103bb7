package interrupt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewControllerStartsFullyDisabled(t *testing.T) {
	c := New()
	assert.False(t, c.Pending())
	assert.False(t, c.Halted())
}

func TestRequestInterruptAlwaysSetsIFRegardlessOfIE(t *testing.T) {
	c := New()
	c.RequestInterrupt(VBlank)
	assert.Equal(t, uint16(VBlank), c.ReadIF(), "IF must record the request even though IE/IME gate dispatch, not storage (spec §9)")
	assert.False(t, c.Pending(), "dispatch withheld: IE is still clear")
}

func TestPendingRequiresIEAndIME(t *testing.T) {
	c := New()
	c.RequestInterrupt(VBlank)
	c.WriteIE(uint16(VBlank))
	assert.False(t, c.Pending(), "IME still clear")

	c.WriteIME(1)
	assert.True(t, c.Pending())
}

func TestWriteIFClearsOnlySpecifiedBits(t *testing.T) {
	c := New()
	c.RequestInterrupt(VBlank)
	c.RequestInterrupt(HBlank)
	c.WriteIF(uint16(VBlank))
	assert.Equal(t, uint16(HBlank), c.ReadIF())
}

func TestWriteIMEUsesOnlyBit0(t *testing.T) {
	c := New()
	c.WriteIME(0xFFFE)
	assert.False(t, c.ReadIME())
	c.WriteIME(0xFFFF)
	assert.True(t, c.ReadIME())
}

func TestWriteIEMasksToFourteenBits(t *testing.T) {
	c := New()
	c.WriteIE(0xFFFF)
	assert.Equal(t, uint16(0x3FFF), c.ReadIE())
}

func TestHaltClearsOnEnabledPendingSourceEvenWithoutIME(t *testing.T) {
	c := New()
	c.Halt()
	assert.True(t, c.Halted())

	c.WriteIE(uint16(VBlank))
	c.RequestInterrupt(VBlank)
	assert.False(t, c.Halted(), "HALTCNT only needs IE, not IME")
}

func TestClearHaltForciblyResumes(t *testing.T) {
	c := New()
	c.Halt()
	c.ClearHalt()
	assert.False(t, c.Halted())
}
