package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersPostResetState(t *testing.T) {
	r := NewRegisters()
	assert.Equal(t, uint8(SVCMode), r.GetMode())
	assert.False(t, r.IsThumb())
	assert.True(t, r.IsIRQDisabled())
	assert.True(t, r.IsFIQDisabled())
}

func TestGetSetRegRoundTripsAcrossModes(t *testing.T) {
	for _, mode := range []uint8{USRMode, FIQMode, IRQMode, SVCMode, ABTMode, UNDMode, SYSMode} {
		r := NewRegisters()
		r.SetMode(mode)
		for idx := uint8(0); idx <= 14; idx++ {
			r.SetReg(idx, 0x1000+uint32(idx))
			assert.Equal(t, 0x1000+uint32(idx), r.GetReg(idx), "mode %02X reg %d", mode, idx)
		}
	}
}

func TestFIQBankIsPrivateToFIQMode(t *testing.T) {
	r := NewRegisters()
	r.SetMode(USRMode)
	r.SetReg(8, 0xAAAA)

	r.SetMode(FIQMode)
	r.SetReg(8, 0xBBBB)
	assert.Equal(t, uint32(0xBBBB), r.GetReg(8))

	r.SetMode(USRMode)
	assert.Equal(t, uint32(0xAAAA), r.GetReg(8), "USR r8 must survive a trip through FIQ mode")
}

func TestSPAndLRAreBankedPerMode(t *testing.T) {
	r := NewRegisters()
	banks := []uint8{USRMode, SVCMode, ABTMode, UNDMode, IRQMode, FIQMode}
	for i, mode := range banks {
		r.SetMode(mode)
		r.SetReg(13, uint32(0x3000+i))
		r.SetReg(14, uint32(0x4000+i))
	}
	for i, mode := range banks {
		r.SetMode(mode)
		assert.Equal(t, uint32(0x3000+i), r.GetReg(13), "mode %02X SP", mode)
		assert.Equal(t, uint32(0x4000+i), r.GetReg(14), "mode %02X LR", mode)
	}
}

func TestUSRAndSYSShareTheSameBank(t *testing.T) {
	r := NewRegisters()
	r.SetMode(USRMode)
	r.SetReg(13, 0x1234)
	r.SetMode(SYSMode)
	assert.Equal(t, uint32(0x1234), r.GetReg(13))
}

func TestSetModeWithInvalidByteIsFatal(t *testing.T) {
	r := NewRegisters()
	assert.Panics(t, func() { r.SetMode(0x09) })
}

func TestR15ReadWriteBypassesBanks(t *testing.T) {
	r := NewRegisters()
	r.SetPC(0x08000000)
	assert.Equal(t, uint32(0x08000000), r.GetReg(15))
	r.SetReg(15, 0x08000100)
	assert.Equal(t, uint32(0x08000100), r.GetPC())
}

func TestCPSRSaveRestoreIsIdentity(t *testing.T) {
	r := NewRegisters()
	r.SetMode(IRQMode)
	r.SetFlagN(true)
	r.SetFlagV(true)
	before := r.GetCPSR()

	r.SetSPSR(before)
	r.SetCPSR(r.GetSPSR())

	assert.Equal(t, before, r.GetCPSR())
}

func TestSPSRIsPerModeAndUSRHasNone(t *testing.T) {
	r := NewRegisters()
	r.SetMode(SVCMode)
	r.SetSPSR(0xDEADBEEF)
	r.SetMode(IRQMode)
	r.SetSPSR(0xCAFEF00D)

	r.SetMode(SVCMode)
	require.Equal(t, uint32(0xDEADBEEF), r.GetSPSR())
	r.SetMode(IRQMode)
	require.Equal(t, uint32(0xCAFEF00D), r.GetSPSR())

	r.SetMode(USRMode)
	r.SetSPSR(0x12345678)
	require.Equal(t, r.GetCPSR(), r.GetSPSR(), "USR has no banked SPSR; reads return CPSR")
}

func TestFlagBits(t *testing.T) {
	r := NewRegisters()
	r.SetFlagN(true)
	r.SetFlagZ(true)
	r.SetFlagC(true)
	r.SetFlagV(true)
	assert.True(t, r.GetFlagN())
	assert.True(t, r.GetFlagZ())
	assert.True(t, r.GetFlagC())
	assert.True(t, r.GetFlagV())

	r.SetFlagN(false)
	assert.False(t, r.GetFlagN())
	assert.True(t, r.GetFlagZ(), "clearing N must not disturb Z")
}

func TestThumbStateBit(t *testing.T) {
	r := NewRegisters()
	assert.False(t, r.IsThumb())
	r.SetThumbState(true)
	assert.True(t, r.IsThumb())
	assert.Equal(t, uint8(SVCMode), r.GetMode(), "toggling T must not disturb mode bits")
}
