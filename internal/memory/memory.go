// Package memory holds the flat backing stores behind the bus: BIOS,
// on-board work RAM (EWRAM) and on-chip work RAM (IWRAM). Region sizing and
// mirroring live in the bus (spec component C2); these types only know how
// to store and return bytes/halfwords/words at a local offset.
package memory

import "encoding/binary"

// Sizes match spec §4.2's region table.
const (
	BIOSSize  = 16 * 1024
	EWRAMSize = 256 * 1024
	IWRAMSize = 32 * 1024
)

// RAM is a flat, writable byte-addressable store.
type RAM struct {
	data []byte
}

// NewRAM allocates a zeroed RAM of the given size.
func NewRAM(size int) *RAM {
	return &RAM{data: make([]byte, size)}
}

func (r *RAM) Len() uint32 { return uint32(len(r.data)) }

func (r *RAM) Read8(offset uint32) byte { return r.data[offset] }

func (r *RAM) Read16(offset uint32) uint16 {
	return binary.LittleEndian.Uint16(r.data[offset:])
}

func (r *RAM) Read32(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(r.data[offset:])
}

func (r *RAM) Write8(offset uint32, value byte) { r.data[offset] = value }

func (r *RAM) Write16(offset uint32, value uint16) {
	binary.LittleEndian.PutUint16(r.data[offset:], value)
}

func (r *RAM) Write32(offset uint32, value uint32) {
	binary.LittleEndian.PutUint32(r.data[offset:], value)
}

// NewEWRAM allocates the 256 KiB external work RAM block.
func NewEWRAM() *RAM { return NewRAM(EWRAMSize) }

// NewIWRAM allocates the 32 KiB internal work RAM block.
func NewIWRAM() *RAM { return NewRAM(IWRAMSize) }
