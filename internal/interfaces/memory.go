package interfaces

// MemoryDevice represents a flat byte-addressable backing store behind the
// bus (EWRAM, IWRAM, ...). The BIOS store has no write methods and does not
// satisfy it. Addresses passed in are already local
// offsets, mirror-folded by the bus; the device itself knows nothing about
// the GBA address map.
type MemoryDevice interface {
	Read8(offset uint32) byte
	Read16(offset uint32) uint16
	Read32(offset uint32) uint32
	Write8(offset uint32, value byte)
	Write16(offset uint32, value uint16)
	Write32(offset uint32, value uint32)
	Len() uint32
}
