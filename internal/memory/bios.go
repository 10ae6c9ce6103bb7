package memory

import "encoding/binary"

// BIOS is the GBA's internal 16 KiB boot ROM. Unlike RAM it rejects
// writes outright (spec §4.2: "BIOS writes are ignored" at the bus level;
// the backing store itself simply has no write path).
type BIOS struct {
	data []byte
}

// NewBIOS wraps BIOS image bytes. A nil or short image is zero-padded to
// BIOSSize; loading an actual boot ROM from disk is out of scope for the
// core (spec §1) and is the host's responsibility.
func NewBIOS(image []byte) *BIOS {
	data := make([]byte, BIOSSize)
	copy(data, image)
	return &BIOS{data: data}
}

func (b *BIOS) Len() uint32 { return uint32(len(b.data)) }

func (b *BIOS) Read8(offset uint32) byte { return b.data[offset] }

func (b *BIOS) Read16(offset uint32) uint16 {
	return binary.LittleEndian.Uint16(b.data[offset:])
}

func (b *BIOS) Read32(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(b.data[offset:])
}
