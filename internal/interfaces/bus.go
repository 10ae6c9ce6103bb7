// Package interfaces holds the small capability interfaces that decouple
// the CPU from its collaborators, per the "function-pointer bus ->
// capability object" design note: a single Bus value with six operations,
// injectable into the CPU constructor and mockable in tests, instead of
// six free function pointers passed around individually.
package interfaces

// Bus is the memory-access surface the CPU executes instructions against.
// Every access is naturally aligned by the implementation; callers never
// see a misaligned-access error, only the rotation/widening behavior the
// hardware exhibits for an unaligned request.
type Bus interface {
	ReadByte(addr uint32) uint8
	ReadHalf(addr uint32) uint16
	ReadWord(addr uint32) uint32
	WriteByte(addr uint32, v uint8)
	WriteHalf(addr uint32, v uint16)
	WriteWord(addr uint32, v uint32)
}

// InterruptLine is the CPU-visible half of the interrupt controller: a
// pending flag recomputed from IE & IF & IME, plus the HALTCNT-driven halt
// flag. MMIO writes both; the CPU reads them and clears the halt flag
// when it dispatches an IRQ.
type InterruptLine interface {
	Pending() bool
	Halted() bool
	ClearHalt()
}
