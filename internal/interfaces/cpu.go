package interfaces

// CPU is the ARM7TDMI step scheduler (spec component C9): one public entry
// point that executes the next instruction, or services a pending IRQ, and
// reports the cycles consumed.
type CPU interface {
	Registers() Registers
	Reset()
	ResetSkipBIOS()
	Step() int
}
