// Package cartridge holds the Game Pak ROM image and its detected backup
// storage (spec §6: "ROM on-cartridge backup detection").
package cartridge

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// BackupType identifies the on-cartridge persistent storage technology, or
// its absence.
type BackupType int

const (
	BackupNone BackupType = iota
	BackupSRAM
	BackupFlash512
	BackupFlash1M
	BackupEEPROM
)

func (t BackupType) String() string {
	switch t {
	case BackupSRAM:
		return "SRAM"
	case BackupFlash512:
		return "FLASH512"
	case BackupFlash1M:
		return "FLASH1M"
	case BackupEEPROM:
		return "EEPROM"
	default:
		return "NONE"
	}
}

// backupSize returns the on-cartridge storage size for a detected type.
func (t BackupType) backupSize() int {
	switch t {
	case BackupSRAM, BackupFlash512:
		return 64 * 1024
	case BackupFlash1M:
		return 128 * 1024
	case BackupEEPROM:
		return 8 * 1024
	default:
		return 0
	}
}

// idTokens is scanned for in ROM order, per spec §6: "SRAM", "EEPROM",
// "FLASH_", "FLASH512_", "FLASH1M_". The longer FLASH tokens are checked
// before the bare "FLASH_" so a "FLASH512_" string isn't misclassified.
var idTokens = []struct {
	token string
	kind  BackupType
}{
	{"SRAM", BackupSRAM},
	{"EEPROM", BackupEEPROM},
	{"FLASH1M_", BackupFlash1M},
	{"FLASH512_", BackupFlash512},
	{"FLASH_", BackupFlash512},
}

// idScanOffset is where real GBA ROMs place their backup-type ID string,
// per §6.
const idScanOffset = 0xE4

// Cartridge owns the ROM image and whatever backup storage was detected in
// it. File loading and format-detection heuristics beyond the ASCII token
// scan are out of scope (spec §1).
type Cartridge struct {
	rom    []byte
	backup BackupType
	save   []byte

	// EEPROM and FLASH use serial/bank-switched protocols rather than a
	// flat address space; this core models only the flat-array storage
	// behind them (spec §1 excludes detailed backup protocol emulation
	// beyond routing reads/writes to the right store).
	flashBank int
}

// New builds a Cartridge from a ROM image, scanning it for a backup-type
// token per spec §6. A ROM shorter than the scan window is accepted (and
// classified as BackupNone) rather than rejected, since some homebrew
// images are smaller than 0xE4+len(token) bytes; that is reported via the
// cartridge's BackupType(), not an error.
func New(rom []byte) (*Cartridge, error) {
	if len(rom) == 0 {
		return nil, errors.New("cartridge: empty ROM image")
	}
	bt := detectBackup(rom)
	return &Cartridge{
		rom:    rom,
		backup: bt,
		save:   make([]byte, bt.backupSize()),
	}, nil
}

func detectBackup(rom []byte) BackupType {
	if len(rom) <= idScanOffset {
		return BackupNone
	}
	window := rom[idScanOffset:]
	for _, c := range idTokens {
		if containsToken(window, c.token) {
			return c.kind
		}
	}
	return BackupNone
}

func containsToken(haystack []byte, token string) bool {
	n := len(token)
	for i := 0; i+n <= len(haystack); i++ {
		if string(haystack[i:i+n]) == token {
			return true
		}
	}
	return false
}

func (c *Cartridge) BackupType() BackupType { return c.backup }

// HasBackup reports whether a backup type was detected in the ROM. When
// false, the bus's backup address window (spec §4.2) has no device
// behind it and must fall back to open-bus reads / dropped writes rather
// than this type's zero-value save store.
func (c *Cartridge) HasBackup() bool { return c.backup != BackupNone }

// ROMBytes exposes the raw image length to the bus's open-bus range check;
// callers must not retain or mutate the returned slice's contents.
func (c *Cartridge) ROMBytes() []byte { return c.rom }

// ReadByte/ReadHalf/ReadWord read ROM across its 32 MiB window; spec §4.2
// says out-of-range reads return open-bus, which is the bus's job, not
// the cartridge's — the cartridge only ever serves addresses the bus has
// already confirmed are in range.
func (c *Cartridge) ReadByte(offset uint32) uint8 {
	if int(offset) >= len(c.rom) {
		return 0
	}
	return c.rom[offset]
}

func (c *Cartridge) ReadHalf(offset uint32) uint16 {
	if int(offset)+1 >= len(c.rom) {
		return uint16(c.ReadByte(offset))
	}
	return binary.LittleEndian.Uint16(c.rom[offset:])
}

func (c *Cartridge) ReadWord(offset uint32) uint32 {
	if int(offset)+3 >= len(c.rom) {
		lo := uint32(c.ReadHalf(offset))
		hi := uint32(c.ReadHalf(offset + 2))
		return lo | hi<<16
	}
	return binary.LittleEndian.Uint32(c.rom[offset:])
}

// ReadSave/WriteSave access the flat backup store. Offset is already local
// to the backup window (0x0E000000+), so FLASH1M's second 64 KiB is reached
// by offset alone; flashBank is not updated by any access, and bank-select
// command sequencing is not modeled (a save-format heuristic, out of
// scope per §1).
func (c *Cartridge) ReadSave(offset uint32) uint8 {
	if len(c.save) == 0 || int(offset) >= len(c.save) {
		return 0xFF
	}
	return c.save[offset]
}

func (c *Cartridge) WriteSave(offset uint32, value uint8) {
	if len(c.save) == 0 || int(offset) >= len(c.save) {
		return
	}
	c.save[offset] = value
}
