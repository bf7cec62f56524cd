package chipvm

import (
	"fmt"
	"strings"
)

const StartOfProgram = 0x200

const MemorySize = 4096

// MaxProgramSize is the largest ROM that fits between StartOfProgram and
// the end of memory.
const MaxProgramSize = MemorySize - StartOfProgram

// FontAddress is where the 16 built-in glyphs live. The glyphs sit at the
// very beginning of the reserved area, so FX29 resolves to Vx*5.
const FontAddress = 0x000

const fontGlyphSize = 5

type Memory [MemorySize]byte

// NewMemory creates an empty memory of 4096 bytes
func NewMemory() *Memory {
	return &Memory{}
}

func (mem Memory) Clone() *Memory {
	m := NewMemory()
	copy(m[:], mem[:])

	return m
}

func (mem Memory) String() string {
	sb := strings.Builder{}

	sb.WriteString("[ ")
	for _, b := range mem[:StartOfProgram] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]\n")
	sb.WriteString("[ ")
	for _, b := range mem[StartOfProgram:] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]")

	return sb.String()
}

// Range returns the bytes in [addr, addr+length). The slice aliases the
// memory. It fails when any byte of the range lies past the last address.
func (mem *Memory) Range(addr, length uint32) ([]byte, error) {
	if addr > MemorySize || length > MemorySize || addr+length > MemorySize {
		return nil, MemoryAccessError{Addr: addr, Length: length}
	}

	return mem[addr : addr+length], nil
}

// LoadProgram copies the program at the start-of-program address.
// Memory is left untouched when the program does not fit.
func (mem *Memory) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return ErrRomTooLarge
	}

	copy(mem[StartOfProgram:], program)

	return nil
}

func (mem *Memory) clear() {
	*mem = Memory{}
}

func loadCharactersInto(mem *Memory) {
	copy(mem[FontAddress:], fontSet[:])
}

var fontSet = [16 * fontGlyphSize]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80}

// FontSet returns a copy of the built-in glyphs.
func FontSet() [16 * fontGlyphSize]byte {
	return fontSet
}
