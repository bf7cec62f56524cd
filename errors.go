package chipvm

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrRomTooLarge = errors.New("the program does not fit into memory")
var ErrRomIo = errors.New("the program could not be read")

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")
var ErrOutOfBoundsMemoryAccess = errors.New("memory access out of bounds")

// ErrHalted is returned when stepping a VM that stopped on a fault.
// Only Reset clears it.
var ErrHalted = errors.New("the VM is halted")

type UnknownOpcodeError struct {
	Opcode uint16
	PC     uint16
}

func (err UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode=%04X at PC=%03X", err.Opcode, err.PC)
}

// MemoryAccessError reports an address range that falls outside the
// 4096 bytes of memory.
type MemoryAccessError struct {
	Addr   uint32
	Length uint32
	PC     uint16
}

func (err MemoryAccessError) Error() string {
	return fmt.Sprintf("memory access out of bounds: [%03X, %03X) at PC=%03X", err.Addr, err.Addr+err.Length, err.PC)
}

func (err MemoryAccessError) Is(target error) bool {
	return target == ErrOutOfBoundsMemoryAccess
}

// FaultError is a fatal execution fault. The VM stays halted until Reset.
type FaultError struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (err *FaultError) Error() string {
	return fmt.Sprintf("fault at PC=%03X opcode=%04X: %v", err.PC, err.Opcode, err.Err)
}

func (err *FaultError) Unwrap() error {
	return err.Err
}

func (err *FaultError) Cause() error {
	return err.Err
}
