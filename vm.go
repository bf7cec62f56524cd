package chipvm

import (
	"crypto/rand"
	"io"
	"log/slog"
)

const StackDepth = 16

const RegisterCount = 16

// MachineRoutineInterpreter runs 0nnn SYS calls. Without one, SYS is a no-op.
type MachineRoutineInterpreter func(ins Instruction, vm *VM) error

// RandomSource returns one uniformly distributed byte.
type RandomSource func() (byte, error)

func cryptoRandomSource() (byte, error) {
	buff := [1]byte{}
	if _, err := rand.Read(buff[:]); err != nil {
		return 0, err
	}

	return buff[0], nil
}

// VM is a CHIP-8 machine. It owns every piece of emulation state and is
// not safe for concurrent use; see Runner for that.
type VM struct {
	memory Memory
	// V 8-bit registers
	v [RegisterCount]byte
	// I 16-bit register (12-bit usable)
	i uint16
	// Delay timer register
	dt byte
	// Sound timer register
	st byte
	// Program counter
	pc uint16
	// Stack pointer
	sp byte
	// Stack
	stack [StackDepth]uint16

	screen Screen
	keys   KeyState

	redraw bool
	beep   bool

	cycles         uint
	unknownOpcodes uint
	fault          *FaultError

	quirks                    Quirks
	random                    RandomSource
	machineRoutineInterpreter MachineRoutineInterpreter
	logger                    *slog.Logger
}

type Option func(vm *VM)

func WithLogger(logger *slog.Logger) Option {
	return func(vm *VM) {
		vm.logger = logger
	}
}

func WithQuirks(q Quirks) Option {
	return func(vm *VM) {
		vm.quirks = q
	}
}

func WithRandomSource(r RandomSource) Option {
	return func(vm *VM) {
		vm.random = r
	}
}

func WithMachineRoutineInterpreter(mri MachineRoutineInterpreter) Option {
	return func(vm *VM) {
		vm.machineRoutineInterpreter = mri
	}
}

// New creates a VM in its reset state.
func New(opts ...Option) *VM {
	vm := &VM{
		random: cryptoRandomSource,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(vm)
	}

	vm.Reset()

	return vm
}

// Reset zeroes the whole machine, reloads the font and points PC at the
// start of the program area. It can be called any number of times.
func (vm *VM) Reset() {
	vm.memory.clear()
	loadCharactersInto(&vm.memory)

	vm.v = [RegisterCount]byte{}
	vm.i = 0
	vm.dt = 0
	vm.st = 0
	vm.pc = StartOfProgram
	vm.sp = 0
	vm.stack = [StackDepth]uint16{}

	vm.screen = Screen{}
	vm.keys = KeyState{}
	vm.redraw = false
	vm.beep = false

	vm.cycles = 0
	vm.unknownOpcodes = 0
	vm.fault = nil
}

// LoadProgram copies the program at the start-of-program address. It does
// not reset registers or timers, call Reset first.
func (vm *VM) LoadProgram(program []byte) error {
	if err := vm.memory.LoadProgram(program); err != nil {
		return err
	}

	vm.logger.Debug("Program loaded", slog.Int("size", len(program)))

	return nil
}

// SetKeys stores the keypad snapshot used by the following steps.
func (vm *VM) SetKeys(keys KeyState) {
	vm.keys = keys
}

func (vm *VM) Keys() KeyState {
	return vm.keys
}

func (vm *VM) PC() uint16 {
	return vm.pc
}

func (vm *VM) I() uint16 {
	return vm.i
}

// V returns register Vx. x is taken modulo 16.
func (vm *VM) V(x byte) byte {
	return vm.v[x&0xF]
}

func (vm *VM) Registers() [RegisterCount]byte {
	return vm.v
}

func (vm *VM) SP() byte {
	return vm.sp
}

// Stack returns the return addresses currently pushed, oldest first.
func (vm *VM) Stack() []uint16 {
	s := make([]uint16, vm.sp)
	copy(s, vm.stack[:vm.sp])

	return s
}

func (vm *VM) DelayTimer() byte {
	return vm.dt
}

func (vm *VM) SoundTimer() byte {
	return vm.st
}

// Screen returns a copy of the display buffer.
func (vm *VM) Screen() Screen {
	return vm.screen
}

func (vm *VM) NeedsRedraw() bool {
	return vm.redraw
}

func (vm *VM) ClearRedraw() {
	vm.redraw = false
}

func (vm *VM) NeedsBeep() bool {
	return vm.beep
}

func (vm *VM) ClearBeep() {
	vm.beep = false
}

// Cycles returns the number of instructions executed since the last reset.
func (vm *VM) Cycles() uint {
	return vm.cycles
}

// UnknownOpcodes returns how many undecodable instructions were skipped.
func (vm *VM) UnknownOpcodes() uint {
	return vm.unknownOpcodes
}

// Fault returns the fault that halted the machine, if any.
func (vm *VM) Fault() *FaultError {
	return vm.fault
}

func (vm *VM) IsHalted() bool {
	return vm.fault != nil
}

func (vm *VM) Quirks() Quirks {
	return vm.quirks
}

// ReadMemory returns a copy of length bytes starting at addr.
func (vm *VM) ReadMemory(addr uint16, length int) ([]byte, error) {
	src, err := vm.memory.Range(uint32(addr), uint32(length))
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(src))
	copy(out, src)

	return out, nil
}

// WriteMemory pokes data at addr. Meant for debuggers and tests.
func (vm *VM) WriteMemory(addr uint16, data []byte) error {
	dst, err := vm.memory.Range(uint32(addr), uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)

	return nil
}

// SetRegister pokes Vx. Meant for debuggers and tests.
func (vm *VM) SetRegister(x, value byte) {
	vm.v[x&0xF] = value
}

// SetIndex pokes I. Meant for debuggers and tests.
func (vm *VM) SetIndex(i uint16) {
	vm.i = i
}

func (vm *VM) SetDelayTimer(value byte) {
	vm.dt = value
}

func (vm *VM) SetSoundTimer(value byte) {
	vm.st = value
}

// State is a copy of the CPU visible registers.
type State struct {
	PC     uint16
	I      uint16
	SP     byte
	V      [RegisterCount]byte
	Stack  [StackDepth]uint16
	DT     byte
	ST     byte
	Cycles uint
}

func (vm *VM) State() State {
	return State{
		PC:     vm.pc,
		I:      vm.i,
		SP:     vm.sp,
		V:      vm.v,
		Stack:  vm.stack,
		DT:     vm.dt,
		ST:     vm.st,
		Cycles: vm.cycles,
	}
}
