package chipvm

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// StepResult describes what a single instruction did.
type StepResult struct {
	// PC is the address the instruction was fetched from
	PC          uint16
	Instruction Instruction
	// WaitingForKey is set when Fx0A found no key down and did nothing
	WaitingForKey bool
	// Unknown is set when the opcode matched no documented pattern
	Unknown *UnknownOpcodeError
	// ClippedPixels counts sprite pixels that fell past the display buffer
	ClippedPixels int
}

// Step runs one fetch-decode-execute cycle and then ticks the timers once.
func (vm *VM) Step() (StepResult, error) {
	res, err := vm.Execute()
	if err != nil {
		return res, err
	}

	vm.TickTimers()

	return res, nil
}

// Execute runs one fetch-decode-execute cycle without touching the
// timers. Drivers that clock the timers on their own use this.
//
// Unknown opcodes are reported in the result and skipped. Stack and
// memory faults halt the machine: the fault is returned here and every
// later call fails with ErrHalted until Reset.
func (vm *VM) Execute() (StepResult, error) {
	res := StepResult{PC: vm.pc}

	if vm.fault != nil {
		return res, errors.Wrapf(ErrHalted, "%v", vm.fault)
	}

	raw, err := vm.memory.Range(uint32(vm.pc), 2)
	if err != nil {
		return res, vm.halt(res, err)
	}

	var opCode uint16
	opCode |= uint16(raw[0]) << 8
	opCode |= uint16(raw[1]) << 0
	res.Instruction = Decode(opCode)

	if err := vm.executeInstruction(&res); err != nil {
		return res, vm.halt(res, err)
	}
	vm.cycles++

	return res, nil
}

// TickTimers decrements both timers once. The sound timer reaching zero
// raises the beep flag.
func (vm *VM) TickTimers() {
	if vm.dt > 0 {
		vm.dt--
	}

	if vm.st > 0 {
		if vm.st == 1 {
			vm.beep = true
		}
		vm.st--
	}
}

func (vm *VM) halt(res StepResult, err error) error {
	var mae MemoryAccessError
	if errors.As(err, &mae) {
		mae.PC = res.PC
		err = mae
	}

	vm.fault = &FaultError{
		PC:     res.PC,
		Opcode: res.Instruction.Opcode,
		Err:    err,
	}
	vm.logger.Error("Machine halted",
		slog.String("pc", hex16(res.PC)),
		slog.String("opcode", hex16(res.Instruction.Opcode)),
		slog.Any("error", err))

	return vm.fault
}

func (vm *VM) executeInstruction(res *StepResult) error {
	ins := res.Instruction
	x, y := ins.X, ins.Y
	next := vm.pc + 2

	switch ins.Op {
	case OpSys:
		// SYS addr :: Jump to a machine code routine at nnn.
		// This instruction is only used on the old computers on which Chip-8 was originally implemented. It is ignored by modern interpreters.
		if vm.machineRoutineInterpreter != nil {
			if err := vm.machineRoutineInterpreter(ins, vm); err != nil {
				return err
			}
		}

	case OpCls:
		// CLS :: Clear the display.
		vm.screen = Screen{}
		vm.redraw = true

	case OpRet:
		// RET :: Return from a subroutine.
		if vm.sp == 0 {
			return ErrStackUnderflow
		}
		vm.sp--
		next = vm.stack[vm.sp] + 2

	case OpJp:
		// JP addr :: Jump to location nnn.
		next = ins.NNN

	case OpCall:
		// CALL addr :: Call subroutine at nnn.
		if vm.sp >= StackDepth {
			return ErrStackOverflow
		}
		vm.stack[vm.sp] = vm.pc
		vm.sp++
		next = ins.NNN

	case OpSeVxKK:
		// SE Vx, byte :: Skip next instruction if Vx = kk.
		if vm.v[x] == ins.KK {
			next += 2
		}

	case OpSneVxKK:
		// SNE Vx, byte :: Skip next instruction if Vx != kk.
		if vm.v[x] != ins.KK {
			next += 2
		}

	case OpSeVxVy:
		// SE Vx, Vy :: Skip next instruction if Vx = Vy.
		if vm.v[x] == vm.v[y] {
			next += 2
		}

	case OpLdVxKK:
		// LD Vx, byte :: Set Vx = kk.
		vm.v[x] = ins.KK

	case OpAddVxKK:
		// ADD Vx, byte :: Set Vx = Vx + kk. VF is untouched.
		vm.v[x] += ins.KK

	case OpLdVxVy:
		// LD Vx, Vy :: Set Vx = Vy.
		vm.v[x] = vm.v[y]

	case OpOr:
		// OR Vx, Vy :: Set Vx = Vx OR Vy.
		vm.v[x] |= vm.v[y]
		vm.resetVf()

	case OpAnd:
		// AND Vx, Vy :: Set Vx = Vx AND Vy.
		vm.v[x] &= vm.v[y]
		vm.resetVf()

	case OpXor:
		// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
		vm.v[x] ^= vm.v[y]
		vm.resetVf()

	case OpAddVxVy:
		// ADD Vx, Vy :: Set Vx = Vx + Vy, set VF = carry.
		carry := vm.v[x] > 0xFF-vm.v[y]
		vm.setWithFlag(x, vm.v[x]+vm.v[y], bool2byte(carry))

	case OpSub:
		// SUB Vx, Vy :: Set Vx = Vx - Vy, set VF = NOT borrow.
		carry := vm.v[x] >= vm.v[y]
		vm.setWithFlag(x, vm.v[x]-vm.v[y], bool2byte(carry))

	case OpShr:
		// SHR Vx {, Vy} :: Set Vx = Vx SHR 1.
		src := vm.v[x]
		if vm.quirks.Has(QuirkShiftUsesVy) {
			src = vm.v[y]
		}
		vm.setWithFlag(x, src>>1, src&0b00000001)

	case OpSubn:
		// SUBN Vx, Vy :: Set Vx = Vy - Vx, set VF = NOT borrow.
		// Equal operands report no borrow.
		carry := vm.v[x] <= vm.v[y]
		vm.setWithFlag(x, vm.v[y]-vm.v[x], bool2byte(carry))

	case OpShl:
		// SHL Vx {, Vy} :: Set Vx = Vx SHL 1.
		src := vm.v[x]
		if vm.quirks.Has(QuirkShiftUsesVy) {
			src = vm.v[y]
		}
		vm.setWithFlag(x, src<<1, (src&0b10000000)>>7)

	case OpSneVxVy:
		// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
		if vm.v[x] != vm.v[y] {
			next += 2
		}

	case OpLdI:
		// LD I, addr :: Set I = nnn.
		vm.i = ins.NNN

	case OpJpV0:
		// JP V0, addr :: Jump to location nnn + V0 or xnn + Vx.
		if vm.quirks.Has(QuirkJumpUsesVx) {
			next = ins.NNN + uint16(vm.v[x])
		} else {
			next = ins.NNN + uint16(vm.v[0])
		}

	case OpRnd:
		// RND Vx, byte :: Set Vx = random byte AND kk.
		b, err := vm.random()
		if err != nil {
			return errors.Wrap(err, "random source")
		}
		vm.v[x] = b & ins.KK

	case OpDrw:
		// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
		rows, err := vm.memory.Range(uint32(vm.i), uint32(ins.N))
		if err != nil {
			return err
		}
		drawn := vm.screen.drawSprite(vm.v[x], vm.v[y], rows, vm.quirks.Has(QuirkWrapSprites))
		vm.v[0xF] = drawn.collision
		vm.redraw = true

		if drawn.clipped > 0 {
			res.ClippedPixels = drawn.clipped
			vm.logger.Debug("Sprite pixels clipped",
				slog.String("pc", hex16(vm.pc)),
				slog.Int("pixels", drawn.clipped))
		}

	case OpSkp:
		// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
		if vm.keys.IsPressed(vm.v[x]) {
			next += 2
		}

	case OpSknp:
		// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
		if !vm.keys.IsPressed(vm.v[x]) {
			next += 2
		}

	case OpLdVxDt:
		// LD Vx, DT :: Set Vx = delay timer value.
		vm.v[x] = vm.dt

	case OpLdVxK:
		// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
		// Every key is scanned, so the highest pressed key wins.
		pressed := false
		for k, down := range vm.keys {
			if down {
				vm.v[x] = byte(k)
				pressed = true
			}
		}
		if !pressed {
			res.WaitingForKey = true
			next = vm.pc
		}

	case OpLdDtVx:
		// LD DT, Vx :: Set delay timer = Vx.
		vm.dt = vm.v[x]

	case OpLdStVx:
		// LD ST, Vx :: Set sound timer = Vx.
		vm.st = vm.v[x]

	case OpAddIVx:
		// ADD I, Vx :: Set I = I + Vx, set VF = 1 when I leaves the 12-bit range.
		sum := uint32(vm.i) + uint32(vm.v[x])
		vm.i = uint16(sum)
		vm.v[0xF] = bool2byte(sum > 0xFFF)

	case OpLdFVx:
		// LD F, Vx :: Set I = location of sprite for digit Vx.
		vm.i = FontAddress + uint16(vm.v[x])*fontGlyphSize

	case OpLdBVx:
		// LD B, Vx :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
		dst, err := vm.memory.Range(uint32(vm.i), 3)
		if err != nil {
			return err
		}
		value := vm.v[x]
		dst[0] = value / 100
		dst[1] = (value / 10) % 10
		dst[2] = (value % 100) % 10

	case OpLdIVx:
		// LD [I], Vx :: Store registers V0 through Vx in memory starting at location I.
		dst, err := vm.memory.Range(uint32(vm.i), uint32(x)+1)
		if err != nil {
			return err
		}
		copy(dst, vm.v[:x+1])
		if !vm.quirks.Has(QuirkIndexUnchanged) {
			vm.i += uint16(x) + 1
		}

	case OpLdVxI:
		// LD Vx, [I] :: Read registers V0 through Vx from memory starting at location I.
		src, err := vm.memory.Range(uint32(vm.i), uint32(x)+1)
		if err != nil {
			return err
		}
		copy(vm.v[:x+1], src)
		if !vm.quirks.Has(QuirkIndexUnchanged) {
			vm.i += uint16(x) + 1
		}

	default:
		res.Unknown = &UnknownOpcodeError{
			Opcode: ins.Opcode,
			PC:     vm.pc,
		}
		vm.unknownOpcodes++
		vm.logger.Warn("Unknown opcode skipped",
			slog.String("pc", hex16(vm.pc)),
			slog.String("opcode", hex16(ins.Opcode)))
	}

	vm.pc = next

	return nil
}

// setWithFlag stores an 8xy_ result and its flag. With X=F the later
// write wins, which is the flag unless QuirkFlagFirst is set.
func (vm *VM) setWithFlag(x, result, flag byte) {
	if vm.quirks.Has(QuirkFlagFirst) {
		vm.v[0xF] = flag
		vm.v[x] = result
		return
	}

	vm.v[x] = result
	vm.v[0xF] = flag
}

func (vm *VM) resetVf() {
	if vm.quirks.Has(QuirkVfReset) {
		vm.v[0xF] = 0
	}
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}

func hex16(v uint16) string {
	return fmt.Sprintf("%04X", v)
}
