package chipvm

import "fmt"

// Op identifies one of the 35 documented operations.
type Op byte

const (
	OpUnknown Op = iota

	OpSys     // 0nnn SYS addr
	OpCls     // 00E0 CLS
	OpRet     // 00EE RET
	OpJp      // 1nnn JP addr
	OpCall    // 2nnn CALL addr
	OpSeVxKK  // 3xkk SE Vx, byte
	OpSneVxKK // 4xkk SNE Vx, byte
	OpSeVxVy  // 5xy0 SE Vx, Vy
	OpLdVxKK  // 6xkk LD Vx, byte
	OpAddVxKK // 7xkk ADD Vx, byte
	OpLdVxVy  // 8xy0 LD Vx, Vy
	OpOr      // 8xy1 OR Vx, Vy
	OpAnd     // 8xy2 AND Vx, Vy
	OpXor     // 8xy3 XOR Vx, Vy
	OpAddVxVy // 8xy4 ADD Vx, Vy
	OpSub     // 8xy5 SUB Vx, Vy
	OpShr     // 8xy6 SHR Vx {, Vy}
	OpSubn    // 8xy7 SUBN Vx, Vy
	OpShl     // 8xyE SHL Vx {, Vy}
	OpSneVxVy // 9xy0 SNE Vx, Vy
	OpLdI     // Annn LD I, addr
	OpJpV0    // Bnnn JP V0, addr
	OpRnd     // Cxkk RND Vx, byte
	OpDrw     // Dxyn DRW Vx, Vy, nibble
	OpSkp     // Ex9E SKP Vx
	OpSknp    // ExA1 SKNP Vx
	OpLdVxDt  // Fx07 LD Vx, DT
	OpLdVxK   // Fx0A LD Vx, K
	OpLdDtVx  // Fx15 LD DT, Vx
	OpLdStVx  // Fx18 LD ST, Vx
	OpAddIVx  // Fx1E ADD I, Vx
	OpLdFVx   // Fx29 LD F, Vx
	OpLdBVx   // Fx33 LD B, Vx
	OpLdIVx   // Fx55 LD [I], Vx
	OpLdVxI   // Fx65 LD Vx, [I]

	opCount
)

// OpCount is the number of documented operations.
const OpCount = int(opCount) - 1

var opNames = [...]string{
	OpUnknown: "???",
	OpSys:     "SYS",
	OpCls:     "CLS",
	OpRet:     "RET",
	OpJp:      "JP",
	OpCall:    "CALL",
	OpSeVxKK:  "SE",
	OpSneVxKK: "SNE",
	OpSeVxVy:  "SE",
	OpLdVxKK:  "LD",
	OpAddVxKK: "ADD",
	OpLdVxVy:  "LD",
	OpOr:      "OR",
	OpAnd:     "AND",
	OpXor:     "XOR",
	OpAddVxVy: "ADD",
	OpSub:     "SUB",
	OpShr:     "SHR",
	OpSubn:    "SUBN",
	OpShl:     "SHL",
	OpSneVxVy: "SNE",
	OpLdI:     "LD",
	OpJpV0:    "JP",
	OpRnd:     "RND",
	OpDrw:     "DRW",
	OpSkp:     "SKP",
	OpSknp:    "SKNP",
	OpLdVxDt:  "LD",
	OpLdVxK:   "LD",
	OpLdDtVx:  "LD",
	OpLdStVx:  "LD",
	OpAddIVx:  "ADD",
	OpLdFVx:   "LD",
	OpLdBVx:   "LD",
	OpLdIVx:   "LD",
	OpLdVxI:   "LD",
}

// Mnemonic returns the assembler name of the operation.
func (op Op) Mnemonic() string {
	if int(op) >= len(opNames) {
		return opNames[OpUnknown]
	}
	return opNames[op]
}

// Instruction is a decoded opcode with its operand fields extracted.
type Instruction struct {
	Op     Op
	Opcode uint16

	X   byte
	Y   byte
	N   byte
	KK  byte
	NNN uint16
}

// Decode maps a 16 bit opcode to its operation. Anything that does not
// match one of the documented patterns decodes to OpUnknown.
func Decode(opCode uint16) Instruction {
	ins := Instruction{
		Opcode: opCode,
		X:      byte((opCode & 0x0F00) >> 8),
		Y:      byte((opCode & 0x00F0) >> 4),
		N:      byte(opCode & 0x000F),
		KK:     byte(opCode & 0x00FF),
		NNN:    opCode & 0x0FFF,
	}
	ins.Op = decodeOp(opCode, ins.N, ins.KK)

	return ins
}

func decodeOp(opCode uint16, n, kk byte) Op {
	switch opCode & 0xF000 {
	case 0x0000:
		switch opCode {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		default:
			return OpSys
		}

	case 0x1000:
		return OpJp
	case 0x2000:
		return OpCall
	case 0x3000:
		return OpSeVxKK
	case 0x4000:
		return OpSneVxKK
	case 0x5000:
		if n == 0 {
			return OpSeVxVy
		}
	case 0x6000:
		return OpLdVxKK
	case 0x7000:
		return OpAddVxKK

	case 0x8000:
		switch n {
		case 0x0:
			return OpLdVxVy
		case 0x1:
			return OpOr
		case 0x2:
			return OpAnd
		case 0x3:
			return OpXor
		case 0x4:
			return OpAddVxVy
		case 0x5:
			return OpSub
		case 0x6:
			return OpShr
		case 0x7:
			return OpSubn
		case 0xE:
			return OpShl
		}

	case 0x9000:
		if n == 0 {
			return OpSneVxVy
		}
	case 0xA000:
		return OpLdI
	case 0xB000:
		return OpJpV0
	case 0xC000:
		return OpRnd
	case 0xD000:
		return OpDrw

	case 0xE000:
		switch kk {
		case 0x9E:
			return OpSkp
		case 0xA1:
			return OpSknp
		}

	case 0xF000:
		switch kk {
		case 0x07:
			return OpLdVxDt
		case 0x0A:
			return OpLdVxK
		case 0x15:
			return OpLdDtVx
		case 0x18:
			return OpLdStVx
		case 0x1E:
			return OpAddIVx
		case 0x29:
			return OpLdFVx
		case 0x33:
			return OpLdBVx
		case 0x55:
			return OpLdIVx
		case 0x65:
			return OpLdVxI
		}
	}

	return OpUnknown
}

// String renders the instruction the way Cowgod's reference writes it.
func (ins Instruction) String() string {
	name := ins.Op.Mnemonic()

	switch ins.Op {
	case OpCls, OpRet:
		return name
	case OpSys, OpJp, OpCall:
		return fmt.Sprintf("%s #%03X", name, ins.NNN)
	case OpSeVxKK, OpSneVxKK, OpLdVxKK, OpAddVxKK, OpRnd:
		return fmt.Sprintf("%s V%X, #%02X", name, ins.X, ins.KK)
	case OpSeVxVy, OpSneVxVy, OpLdVxVy, OpOr, OpAnd, OpXor, OpAddVxVy, OpSub, OpSubn:
		return fmt.Sprintf("%s V%X, V%X", name, ins.X, ins.Y)
	case OpShr, OpShl:
		return fmt.Sprintf("%s V%X {, V%X}", name, ins.X, ins.Y)
	case OpLdI:
		return fmt.Sprintf("%s I, #%03X", name, ins.NNN)
	case OpJpV0:
		return fmt.Sprintf("%s V0, #%03X", name, ins.NNN)
	case OpDrw:
		return fmt.Sprintf("%s V%X, V%X, %d", name, ins.X, ins.Y, ins.N)
	case OpSkp, OpSknp:
		return fmt.Sprintf("%s V%X", name, ins.X)
	case OpLdVxDt:
		return fmt.Sprintf("%s V%X, DT", name, ins.X)
	case OpLdVxK:
		return fmt.Sprintf("%s V%X, K", name, ins.X)
	case OpLdDtVx:
		return fmt.Sprintf("%s DT, V%X", name, ins.X)
	case OpLdStVx:
		return fmt.Sprintf("%s ST, V%X", name, ins.X)
	case OpAddIVx:
		return fmt.Sprintf("%s I, V%X", name, ins.X)
	case OpLdFVx:
		return fmt.Sprintf("%s F, V%X", name, ins.X)
	case OpLdBVx:
		return fmt.Sprintf("%s B, V%X", name, ins.X)
	case OpLdIVx:
		return fmt.Sprintf("%s [I], V%X", name, ins.X)
	case OpLdVxI:
		return fmt.Sprintf("%s V%X, [I]", name, ins.X)
	}

	return fmt.Sprintf("DW #%04X", ins.Opcode)
}
