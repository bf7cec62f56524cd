package chipvm_test

import (
	"testing"

	"github.com/guslan/chipvm"
	"github.com/retroenv/retrogolib/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		opcode uint16
		op     chipvm.Op
		text   string
	}{
		{0x0123, chipvm.OpSys, "SYS #123"},
		{0x00E0, chipvm.OpCls, "CLS"},
		{0x00EE, chipvm.OpRet, "RET"},
		{0x1234, chipvm.OpJp, "JP #234"},
		{0x2ABC, chipvm.OpCall, "CALL #ABC"},
		{0x3A12, chipvm.OpSeVxKK, "SE VA, #12"},
		{0x4B34, chipvm.OpSneVxKK, "SNE VB, #34"},
		{0x5120, chipvm.OpSeVxVy, "SE V1, V2"},
		{0x632A, chipvm.OpLdVxKK, "LD V3, #2A"},
		{0x7401, chipvm.OpAddVxKK, "ADD V4, #01"},
		{0x8120, chipvm.OpLdVxVy, "LD V1, V2"},
		{0x8121, chipvm.OpOr, "OR V1, V2"},
		{0x8122, chipvm.OpAnd, "AND V1, V2"},
		{0x8123, chipvm.OpXor, "XOR V1, V2"},
		{0x8124, chipvm.OpAddVxVy, "ADD V1, V2"},
		{0x8125, chipvm.OpSub, "SUB V1, V2"},
		{0x8126, chipvm.OpShr, "SHR V1 {, V2}"},
		{0x8127, chipvm.OpSubn, "SUBN V1, V2"},
		{0x812E, chipvm.OpShl, "SHL V1 {, V2}"},
		{0x9120, chipvm.OpSneVxVy, "SNE V1, V2"},
		{0xA2F0, chipvm.OpLdI, "LD I, #2F0"},
		{0xB300, chipvm.OpJpV0, "JP V0, #300"},
		{0xC50F, chipvm.OpRnd, "RND V5, #0F"},
		{0xD015, chipvm.OpDrw, "DRW V0, V1, 5"},
		{0xE69E, chipvm.OpSkp, "SKP V6"},
		{0xE7A1, chipvm.OpSknp, "SKNP V7"},
		{0xF807, chipvm.OpLdVxDt, "LD V8, DT"},
		{0xF90A, chipvm.OpLdVxK, "LD V9, K"},
		{0xFA15, chipvm.OpLdDtVx, "LD DT, VA"},
		{0xFB18, chipvm.OpLdStVx, "LD ST, VB"},
		{0xFC1E, chipvm.OpAddIVx, "ADD I, VC"},
		{0xFD29, chipvm.OpLdFVx, "LD F, VD"},
		{0xFE33, chipvm.OpLdBVx, "LD B, VE"},
		{0xFF55, chipvm.OpLdIVx, "LD [I], VF"},
		{0xF065, chipvm.OpLdVxI, "LD V0, [I]"},
	}

	assert.Equal(t, chipvm.OpCount, len(tests))

	seen := map[chipvm.Op]bool{}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ins := chipvm.Decode(tt.opcode)
			assert.Equal(t, tt.op, ins.Op)
			assert.Equal(t, tt.opcode, ins.Opcode)
			assert.Equal(t, tt.text, ins.String())
		})
		seen[tt.op] = true
	}
	assert.Equal(t, chipvm.OpCount, len(seen))
}

func TestDecodeFields(t *testing.T) {
	ins := chipvm.Decode(0xD7A3)

	assert.Equal(t, byte(0x7), ins.X)
	assert.Equal(t, byte(0xA), ins.Y)
	assert.Equal(t, byte(0x3), ins.N)
	assert.Equal(t, byte(0xA3), ins.KK)
	assert.Equal(t, uint16(0x7A3), ins.NNN)
}

func TestDecodeUnknown(t *testing.T) {
	for _, opcode := range []uint16{
		0x5121, 0x512F,
		0x9121, 0x912F,
		0x8128, 0x812D, 0x812F,
		0xE19F, 0xE1A2, 0xE100,
		0xF100, 0xF108, 0xF130, 0xF1FF,
	} {
		ins := chipvm.Decode(opcode)
		if ins.Op != chipvm.OpUnknown {
			t.Fatalf("opcode %04X decoded to %s, expected an unknown opcode", opcode, ins.Op.Mnemonic())
		}
	}

	assert.Equal(t, "DW #5121", chipvm.Decode(0x5121).String())
	assert.Equal(t, "???", chipvm.OpUnknown.Mnemonic())
}
