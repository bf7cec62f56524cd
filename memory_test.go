package chipvm_test

import (
	"testing"

	"github.com/guslan/chipvm"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/assert"
)

func TestMemoryRange(t *testing.T) {
	mem := chipvm.NewMemory()

	b, err := mem.Range(0xFFE, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(b))

	b[1] = 0x42
	assert.Equal(t, byte(0x42), mem[0xFFF])

	b, err = mem.Range(chipvm.MemorySize, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(b))

	for _, tt := range []struct{ addr, length uint32 }{
		{0xFFF, 2},
		{chipvm.MemorySize, 1},
		{0, chipvm.MemorySize + 1},
		{0xFFFFFFFF, 2},
		{2, 0xFFFFFFFF},
	} {
		_, err := mem.Range(tt.addr, tt.length)
		assert.True(t, errors.Is(err, chipvm.ErrOutOfBoundsMemoryAccess))
	}
}

func TestMemoryLoadProgram(t *testing.T) {
	mem := chipvm.NewMemory()

	assert.NoError(t, mem.LoadProgram([]byte{0xAB, 0xCD}))
	assert.Equal(t, byte(0xAB), mem[chipvm.StartOfProgram])
	assert.Equal(t, byte(0xCD), mem[chipvm.StartOfProgram+1])

	clone := mem.Clone()
	clone[chipvm.StartOfProgram] = 0
	assert.Equal(t, byte(0xAB), mem[chipvm.StartOfProgram])

	err := mem.LoadProgram(make([]byte, chipvm.MaxProgramSize+1))
	assert.True(t, errors.Is(err, chipvm.ErrRomTooLarge))
	assert.Equal(t, byte(0xAB), mem[chipvm.StartOfProgram])
}

func TestVMMemoryPokes(t *testing.T) {
	vm := chipvm.New()

	assert.NoError(t, vm.WriteMemory(0x300, []byte{1, 2, 3}))
	got, err := vm.ReadMemory(0x300, 3)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	// reads are copies
	got[0] = 9
	again, err := vm.ReadMemory(0x300, 1)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1}, again)

	err = vm.WriteMemory(0xFFF, []byte{1, 2})
	assert.True(t, errors.Is(err, chipvm.ErrOutOfBoundsMemoryAccess))
	_, err = vm.ReadMemory(0xFFF, 2)
	assert.True(t, errors.Is(err, chipvm.ErrOutOfBoundsMemoryAccess))
}
