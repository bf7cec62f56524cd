package chipvm_test

import (
	"testing"

	"github.com/guslan/chipvm"
	"github.com/retroenv/retrogolib/assert"
)

func TestKeyStateMask(t *testing.T) {
	var ks chipvm.KeyState
	ks[0x0] = true
	ks[0xF] = true

	assert.Equal(t, uint16(0x8001), ks.Mask())
	assert.Equal(t, ks, chipvm.KeyStateFromMask(0x8001))
	assert.True(t, ks.IsPressed(0xF))
	assert.False(t, ks.IsPressed(0x1))
	assert.False(t, ks.IsPressed(0x10))
}

func TestInMemoryKeyboard(t *testing.T) {
	kb := chipvm.NewInMemoryKeyboard()

	kb.Press(0xA)
	kb.Press(0x20)
	assert.True(t, kb.State().IsPressed(0xA))
	assert.Equal(t, uint16(0x0020), kb.State().Mask())

	kb.Release(0xA)
	assert.Equal(t, chipvm.KeyState{}, kb.State())

	kb.Set(chipvm.KeyStateFromMask(0xFFFF))
	assert.Equal(t, uint16(0xFFFF), kb.State().Mask())
}

func TestLookupMap(t *testing.T) {
	lookup := chipvm.LookupMap(chipvm.DefaultKeyboardLayout)

	// 12 letters in both cases plus 4 digits
	assert.Equal(t, 2*12+4, len(lookup))

	key, ok := lookup['x']
	assert.True(t, ok)
	assert.Equal(t, byte(0x0), key)

	key, ok = lookup['V']
	assert.True(t, ok)
	assert.Equal(t, byte(0xF), key)

	key, ok = lookup['4']
	assert.True(t, ok)
	assert.Equal(t, byte(0xC), key)

	_, ok = lookup['p']
	assert.False(t, ok)
}
