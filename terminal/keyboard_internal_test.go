package terminal

import (
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
)

func TestKeysAreReleasedAfterHoldTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	kb := newKeyboard(keyboardConfig(nil))
	kb.now = func() time.Time { return now }

	kb.Feed('q')
	kb.Feed('?')
	assert.Equal(t, uint16(0x0800), kb.State().Mask())

	now = now.Add(DefaultHoldTime - time.Millisecond)
	assert.True(t, kb.State().IsPressed(0x4))

	now = now.Add(time.Millisecond)
	assert.False(t, kb.State().IsPressed(0x4))

	// pressing again restarts the window
	kb.Feed('Q')
	assert.True(t, kb.State().IsPressed(0x4))
}
