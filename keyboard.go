package chipvm

import (
	"sync"
	"unicode"
)

const KeyCount = 16

// KeyState is a snapshot of the hex keypad, indexed by key 0x0-0xF.
type KeyState [KeyCount]bool

// IsPressed reports whether key k is down. Keys past 0xF are never down.
func (ks KeyState) IsPressed(k byte) bool {
	if k >= KeyCount {
		return false
	}
	return ks[k]
}

// Mask packs the state into 16 bits, key 0 in the most significant bit.
func (ks KeyState) Mask() uint16 {
	var m uint16
	for k, down := range ks {
		if down {
			m |= 0b1000000000000000 >> k
		}
	}

	return m
}

// KeyStateFromMask is the inverse of KeyState.Mask.
func KeyStateFromMask(m uint16) KeyState {
	var ks KeyState
	for k := range ks {
		ks[k] = m&(0b1000000000000000>>k) != 0
	}

	return ks
}

type Keyboard interface {
	// State returns the keys currently held down
	State() KeyState
}

// InMemoryKeyboard is a keyboard fed by the host. It is safe for
// concurrent use, since hosts usually press keys from their UI loop.
type InMemoryKeyboard struct {
	mu    sync.Mutex
	state KeyState
}

func NewInMemoryKeyboard() *InMemoryKeyboard {
	return &InMemoryKeyboard{}
}

// State implements Keyboard.
func (kb *InMemoryKeyboard) State() KeyState {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.state
}

func (kb *InMemoryKeyboard) Set(state KeyState) {
	kb.mu.Lock()
	kb.state = state
	kb.mu.Unlock()
}

func (kb *InMemoryKeyboard) Press(k byte) {
	kb.setKey(k, true)
}

func (kb *InMemoryKeyboard) Release(k byte) {
	kb.setKey(k, false)
}

func (kb *InMemoryKeyboard) setKey(k byte, down bool) {
	if k >= KeyCount {
		return
	}

	kb.mu.Lock()
	kb.state[k] = down
	kb.mu.Unlock()
}

// KeyboardLayout maps every console key to the host character that
// triggers it. Index is the console key.
type KeyboardLayout [KeyCount]rune

// DefaultKeyboardLayout is the usual 4x4 block on the left of a QWERTY
// keyboard:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var DefaultKeyboardLayout = KeyboardLayout{
	0x0: 'x',
	0x1: '1', 0x2: '2', 0x3: '3',
	0x4: 'q', 0x5: 'w', 0x6: 'e',
	0x7: 'a', 0x8: 's', 0x9: 'd',
	0xA: 'z', 0xB: 'c',
	0xC: '4', 0xD: 'r', 0xE: 'f', 0xF: 'v',
}

// LookupMap inverts a layout. Both cases of a letter map to the same key.
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := make(map[rune]byte, 2*KeyCount)
	for k, r := range layout {
		m[unicode.ToLower(r)] = byte(k)
		m[unicode.ToUpper(r)] = byte(k)
	}

	return m
}
