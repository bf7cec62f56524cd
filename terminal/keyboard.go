package terminal

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/guslan/chipvm"
	"github.com/pkg/errors"
	"github.com/pkg/term"
)

// DefaultHoldTime is how long a key stays down after its character was
// read. Terminals only report presses, so releases are simulated.
const DefaultHoldTime = 150 * time.Millisecond

// Keyboard reads characters from a terminal in cbreak mode and maps
// them to keypad keys through a layout.
type Keyboard struct {
	mu        sync.Mutex
	pressedAt [chipvm.KeyCount]time.Time

	lookup   map[rune]byte
	holdTime time.Duration
	now      func() time.Time
	logger   *slog.Logger

	tty *term.Term
}

type KeyboardConfig struct {
	Layout   chipvm.KeyboardLayout
	HoldTime time.Duration
	Logger   *slog.Logger
	// OnInterrupt is called when Ctrl-C is read, since cbreak mode keeps
	// the terminal from raising SIGINT.
	OnInterrupt func()
}
type KeyboardConfigCb func(config *KeyboardConfig)

func newKeyboard(config *KeyboardConfig) *Keyboard {
	return &Keyboard{
		lookup:   chipvm.LookupMap(config.Layout),
		holdTime: config.HoldTime,
		now:      time.Now,
		logger:   config.Logger,
	}
}

func keyboardConfig(configs []KeyboardConfigCb) *KeyboardConfig {
	config := &KeyboardConfig{
		Layout:   chipvm.DefaultKeyboardLayout,
		HoldTime: DefaultHoldTime,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, cb := range configs {
		cb(config)
	}

	return config
}

// OpenKeyboard puts the controlling terminal in cbreak mode and starts
// reading keys from it. Close restores the terminal.
func OpenKeyboard(configs ...KeyboardConfigCb) (*Keyboard, error) {
	config := keyboardConfig(configs)

	tty, err := term.Open("/dev/tty", term.CBreakMode)
	if err != nil {
		return nil, errors.Wrap(err, "opening terminal")
	}

	kb := newKeyboard(config)
	kb.tty = tty
	go kb.readLoop(tty, config.OnInterrupt)

	return kb, nil
}

// NewKeyboardFromReader reads keys from r. Meant for pipes and tests.
func NewKeyboardFromReader(r io.Reader, configs ...KeyboardConfigCb) *Keyboard {
	config := keyboardConfig(configs)

	kb := newKeyboard(config)
	go kb.readLoop(r, config.OnInterrupt)

	return kb
}

func (kb *Keyboard) readLoop(r io.Reader, onInterrupt func()) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, c := range buf[:n] {
			if c == 0x03 && onInterrupt != nil {
				onInterrupt()
				continue
			}
			kb.Feed(rune(c))
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				kb.logger.Warn("Keyboard read failed", slog.Any("error", err))
			}
			return
		}
	}
}

// Feed presses the key mapped to r, if any.
func (kb *Keyboard) Feed(r rune) {
	k, ok := kb.lookup[r]
	if !ok {
		return
	}

	kb.mu.Lock()
	kb.pressedAt[k] = kb.now()
	kb.mu.Unlock()
}

// State implements chipvm.Keyboard.
func (kb *Keyboard) State() chipvm.KeyState {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	var ks chipvm.KeyState
	now := kb.now()
	for k, at := range kb.pressedAt {
		ks[k] = !at.IsZero() && now.Sub(at) < kb.holdTime
	}

	return ks
}

// Close restores the terminal.
func (kb *Keyboard) Close() error {
	if kb.tty == nil {
		return nil
	}

	if err := kb.tty.Restore(); err != nil {
		return errors.Wrap(err, "restoring terminal")
	}

	return kb.tty.Close()
}
