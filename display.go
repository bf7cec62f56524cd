package chipvm

import "sync"

// Display abstraction for a display
type Display interface {
	// Render presents a full frame
	Render(Screen) error
}

// DummyDisplay is a display that does nothing
type DummyDisplay struct {
}

func NewDummyDisplay() *DummyDisplay {
	return &DummyDisplay{}
}

func (d DummyDisplay) Render(screen Screen) error {
	return nil
}

// InMemoryDisplay keeps the last rendered frame.
type InMemoryDisplay struct {
	mu      sync.Mutex
	screen  Screen
	renders int
}

func NewInMemoryDisplay() *InMemoryDisplay {
	return &InMemoryDisplay{}
}

// Render implements Display.
func (d *InMemoryDisplay) Render(screen Screen) error {
	d.mu.Lock()
	d.screen = screen
	d.renders++
	d.mu.Unlock()

	return nil
}

func (d *InMemoryDisplay) Screen() Screen {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.screen
}

// Renders returns how many frames were rendered so far.
func (d *InMemoryDisplay) Renders() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.renders
}
