package chipvm

import "sync/atomic"

type Buzzer interface {
	// Beep plays one tone. Called once per sound timer expiry.
	Beep()
}

type DummyBuzzer struct {
	beeps atomic.Int64
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{}
}

// Beep implements Buzzer.
func (b *DummyBuzzer) Beep() {
	b.beeps.Add(1)
}

// Beeps returns how many times Beep was called.
func (b *DummyBuzzer) Beeps() int {
	return int(b.beeps.Load())
}
