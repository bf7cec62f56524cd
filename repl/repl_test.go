package repl_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/guslan/chipvm"
	"github.com/guslan/chipvm/repl"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/assert"
)

func newRepl(t *testing.T, program []byte) (*repl.Repl, *chipvm.Runner, *chipvm.InMemoryKeyboard) {
	t.Helper()

	kb := chipvm.NewInMemoryKeyboard()
	runner := chipvm.NewRunner(chipvm.New(), nil, kb, nil, func(config *chipvm.RunnerConfig) {
		config.Paused = true
	})
	assert.NoError(t, runner.Load(program))

	return repl.New(runner, kb), runner, kb
}

func exec(t *testing.T, r *repl.Repl, line string) string {
	t.Helper()

	var out bytes.Buffer
	quit, err := r.Exec(line, &out)
	assert.NoError(t, err)
	assert.False(t, quit)

	return out.String()
}

func TestStep(t *testing.T) {
	r, runner, _ := newRepl(t, []byte{
		0x60, 0x2A,
		0x61, 0x01,
		0x51, 0x21,
	})

	assert.Equal(t, "200  602A  LD V0, #2A\n", exec(t, r, "step"))
	// an empty line repeats the last command
	assert.Equal(t, "202  6101  LD V1, #01\n", exec(t, r, ""))
	assert.Equal(t, "204  5121  DW #5121  ; unknown, skipped\n", exec(t, r, "s"))

	runner.Inspect(func(vm *chipvm.VM) {
		assert.Equal(t, uint16(0x206), vm.PC())
	})
}

func TestStepReportsFaults(t *testing.T) {
	r, _, _ := newRepl(t, []byte{0x00, 0xEE})

	var out bytes.Buffer
	_, err := r.Exec("step 3", &out)
	assert.True(t, errors.Is(err, chipvm.ErrStackUnderflow))

	text := exec(t, r, "regs")
	assert.True(t, strings.Contains(text, "halted:"))

	_, err = r.Exec("run", &out)
	assert.True(t, errors.Is(err, chipvm.ErrStackUnderflow))

	exec(t, r, "reset")
	assert.False(t, strings.Contains(exec(t, r, "regs"), "halted:"))
}

func TestUntil(t *testing.T) {
	r, runner, _ := newRepl(t, []byte{
		0x70, 0x01,
		0x30, 0x05,
		0x12, 0x00,
		0x12, 0x06,
	})

	text := exec(t, r, "until 206")
	assert.True(t, strings.HasSuffix(text, "reached 206 after 14 steps\n"))
	runner.Inspect(func(vm *chipvm.VM) {
		assert.Equal(t, byte(5), vm.V(0))
	})
}

func TestRegsAndSet(t *testing.T) {
	r, runner, _ := newRepl(t, []byte{0x22, 0x04, 0x00, 0x00, 0x00, 0xE0})

	exec(t, r, "set vA 7f")
	exec(t, r, "set i 0x300")
	exec(t, r, "set dt 10")
	exec(t, r, "step")

	text := exec(t, r, "r")
	assert.True(t, strings.HasPrefix(text, "PC=204 I=300 SP=1 DT=0F ST=00 cycles=1\n"))
	assert.True(t, strings.Contains(text, "VA=7F"))
	assert.True(t, strings.Contains(text, "stack: 200\n"))

	runner.Inspect(func(vm *chipvm.VM) {
		assert.Equal(t, byte(0x7F), vm.V(0xA))
	})

	var out bytes.Buffer
	_, err := r.Exec("set vZ 1", &out)
	assert.Error(t, err, `bad register "vZ"`)
}

func TestMemAndDis(t *testing.T) {
	r, _, _ := newRepl(t, []byte{
		0x00, 0xE0,
		0xA2, 0x2A,
		0xD0, 0x15,
	})

	assert.Equal(t, "200  00 E0 A2 2A\n", exec(t, r, "mem 200 4"))
	assert.Equal(t, "000  F0 90\n", exec(t, r, "m 0 2"))
	assert.Equal(t, "FFE  00 00\n", exec(t, r, "mem FFE"))

	assert.Equal(t,
		"200  00E0  CLS\n"+
			"202  A22A  LD I, #22A\n"+
			"204  D015  DRW V0, V1, 5\n",
		exec(t, r, "dis 200 3"))

	var out bytes.Buffer
	_, err := r.Exec("mem 1000", &out)
	assert.Error(t, err, `bad address "1000"`)
}

func TestKeyAndScreen(t *testing.T) {
	r, _, kb := newRepl(t, []byte{
		// wait for a key into v0, then draw its glyph
		0xF0, 0x0A,
		0xF0, 0x29,
		0xD1, 0x15,
	})

	assert.Equal(t, "held: 0000000000100000\n", exec(t, r, "key a"))
	assert.True(t, kb.State().IsPressed(0xA))

	exec(t, r, "step 3")
	screen := exec(t, r, "screen")
	lines := strings.Split(strings.TrimSuffix(screen, "\n"), "\n")
	assert.Equal(t, chipvm.ScreenHeight, len(lines))
	// glyph A: F0 90 F0 90 90
	assert.Equal(t, "####....", lines[0][:8])
	assert.Equal(t, "#..#....", lines[1][:8])

	assert.Equal(t, "held: 0000000000000000\n", exec(t, r, "key a up"))
}

func TestSpeedRunStop(t *testing.T) {
	r, runner, _ := newRepl(t, []byte{0x12, 0x00})

	assert.Equal(t, "20 Hz\n", exec(t, r, "speed 20"))

	exec(t, r, "run")
	assert.True(t, runner.IsRunning())
	exec(t, r, "stop")
	assert.False(t, runner.IsRunning())
}

func TestQuitAndUnknown(t *testing.T) {
	r, _, _ := newRepl(t, []byte{0x12, 0x00})

	var out bytes.Buffer
	quit, err := r.Exec("q", &out)
	assert.NoError(t, err)
	assert.True(t, quit)

	_, err = r.Exec("launch", &out)
	assert.True(t, errors.Is(err, repl.ErrUnknownCommand))

	assert.True(t, strings.Contains(exec(t, r, "help"), "until addr"))
}
