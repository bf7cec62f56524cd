// Package repl is a line oriented debugger for the machine.
package repl

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/guslan/chipvm"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
)

// MaxUntilSteps bounds the "until" command.
const MaxUntilSteps = 1_000_000

var ErrUnknownCommand = errors.New("unknown command")

type command struct {
	usage string
	help  string
	run   func(r *Repl, args []string, out io.Writer) error
}

var commands map[string]*command

var aliases = map[string]string{
	"s": "step",
	"r": "regs",
	"m": "mem",
	"d": "dis",
	"u": "until",
	"q": "quit",
	"?": "help",
}

func init() {
	commands = map[string]*command{
		"step":   {"step [n]", "run n instructions, 1 by default", (*Repl).step},
		"until":  {"until addr", "step until PC reaches addr", (*Repl).until},
		"regs":   {"regs", "print the registers, timers and stack", (*Repl).regs},
		"mem":    {"mem addr [len]", "dump memory, 64 bytes by default", (*Repl).mem},
		"dis":    {"dis [addr] [n]", "disassemble n instructions from addr, PC by default", (*Repl).dis},
		"set":    {"set vX|i|dt|st value", "poke a register", (*Repl).set},
		"key":    {"key k [up]", "hold or release console key k", (*Repl).key},
		"screen": {"screen", "print the display", (*Repl).screen},
		"run":    {"run", "resume real time execution", (*Repl).run},
		"stop":   {"stop", "pause real time execution", (*Repl).stop},
		"speed":  {"speed [hz]", "print or change the instruction rate", (*Repl).speed},
		"reset":  {"reset", "restart the program", (*Repl).reset},
		"help":   {"help", "list the commands", (*Repl).help},
		"quit":   {"quit", "leave the debugger", nil},
	}
}

type Repl struct {
	runner   *chipvm.Runner
	keyboard *chipvm.InMemoryKeyboard

	last string
}

func New(runner *chipvm.Runner, keyboard *chipvm.InMemoryKeyboard) *Repl {
	return &Repl{
		runner:   runner,
		keyboard: keyboard,
	}
}

// Exec runs one command line and reports whether the session should end.
// An empty line repeats the previous command.
func (r *Repl) Exec(line string, out io.Writer) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		line = r.last
	}
	if line == "" {
		return false, nil
	}
	r.last = line

	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])
	if full, ok := aliases[name]; ok {
		name = full
	}

	cmd, ok := commands[name]
	if !ok {
		return false, errors.Wrapf(ErrUnknownCommand, "%q, try help", fields[0])
	}
	if cmd.run == nil {
		return true, nil
	}

	return false, cmd.run(r, fields[1:], out)
}

func (r *Repl) prompt() string {
	var pc uint16
	r.runner.Inspect(func(vm *chipvm.VM) {
		pc = vm.PC()
	})

	return fmt.Sprintf("%03X> ", pc)
}

// Run reads commands from the terminal until quit or EOF. History is
// kept in the user cache folder.
func (r *Repl) Run() error {
	configDirs := configdir.New("chipvm", "debug")
	cacheDir := configDirs.QueryCacheFolder()
	historyPath := ""
	if err := cacheDir.MkdirAll(); err == nil {
		historyPath = filepath.Join(cacheDir.Path, "history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt(),
		InterruptPrompt: "\n",
		HistoryFile:     historyPath,
	})
	if err != nil {
		return errors.Wrap(err, "starting readline")
	}
	defer rl.Close()

	for {
		ln := rl.Line()
		if ln.Error == readline.ErrInterrupt {
			r.runner.Stop()
			rl.SetPrompt(r.prompt())
			continue
		} else if ln.Error != nil {
			return nil
		}

		quit, err := r.Exec(ln.Line, rl.Stdout())
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
		}
		if quit {
			return nil
		}
		rl.SetPrompt(r.prompt())
	}
}

func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "0x"), "#")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil || v >= chipvm.MemorySize {
		return 0, errors.Errorf("bad address %q", s)
	}

	return uint16(v), nil
}

func parseCount(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}

	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return 0, errors.Errorf("bad count %q", args[i])
	}

	return n, nil
}

func (r *Repl) step(args []string, out io.Writer) error {
	n, err := parseCount(args, 0, 1)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		res, err := r.runner.StepOnce()
		if err != nil {
			return err
		}
		printStep(out, res)
	}

	return nil
}

func printStep(out io.Writer, res chipvm.StepResult) {
	note := ""
	switch {
	case res.Unknown != nil:
		note = "  ; unknown, skipped"
	case res.WaitingForKey:
		note = "  ; waiting for a key"
	case res.ClippedPixels > 0:
		note = fmt.Sprintf("  ; %d pixels clipped", res.ClippedPixels)
	}
	fmt.Fprintf(out, "%03X  %04X  %s%s\n", res.PC, res.Instruction.Opcode, res.Instruction, note)
}

func (r *Repl) until(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: until addr")
	}
	target, err := parseAddr(args[0])
	if err != nil {
		return err
	}

	for i := 0; i < MaxUntilSteps; i++ {
		res, err := r.runner.StepOnce()
		if err != nil {
			return err
		}

		var pc uint16
		r.runner.Inspect(func(vm *chipvm.VM) {
			pc = vm.PC()
		})
		if pc == target {
			printStep(out, res)
			fmt.Fprintf(out, "reached %03X after %d steps\n", target, i+1)
			return nil
		}
	}

	return errors.Errorf("%03X not reached after %d steps", target, MaxUntilSteps)
}

func (r *Repl) regs(args []string, out io.Writer) error {
	var state chipvm.State
	var fault error
	r.runner.Inspect(func(vm *chipvm.VM) {
		state = vm.State()
		if f := vm.Fault(); f != nil {
			fault = f
		}
	})

	fmt.Fprintf(out, "PC=%03X I=%03X SP=%X DT=%02X ST=%02X cycles=%d\n", state.PC, state.I, state.SP, state.DT, state.ST, state.Cycles)
	for row := 0; row < chipvm.RegisterCount; row += 8 {
		for x := row; x < row+8; x++ {
			fmt.Fprintf(out, "V%X=%02X ", x, state.V[x])
		}
		fmt.Fprintln(out)
	}
	if state.SP > 0 {
		fmt.Fprint(out, "stack:")
		for _, addr := range state.Stack[:state.SP] {
			fmt.Fprintf(out, " %03X", addr)
		}
		fmt.Fprintln(out)
	}
	if fault != nil {
		fmt.Fprintf(out, "halted: %v\n", fault)
	}

	return nil
}

func (r *Repl) mem(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: mem addr [len]")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := parseCount(args, 1, 64)
	if err != nil {
		return err
	}
	n = min(n, chipvm.MemorySize-int(addr))

	var data []byte
	r.runner.Inspect(func(vm *chipvm.VM) {
		data, err = vm.ReadMemory(addr, n)
	})
	if err != nil {
		return err
	}

	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		fmt.Fprintf(out, "%03X ", int(addr)+off)
		for _, b := range data[off:end] {
			fmt.Fprintf(out, " %02X", b)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func (r *Repl) dis(args []string, out io.Writer) error {
	var addr uint16
	r.runner.Inspect(func(vm *chipvm.VM) {
		addr = vm.PC()
	})
	if len(args) > 0 {
		var err error
		if addr, err = parseAddr(args[0]); err != nil {
			return err
		}
	}
	n, err := parseCount(args, 1, 8)
	if err != nil {
		return err
	}

	for i := 0; i < n && int(addr)+1 < chipvm.MemorySize; i++ {
		var raw []byte
		r.runner.Inspect(func(vm *chipvm.VM) {
			raw, err = vm.ReadMemory(addr, 2)
		})
		if err != nil {
			return err
		}

		ins := chipvm.Decode(uint16(raw[0])<<8 | uint16(raw[1]))
		fmt.Fprintf(out, "%03X  %04X  %s\n", addr, ins.Opcode, ins)
		addr += 2
	}

	return nil
}

func (r *Repl) set(args []string, out io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: set vX|i|dt|st value")
	}
	value, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(args[1]), "0x"), 16, 16)
	if err != nil {
		return errors.Errorf("bad value %q", args[1])
	}

	target := strings.ToLower(args[0])
	switch {
	case target == "i":
		r.runner.Inspect(func(vm *chipvm.VM) { vm.SetIndex(uint16(value)) })
	case target == "dt":
		r.runner.Inspect(func(vm *chipvm.VM) { vm.SetDelayTimer(byte(value)) })
	case target == "st":
		r.runner.Inspect(func(vm *chipvm.VM) { vm.SetSoundTimer(byte(value)) })
	case len(target) == 2 && target[0] == 'v':
		x, err := strconv.ParseUint(target[1:], 16, 8)
		if err != nil {
			return errors.Errorf("bad register %q", args[0])
		}
		r.runner.Inspect(func(vm *chipvm.VM) { vm.SetRegister(byte(x), byte(value)) })
	default:
		return errors.Errorf("bad register %q", args[0])
	}

	return nil
}

func (r *Repl) key(args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintf(out, "held: %016b\n", r.keyboard.State().Mask())
		return nil
	}

	k, err := strconv.ParseUint(args[0], 16, 8)
	if err != nil || k >= chipvm.KeyCount {
		return errors.Errorf("bad key %q", args[0])
	}

	if len(args) > 1 && strings.EqualFold(args[1], "up") {
		r.keyboard.Release(byte(k))
	} else {
		r.keyboard.Press(byte(k))
	}
	fmt.Fprintf(out, "held: %016b\n", r.keyboard.State().Mask())

	return nil
}

func (r *Repl) screen(args []string, out io.Writer) error {
	screen := r.runner.Screen()

	var sb strings.Builder
	for y := 0; y < chipvm.ScreenHeight; y++ {
		for x := 0; x < chipvm.ScreenWidth; x++ {
			if screen.At(x, y) != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

func (r *Repl) run(args []string, out io.Writer) error {
	if err := r.runner.Err(); err != nil {
		return errors.WithMessage(err, "reset first")
	}
	r.runner.Start()

	return nil
}

func (r *Repl) stop(args []string, out io.Writer) error {
	r.runner.Stop()

	return nil
}

func (r *Repl) speed(args []string, out io.Writer) error {
	if len(args) > 0 {
		hz, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return errors.Errorf("bad speed %q", args[0])
		}
		r.runner.SetSpeedInHz(uint(hz))
	}
	fmt.Fprintf(out, "%d Hz\n", r.runner.SpeedInHz())

	return nil
}

func (r *Repl) reset(args []string, out io.Writer) error {
	r.runner.Reset()

	return nil
}

func (r *Repl) help(args []string, out io.Writer) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(out, "  %-22s %s\n", commands[name].usage, commands[name].help)
	}

	return nil
}
