package chipvm

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultSpeed uint = 500
	MaxSpeed     uint = 1000
	MinSpeed     uint = 5

	// TimerFrequency is the rate at which the delay and sound timers count down.
	TimerFrequency = 60
)

// Runner drives a VM in real time. Instructions run at SpeedInHz while
// the timers tick from their own 60 Hz clock, so game speed does not
// depend on how many instructions run per second.
//
// Every method is safe for concurrent use.
type Runner struct {
	mu sync.Mutex
	vm *VM

	Display  Display
	Keyboard Keyboard
	Buzzer   Buzzer

	speedInHz    uint
	speedChanged chan struct{}

	isPaused bool
	program  []byte
	screen   Screen
	lastErr  error

	logger *slog.Logger

	// Hooks that run before every cycle
	beforeCycleHooks []Hook
	// Hooks that run after every cycle
	afterCycleHooks []CycleHook
	// Hooks that run after an error
	errorHooks []ErrorHook
}

type RunnerConfig struct {
	Speed  uint
	Paused bool
	Logger *slog.Logger
}
type RunnerConfigCb func(config *RunnerConfig)

// NewRunner wires a VM to its collaborators. Nil collaborators are
// replaced by dummies.
func NewRunner(vm *VM, display Display, keyboard Keyboard, buzzer Buzzer, configs ...RunnerConfigCb) *Runner {
	config := &RunnerConfig{
		Speed:  DefaultSpeed,
		Paused: false,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, cb := range configs {
		cb(config)
	}

	if display == nil {
		display = NewDummyDisplay()
	}
	if keyboard == nil {
		keyboard = NewInMemoryKeyboard()
	}
	if buzzer == nil {
		buzzer = NewDummyBuzzer()
	}

	return &Runner{
		vm:           vm,
		Display:      display,
		Keyboard:     keyboard,
		Buzzer:       buzzer,
		speedInHz:    clampSpeed(config.Speed),
		speedChanged: make(chan struct{}, 1),
		isPaused:     config.Paused,
		logger:       config.Logger,
	}
}

func clampSpeed(inHz uint) uint {
	return min(max(inHz, MinSpeed), MaxSpeed)
}

func (r *Runner) SpeedInHz() uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.speedInHz
}

// SetSpeedInHz changes the instruction rate, clamped to [MinSpeed, MaxSpeed].
func (r *Runner) SetSpeedInHz(inHz uint) {
	r.mu.Lock()
	changed := r.speedInHz != clampSpeed(inHz)
	r.speedInHz = clampSpeed(inHz)
	r.mu.Unlock()

	if changed {
		select {
		case r.speedChanged <- struct{}{}:
		default:
		}
	}
}

func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return !r.isPaused
}

// Start resumes execution.
func (r *Runner) Start() {
	r.mu.Lock()
	r.isPaused = false
	r.mu.Unlock()
}

// Stop pauses execution. Timers freeze too.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.isPaused = true
	r.mu.Unlock()
}

// Load resets the machine and loads program into it. A program that does
// not fit leaves the machine as it was.
func (r *Runner) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return ErrRomTooLarge
	}

	r.mu.Lock()

	r.vm.Reset()
	if err := r.vm.LoadProgram(program); err != nil {
		r.mu.Unlock()
		return err
	}
	r.program = append([]byte(nil), program...)
	r.lastErr = nil
	screen := r.publishLocked()

	r.mu.Unlock()

	r.render(screen)
	r.logger.Info("Program loaded", slog.Int("size", len(program)))

	return nil
}

// Reset restarts the loaded program from scratch.
func (r *Runner) Reset() {
	r.mu.Lock()

	r.vm.Reset()
	// The program fitted when it was loaded, so it fits again.
	_ = r.vm.LoadProgram(r.program)
	r.lastErr = nil
	screen := r.publishLocked()

	r.mu.Unlock()

	r.render(screen)
}

// Err returns the fault that paused the runner, if any.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastErr
}

// Screen returns a copy of the last published frame.
func (r *Runner) Screen() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.screen
}

// Inspect runs fn with exclusive access to the VM.
func (r *Runner) Inspect(fn func(vm *VM)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(r.vm)
}

// Run drives the machine until ctx is done. A fault does not end the
// loop: the runner pauses, reports it through the error hooks and Err,
// and waits for Reset or Load.
func (r *Runner) Run(ctx context.Context) error {
	cpuClock := time.NewTicker(r.period())
	defer cpuClock.Stop()

	timerClock := time.NewTicker(time.Second / TimerFrequency)
	defer timerClock.Stop()

	r.logger.Info("Starting loop", slog.Uint64("speed", uint64(r.SpeedInHz())))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-r.speedChanged:
			cpuClock.Reset(r.period())

		case <-cpuClock.C:
			r.cycle(false)

		case <-timerClock.C:
			r.tick(false)
		}
	}
}

// StepOnce runs a single instruction and a single timer tick, bypassing
// the pause state. It is meant for debuggers.
func (r *Runner) StepOnce() (StepResult, error) {
	res, err := r.cycle(true)
	if err != nil {
		return res, err
	}
	r.tick(true)

	return res, nil
}

func (r *Runner) period() time.Duration {
	return time.Second / time.Duration(r.SpeedInHz())
}

func (r *Runner) cycle(force bool) (StepResult, error) {
	r.mu.Lock()

	if r.isPaused && !force {
		r.mu.Unlock()
		return StepResult{}, nil
	}

	r.vm.SetKeys(r.Keyboard.State())

	r.runBeforeCycleHooks()
	res, err := r.vm.Execute()
	if err != nil {
		if r.lastErr == nil {
			r.logger.Error("Machine fault, pausing", slog.Any("error", err))
			r.lastErr = err
			r.runErrorHooks(err)
		}
		r.isPaused = true
		r.mu.Unlock()

		return res, err
	}
	r.runAfterCycleHooks(res)

	var screen *Screen
	if r.vm.NeedsRedraw() {
		screen = r.publishLocked()
	}

	r.mu.Unlock()

	if screen != nil {
		r.render(screen)
	}

	return res, nil
}

func (r *Runner) tick(force bool) {
	r.mu.Lock()

	if r.isPaused && !force {
		r.mu.Unlock()
		return
	}

	r.vm.TickTimers()
	beep := r.vm.NeedsBeep()
	r.vm.ClearBeep()

	r.mu.Unlock()

	if beep {
		r.Buzzer.Beep()
	}
}

// publishLocked snapshots the VM screen and consumes the redraw flag.
func (r *Runner) publishLocked() *Screen {
	r.screen = r.vm.Screen()
	r.vm.ClearRedraw()

	screen := r.screen
	return &screen
}

func (r *Runner) render(screen *Screen) {
	if err := r.Display.Render(*screen); err != nil {
		r.logger.Warn("Error rendering screen", slog.Any("error", err))
	}
}
