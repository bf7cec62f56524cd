package chipvm

// Hook runs on the loop goroutine with the runner lock held, so it may
// read the VM freely but must not call back into the Runner.
type Hook func(vm *VM)

// CycleHook receives the result of the instruction that just ran.
type CycleHook func(vm *VM, res StepResult)

// ErrorHook receives the fault that halted the machine.
type ErrorHook func(vm *VM, err error)

// AddBeforeCycleHook adds a hook that will run before every cycle of the CPU
func (r *Runner) AddBeforeCycleHook(h Hook) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.beforeCycleHooks = append(r.beforeCycleHooks, h)

	return len(r.beforeCycleHooks)
}

// AddAfterCycleHook adds a hook that will run after every cycle of the CPU
func (r *Runner) AddAfterCycleHook(h CycleHook) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.afterCycleHooks = append(r.afterCycleHooks, h)

	return len(r.afterCycleHooks)
}

// AddErrorHook adds a hook that will run when the machine faults
func (r *Runner) AddErrorHook(h ErrorHook) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errorHooks = append(r.errorHooks, h)

	return len(r.errorHooks)
}

func (r *Runner) runBeforeCycleHooks() {
	for _, h := range r.beforeCycleHooks {
		h(r.vm)
	}
}

func (r *Runner) runAfterCycleHooks(res StepResult) {
	for _, h := range r.afterCycleHooks {
		h(r.vm, res)
	}
}

func (r *Runner) runErrorHooks(err error) {
	for _, h := range r.errorHooks {
		h(r.vm, err)
	}
}
