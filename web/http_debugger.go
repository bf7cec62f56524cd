package web

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/guslan/chipvm"
	"github.com/lunixbochs/struc"
)

// DebugFrame is the state pushed to /debugger clients after every cycle.
// It is packed big endian with no padding.
type DebugFrame struct {
	Opcode uint16
	PC     uint16
	V      [chipvm.RegisterCount]uint8
	I      uint16
	SP     uint8
	Stack  [chipvm.StackDepth]uint16
	DT     uint8
	ST     uint8
	Width  uint8
	Height uint8
}

// DebugFrameSize is the length of a packed DebugFrame.
const DebugFrameSize = 2 + 2 + chipvm.RegisterCount + 2 + 1 + 2*chipvm.StackDepth + 1 + 1 + 1 + 1

func NewDebugFrame(state chipvm.State, opcode uint16) DebugFrame {
	return DebugFrame{
		Opcode: opcode,
		PC:     state.PC,
		V:      state.V,
		I:      state.I,
		SP:     state.SP,
		Stack:  state.Stack,
		DT:     state.DT,
		ST:     state.ST,
		Width:  chipvm.ScreenWidth,
		Height: chipvm.ScreenHeight,
	}
}

func (f *DebugFrame) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, f, binary.BigEndian); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

type HttpDebugger struct {
	runner *chipvm.Runner
	logger *slog.Logger

	// SendEvery throttles frames to one every SendEvery cycles
	SendEvery uint

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// NewHttpDebugger creates a new debugger
// This method will pause the runner and register the hooks
func NewHttpDebugger(runner *chipvm.Runner, logger *slog.Logger) *HttpDebugger {
	deb := &HttpDebugger{
		runner:      runner,
		logger:      logger,
		SendEvery:   1,
		subscribers: make(map[chan []byte]struct{}),
	}

	runner.AddAfterCycleHook(deb.afterCycle)
	runner.AddErrorHook(deb.onError)
	runner.Stop()

	return deb
}

func (d *HttpDebugger) afterCycle(vm *chipvm.VM, res chipvm.StepResult) {
	if d.SendEvery > 1 && vm.Cycles()%d.SendEvery != 0 {
		return
	}

	d.publish(vm.State(), res.Instruction.Opcode)
}

func (d *HttpDebugger) onError(vm *chipvm.VM, err error) {
	d.logger.Warn("Debugger saw a fault", slog.Any("error", err))

	var opcode uint16
	if fault := vm.Fault(); fault != nil {
		opcode = fault.Opcode
	}
	d.publish(vm.State(), opcode)
}

// publish runs under the runner lock, so slow clients lose frames rather
// than stall the machine.
func (d *HttpDebugger) publish(state chipvm.State, opcode uint16) {
	frame := NewDebugFrame(state, opcode)
	msg, err := frame.Bytes()
	if err != nil {
		d.logger.Error("Error packing debugger frame", slog.Any("error", err))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for ch := range d.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (d *HttpDebugger) subscribe() chan []byte {
	ch := make(chan []byte, 64)

	d.mu.Lock()
	d.subscribers[ch] = struct{}{}
	d.mu.Unlock()

	return ch
}

func (d *HttpDebugger) unsubscribe(ch chan []byte) {
	d.mu.Lock()
	delete(d.subscribers, ch)
	d.mu.Unlock()
}

func (d *HttpDebugger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.logger.Info("Connecting to debugger")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("Upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ch := d.subscribe()
	defer d.unsubscribe(ch)

	var first DebugFrame
	d.runner.Inspect(func(vm *chipvm.VM) {
		first = NewDebugFrame(vm.State(), 0)
	})
	msg, err := first.Bytes()
	if err != nil {
		d.logger.Error("Error packing debugger frame", slog.Any("error", err))
		return
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	d.logger.Info("Listening for events")
	for {
		select {
		case msg := <-ch:
			if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				d.logger.Error("Error writing debugger message", slog.Any("error", err))
				return
			}

		case <-closed:
			return

		case <-r.Context().Done():
			return
		}
	}
}
