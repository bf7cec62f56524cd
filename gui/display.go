package gui

import (
	"fmt"
	"unicode"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chipvm"
)

var ScreenBgColor = rl.Gold
var ScreenPixelColor = rl.Yellow
var DebugPanelTextColor = rl.RayWhite

func keyCode(r rune) int32 {
	return int32(unicode.ToUpper(r))
}

// Render implements chipvm.Display. It runs on the runner goroutine, so
// the frame is only stored here and drawn by the UI loop.
func (app *App) Render(screen chipvm.Screen) error {
	app.screenMu.Lock()
	app.screen = screen
	app.screenMu.Unlock()

	return nil
}

func (app *App) drawScreen() {
	app.screenMu.Lock()
	screen := app.screen
	app.screenMu.Unlock()

	for y := 0; y < chipvm.ScreenHeight; y++ {
		for x := 0; x < chipvm.ScreenWidth; x++ {
			color := ScreenBgColor
			if screen.At(x, y) > 0 {
				color = ScreenPixelColor
			}

			rl.DrawRectangle(
				ScreenPositionX+ScreenPixelSize*int32(x),
				ScreenPositionY+ScreenPixelSize*int32(y),
				ScreenPixelSize,
				ScreenPixelSize,
				color)
		}
	}
}

func (app *App) drawDebugPanel() {
	var state chipvm.State
	var next chipvm.Instruction
	app.Runner.Inspect(func(vm *chipvm.VM) {
		state = vm.State()
		if raw, err := vm.ReadMemory(state.PC, 2); err == nil {
			next = chipvm.Decode(uint16(raw[0])<<8 | uint16(raw[1]))
		}
	})

	x := int32(chipvm.ScreenWidth*ScreenPixelSize + MessageBarGap)
	y := int32(ScreenPositionY + MessageBarGap)
	line := func(format string, args ...any) {
		rl.DrawText(fmt.Sprintf(format, args...), x, y, 16, DebugPanelTextColor)
		y += 18
	}

	line("PC %03X  %s", state.PC, next)
	line("I  %03X  SP %d", state.I, state.SP)
	line("DT %02X   ST %02X", state.DT, state.ST)
	for r := 0; r < chipvm.RegisterCount; r += 2 {
		line("V%X %02X   V%X %02X", r, state.V[r], r+1, state.V[r+1])
	}
	for i := 0; i < int(state.SP); i++ {
		line("S%X %03X", i, state.Stack[i])
	}
	line("cycles %d", state.Cycles)
}
