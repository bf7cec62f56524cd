package gui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chipvm"
	"github.com/pkg/errors"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = ToolbarHeight + 1

	MessageBarGap   = 5
	MessageBarHeigh = 30

	DebugPanelWidth = 220
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

type App struct {
	// Keys are written by the UI loop and read by the runner
	*chipvm.InMemoryKeyboard
	Runner *chipvm.Runner

	// Speed factor
	// Speed in Hz is speedFactor+1 * 5
	speedFactor float32

	// Last frame handed over by the runner
	screenMu sync.Mutex
	screen   chipvm.Screen

	// Beeps requested by the runner, played by the UI loop
	pendingBeeps atomic.Int32
	beep         rl.Sound
	hasAudio     bool

	keyboardLookupMap map[int32]byte

	// Window width and height
	winW, winH  int
	useDebugger bool

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool

	loadedProgramPath string

	// The error hook writes messages from the runner goroutine
	msgMu            sync.Mutex
	lastMessage      string
	lastMessageColor rl.Color

	logger *slog.Logger
}

type AppConfig struct {
	Speed       uint
	UseDebugger bool
	Layout      chipvm.KeyboardLayout
	Quirks      chipvm.Quirks
	Logger      *slog.Logger
}
type AppConfigCb func(config *AppConfig)

func speedFactorToHz(s float32) uint {
	return uint((s + 1) * 5)
}

func hzToSpeedFactor(hz uint) float32 {
	return float32(hz)/5 - 1
}

func NewApp(configs ...AppConfigCb) *App {
	config := &AppConfig{
		Speed:       chipvm.DefaultSpeed,
		UseDebugger: false,
		Layout:      chipvm.DefaultKeyboardLayout,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, cb := range configs {
		cb(config)
	}

	app := &App{
		InMemoryKeyboard:  chipvm.NewInMemoryKeyboard(),
		speedFactor:       hzToSpeedFactor(config.Speed),
		keyboardLookupMap: keyCodes(config.Layout),
		useDebugger:       config.UseDebugger,
		logger:            config.Logger,
	}

	vm := chipvm.New(chipvm.WithLogger(config.Logger), chipvm.WithQuirks(config.Quirks))
	app.Runner = chipvm.NewRunner(vm, app, app.InMemoryKeyboard, app, func(rc *chipvm.RunnerConfig) {
		rc.Speed = config.Speed
		rc.Paused = true
		rc.Logger = config.Logger
	})
	app.Runner.AddErrorHook(func(vm *chipvm.VM, err error) {
		app.showMessage(err.Error(), MessageError)
	})

	app.updateWindowSize()

	return app
}

// keyCodes maps raylib key codes to console keys. Raylib codes for
// letters and digits are their upper case ASCII values.
func keyCodes(layout chipvm.KeyboardLayout) map[int32]byte {
	m := make(map[int32]byte, chipvm.KeyCount)
	for r, k := range chipvm.LookupMap(layout) {
		m[keyCode(r)] = k
	}

	return m
}

// Run initializes the console and the UI loop
func (app *App) Run(autostart bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		app.logger.Info("Starting CPU loop on pause")
		if err := app.Runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			app.logger.Error("Error running CPU", slog.Any("error", err))
		}
	}()

	rl.InitWindow(int32(app.winW), int32(app.winH), "chipvm")
	defer rl.CloseWindow()

	app.initAudio()
	defer app.closeAudio()

	gui.LoadStyleDefault()
	rl.SetTargetFPS(60)

	if autostart && app.hasProgramLoaded() {
		app.Runner.Start()
	}

	for !rl.WindowShouldClose() {
		rl.BeginDrawing()

		rl.ClearBackground(rl.Black)

		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.updateCpuSpeed()
		app.playPendingBeeps()

		// Sections get rendered from bottom to the top so that overlapping widgets stay visible
		app.drawMessageBar()
		app.drawScreen()
		if app.useDebugger {
			app.drawDebugPanel()
		}
		app.drawToolbar()

		rl.EndDrawing()
	}
}

func (app *App) Load(path string) {
	program, err := chipvm.LoadRomFile(path)
	if err != nil {
		app.logger.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return
	}

	if err = app.Runner.Load(program); err != nil {
		app.logger.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return
	}

	app.loadedProgramPath = path
	app.logger.Info("Program loaded", slog.String("path", path))
	app.showMessage(fmt.Sprintf("Program '%s' loaded", app.loadedProgramPath), MessageInfo)
}

func (app *App) updateWindowSize() {
	app.winW = chipvm.ScreenWidth * ScreenPixelSize
	if app.useDebugger {
		app.winW += DebugPanelWidth
	}
	app.winH = chipvm.ScreenHeight*ScreenPixelSize + ToolbarHeight + MessageBarHeigh
	app.logger.Info("Updating window size", slog.Int("width", app.winW), slog.Int("height", app.winH))
}

func (app *App) handleFileLoad() {
	if rl.IsFileDropped() {
		files := rl.LoadDroppedFiles()
		defer rl.UnloadDroppedFiles()

		app.logger.Info("Files were dropped", "files", strings.Join(files, ","))

		if len(files) > 0 {
			app.Load(files[0])
		}
	}
}

func (app *App) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *App) handleActions() {
	if app.startBtn {
		if app.hasProgramLoaded() {
			app.Runner.Start()
			app.logger.Info("Starting the console")
		} else {
			app.showMessage("There is no program loaded", MessageError)
		}
	}
	if app.stopBtn {
		app.Runner.Stop()
		app.logger.Info("Stopping the console")
	}
	if app.restBtn {
		app.Runner.Reset()
		app.showMessage("Program reset", MessageSuccess)
		app.logger.Info("Resetting the program to the beginning")
	}
	if app.stepBtn {
		res, err := app.Runner.StepOnce()
		if err == nil {
			app.showMessage(fmt.Sprintf("%03X %s", res.PC, res.Instruction), MessageInfo)
		}
		if res.Unknown != nil {
			app.showMessage(res.Unknown.Error(), MessageWarning)
		}
		app.logger.Info("Running a single step")
	}
}

func (app *App) handleKeyPress() {
	var state chipvm.KeyState
	for code, key := range app.keyboardLookupMap {
		if rl.IsKeyDown(code) {
			state[key] = true
		}
	}
	app.Set(state)
}

func (app *App) updateCpuSpeed() {
	app.Runner.SetSpeedInHz(speedFactorToHz(app.speedFactor))
}

const (
	MinSpeed = float32(chipvm.MinSpeed/5) - 1
	MaxSpeed = float32(chipvm.MaxSpeed/5) - 1
)

func (app *App) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	status := "Stopped"
	if app.Runner.IsRunning() {
		status = "Running"
	} else if app.Runner.Err() != nil {
		status = "Halted"
	}
	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		status,
	)

	gui.Label(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, 26, 50, 20),
		fmt.Sprintf("%d Hz", speedFactorToHz(app.speedFactor)),
	)

	if gui.Button(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150+50, 26, 50, 20),
		gui.IconText(gui.ICON_ROTATE, ""),
	) {
		app.speedFactor = hzToSpeedFactor(chipvm.DefaultSpeed)
	}

	app.speedFactor = gui.Slider(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, ToolbarGap, 100, 20),
		fmt.Sprintf("%d Hz", chipvm.MinSpeed), fmt.Sprintf("%d Hz", chipvm.MaxSpeed),
		app.speedFactor,
		MinSpeed,
		MaxSpeed,
	)
}

func (app *App) showMessage(msg string, mType MessageType) {
	app.msgMu.Lock()
	defer app.msgMu.Unlock()

	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *App) drawMessageBar() {
	app.msgMu.Lock()
	msg, color := app.lastMessage, app.lastMessageColor
	app.msgMu.Unlock()

	rl.DrawRectangle(
		0,
		int32(app.winH)-MessageBarHeigh,
		int32(app.winW),
		MessageBarHeigh,
		MessageBarBgColor,
	)

	rl.DrawText(
		msg,
		MessageBarGap,
		int32(app.winH)-MessageBarHeigh+MessageBarGap,
		16,
		color,
	)
}
