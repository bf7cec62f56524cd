package terminal_test

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/guslan/chipvm"
	"github.com/guslan/chipvm/terminal"
	"github.com/mgutz/ansi"
	"github.com/retroenv/retrogolib/assert"
)

func TestRender(t *testing.T) {
	var out bytes.Buffer
	d := terminal.NewDisplayWithOutput(&out)

	var screen chipvm.Screen
	screen[0] = 1
	screen[chipvm.ScreenSize-1] = 1
	assert.NoError(t, d.Render(screen))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "\x1b[1H"))
	assert.False(t, strings.Contains(text, ansi.Reset))

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, "\x1b[1H"), "\n"), "\n")
	assert.Equal(t, chipvm.ScreenHeight, len(lines))
	assert.Equal(t, "##"+strings.Repeat("  ", chipvm.ScreenWidth-1)+"|", lines[0])
	assert.Equal(t, strings.Repeat("  ", chipvm.ScreenWidth)+"|", lines[1])
	assert.Equal(t, strings.Repeat("  ", chipvm.ScreenWidth-1)+"##|", lines[chipvm.ScreenHeight-1])
}

func TestRenderWithColor(t *testing.T) {
	var out bytes.Buffer
	d := terminal.NewDisplayWithOutput(&out, func(config *terminal.DisplayConfig) {
		config.Color = "red"
		config.ForceColor = true
		config.OnChar = "@@"
	})

	var screen chipvm.Screen
	screen[1] = 1
	assert.NoError(t, d.Render(screen))

	text := out.String()
	assert.True(t, strings.Contains(text, "  "+ansi.ColorCode("red")+"@@"+ansi.Reset+"  "))
	assert.False(t, terminal.IsTerminal(&out))
}

func TestBoot(t *testing.T) {
	var out bytes.Buffer
	d := terminal.NewDisplayWithOutput(&out)

	assert.NoError(t, d.Boot())
	assert.Equal(t, "\x1b[1H\x1b[0J", out.String())
}

func TestKeyboardFromReader(t *testing.T) {
	interrupted := make(chan struct{})
	kb := terminal.NewKeyboardFromReader(strings.NewReader("wZ\x03p"), func(config *terminal.KeyboardConfig) {
		config.HoldTime = time.Hour
		config.OnInterrupt = func() { close(interrupted) }
	})

	select {
	case <-interrupted:
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt was not reported")
	}

	deadline := time.Now().Add(2 * time.Second)
	for kb.State().Mask() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	state := kb.State()
	assert.True(t, state.IsPressed(0x5))
	assert.True(t, state.IsPressed(0xA))
	assert.False(t, state.IsPressed(0x0))
}

func TestBell(t *testing.T) {
	var out bytes.Buffer
	bell := terminal.NewBellWithOutput(&out)

	bell.Beep()
	bell.Beep()
	assert.Equal(t, "\a\a", out.String())
}

func TestBellLogsWriteErrors(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bell := terminal.NewBellWithOutput(&bytes.Buffer{}, func(config *terminal.BellConfig) {
		config.Logger = logger
	})

	bell.Beep()
	assert.False(t, strings.Contains(logs.String(), "Bell write failed"))

	bell = terminal.NewBellWithOutput(failingWriter{}, func(config *terminal.BellConfig) {
		config.Logger = logger
	})
	bell.Beep()
	assert.True(t, strings.Contains(logs.String(), "Bell write failed"))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, io.ErrClosedPipe
}
