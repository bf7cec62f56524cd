// Package terminal renders the machine on an ANSI terminal and reads the
// keypad from it.
package terminal

import (
	"io"
	"os"
	"strings"

	"github.com/guslan/chipvm"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

const ESC = 0x1B

type Display struct {
	terminal        io.Writer
	OnChar, OffChar string

	// pixel colors, empty when the output is not a terminal
	onColor, borderColor string
}

type DisplayConfig struct {
	OnChar  string
	OffChar string
	// Color is an mgutz/ansi style string such as "green+b". Ignored when
	// the output is not a terminal, unless ForceColor is set.
	Color string
	// ForceColor colors the output even when it is not a terminal.
	ForceColor bool
}
type DisplayConfigCb func(config *DisplayConfig)

func NewDisplay(configs ...DisplayConfigCb) *Display {
	return NewDisplayWithOutput(os.Stdout, configs...)
}

func NewDisplayWithOutput(out io.Writer, configs ...DisplayConfigCb) *Display {
	config := &DisplayConfig{
		OnChar:  "##",
		OffChar: "  ",
		Color:   "green+b",
	}
	for _, cb := range configs {
		cb(config)
	}

	d := &Display{
		terminal: out,
		OnChar:   config.OnChar,
		OffChar:  config.OffChar,
	}
	if config.Color != "" && (config.ForceColor || IsTerminal(out)) {
		d.onColor = ansi.ColorCode(config.Color)
		d.borderColor = ansi.ColorCode("black+h")
	}

	return d
}

// IsTerminal reports whether out is an interactive terminal.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Boot clears the terminal.
func (disp *Display) Boot() error {
	_, err := disp.terminal.Write([]byte{
		// Move cursor do start
		ESC, '[', '1', 'H',
		// clear the terminal
		ESC, '[', '0', 'J',
	})

	return err
}

// Render implements chipvm.Display.
func (disp *Display) Render(screen chipvm.Screen) error {
	var sb strings.Builder
	sb.Grow(chipvm.ScreenSize*len(disp.OnChar) + chipvm.ScreenHeight*16 + 64)

	sb.Write([]byte{ESC, '[', '1', 'H'})
	for y := 0; y < chipvm.ScreenHeight; y++ {
		lit := false
		for x := 0; x < chipvm.ScreenWidth; x++ {
			on := screen.At(x, y) != 0
			if on != lit && disp.onColor != "" {
				if on {
					sb.WriteString(disp.onColor)
				} else {
					sb.WriteString(ansi.Reset)
				}
			}
			lit = on

			if on {
				sb.WriteString(disp.OnChar)
			} else {
				sb.WriteString(disp.OffChar)
			}
		}

		if disp.onColor != "" {
			if lit {
				sb.WriteString(ansi.Reset)
			}
			sb.WriteString(disp.borderColor)
			sb.WriteByte('|')
			sb.WriteString(ansi.Reset)
		} else {
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(disp.terminal, sb.String())
	return err
}
