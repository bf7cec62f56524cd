package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/guslan/chipvm"
	"github.com/guslan/chipvm/gui"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
}

func main() {
	autostart := flag.Bool("start", false, "Starts the console automatically if there is a program loaded (defaults = false).")
	debug := flag.Bool("debug", false, "Show the registers next to the screen (defaults = false).")
	initialSpeed := flag.Uint("speed", chipvm.DefaultSpeed, fmt.Sprintf("The starting speed of the CPU in Hz. It has to be in the range [%d, %d] (defaults = %d).", chipvm.MinSpeed, chipvm.MaxSpeed, chipvm.DefaultSpeed))
	quirks := flag.String("quirks", "", "Comma separated quirks: vfreset,shift,jump,index,wrap,flagfirst.")

	flag.Parse()

	q, err := chipvm.ParseQuirks(*quirks)
	if err != nil {
		log.Fatalln(err)
	}

	app := gui.NewApp(func(config *gui.AppConfig) {
		config.Speed = max(*initialSpeed, chipvm.MinSpeed)
		config.UseDebugger = *debug
		config.Quirks = q
		config.Logger = slog.Default()
	})

	if flag.NArg() > 0 {
		app.Load(flag.Arg(0))
	}

	app.Run(*autostart)
}
