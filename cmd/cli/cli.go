/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/guslan/chipvm"
	"github.com/guslan/chipvm/terminal"
	"github.com/pkg/errors"
)

var logLevel = new(slog.LevelVar)

func init() {
	// stdout belongs to the display
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	speed := flag.Uint("speed", chipvm.DefaultSpeed, fmt.Sprintf("Speed in instructions per second, in the range [%d, %d].", chipvm.MinSpeed, chipvm.MaxSpeed))
	noTerm := flag.Bool("noterm", false, "turn off the terminal display of the emulator")
	color := flag.String("color", "green+b", "color of the lit pixels, empty for none")
	quirks := flag.String("quirks", "", "comma separated quirks: vfreset,shift,jump,index,wrap,flagfirst")
	verbose := flag.Bool("v", false, "log debug information to stderr")
	flag.Parse()

	logLevel.Set(slog.LevelWarn)
	if *verbose {
		logLevel.Set(slog.LevelDebug)
	}

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}

	q, err := chipvm.ParseQuirks(*quirks)
	if err != nil {
		log.Fatalln(err)
	}

	program, err := chipvm.LoadRomFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	if err := run(program, q, *speed, *noTerm, *color); err != nil {
		slog.Error("Emulator stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(program []byte, q chipvm.Quirks, speed uint, noTerm bool, color string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	kb, err := terminal.OpenKeyboard(func(config *terminal.KeyboardConfig) {
		config.Logger = slog.Default()
		config.OnInterrupt = cancel
	})
	if err != nil {
		return err
	}
	defer kb.Close()

	var d chipvm.Display
	if noTerm {
		d = chipvm.NewInMemoryDisplay()
	} else {
		td := terminal.NewDisplay(func(config *terminal.DisplayConfig) {
			config.Color = color
		})
		if err := td.Boot(); err != nil {
			return err
		}
		d = td
	}

	vm := chipvm.New(chipvm.WithLogger(slog.Default()), chipvm.WithQuirks(q))
	bell := terminal.NewBell(func(config *terminal.BellConfig) {
		config.Logger = slog.Default()
	})
	runner := chipvm.NewRunner(vm, d, kb, bell, func(config *chipvm.RunnerConfig) {
		config.Speed = speed
		config.Logger = slog.Default()
	})
	// there is nobody to reset a halted machine here
	runner.AddErrorHook(func(vm *chipvm.VM, err error) {
		cancel()
	})

	if err := runner.Load(program); err != nil {
		return err
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return runner.Err()
}
