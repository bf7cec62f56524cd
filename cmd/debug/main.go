/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/guslan/chipvm"
	"github.com/guslan/chipvm/repl"
)

var logLevel = new(slog.LevelVar)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	speed := flag.Uint("speed", chipvm.DefaultSpeed, "Speed in instructions per second when running freely")
	quirks := flag.String("quirks", "", "comma separated quirks: vfreset,shift,jump,index,wrap,flagfirst")
	verbose := flag.Bool("v", false, "log every unknown opcode and clipped sprite")
	flag.Parse()

	logLevel.Set(slog.LevelError)
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

	kb := chipvm.NewInMemoryKeyboard()
	vm := chipvm.New(chipvm.WithLogger(slog.Default()), chipvm.WithQuirks(q))
	runner := chipvm.NewRunner(vm, nil, kb, nil, func(config *chipvm.RunnerConfig) {
		config.Speed = *speed
		config.Paused = true
		config.Logger = slog.Default()
	})
	if err := runner.Load(program); err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	if err := repl.New(runner, kb).Run(); err != nil {
		log.Fatalln(err)
	}
}
