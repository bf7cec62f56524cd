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
	"os/signal"
	"syscall"

	"github.com/guslan/chipvm"
	"github.com/guslan/chipvm/web"
)

var logLevel = new(slog.LevelVar)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	port := flag.Int("port", 9999, "The port of the server")
	speed := flag.Uint("speed", chipvm.DefaultSpeed, "Speed in instructions per second")
	debugger := flag.Bool("debugger", true, "Serve the /debugger websocket")
	static := flag.String("static", "./static", "Directory served at /, empty to disable")
	quirks := flag.String("quirks", "", "comma separated quirks: vfreset,shift,jump,index,wrap,flagfirst")
	verbose := flag.Bool("v", false, "log debug information")
	flag.Parse()

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

	vm := chipvm.New(chipvm.WithLogger(slog.Default()), chipvm.WithQuirks(q))
	server := web.NewServer(vm, func(config *web.ServerConfig) {
		config.Speed = *speed
		config.UseDebugger = *debugger
		config.StaticDir = *static
		config.Logger = slog.Default()
	})

	if err := server.LoadProgram(program); err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.Listen(ctx, *port); err != nil {
		log.Fatalln(err)
	}
}
