package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/guslan/chipvm"
	"github.com/pkg/errors"
)

// Server exposes a Runner over HTTP. The machine is driven through the
// control endpoints, frames are pushed over /display and keys come in
// over /keys.
type Server struct {
	*chipvm.InMemoryKeyboard
	*chipvm.DummyBuzzer

	runner   *chipvm.Runner
	debugger *HttpDebugger
	mux      *http.ServeMux
	logger   *slog.Logger

	socket  *websocket.Conn
	wsMutex sync.Mutex
}

type ServerConfig struct {
	Speed       uint
	UseDebugger bool
	// StaticDir is served at /. Empty disables it.
	StaticDir string
	Logger    *slog.Logger
}
type ServerConfigCb func(config *ServerConfig)

func NewServer(vm *chipvm.VM, configs ...ServerConfigCb) *Server {
	config := &ServerConfig{
		Speed:       chipvm.DefaultSpeed,
		UseDebugger: false,
		StaticDir:   "./static",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, cb := range configs {
		cb(config)
	}

	s := &Server{
		InMemoryKeyboard: chipvm.NewInMemoryKeyboard(),
		DummyBuzzer:      chipvm.NewDummyBuzzer(),

		mux:    http.NewServeMux(),
		logger: config.Logger,
	}

	s.runner = chipvm.NewRunner(vm, s, s.InMemoryKeyboard, s.DummyBuzzer, func(rc *chipvm.RunnerConfig) {
		rc.Speed = config.Speed
		rc.Paused = true
		rc.Logger = config.Logger
	})
	if config.UseDebugger {
		s.debugger = NewHttpDebugger(s.runner, config.Logger)
	}

	s.routes(config.StaticDir)

	return s
}

func (server *Server) routes(staticDir string) {
	if staticDir != "" {
		server.mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	server.mux.HandleFunc("/start", server.control("Starting", func(w http.ResponseWriter, r *http.Request) {
		server.runner.Start()
	}))
	server.mux.HandleFunc("/stop", server.control("Stopping", func(w http.ResponseWriter, r *http.Request) {
		server.runner.Stop()
	}))
	server.mux.HandleFunc("/reset", server.control("Stopping and resetting", func(w http.ResponseWriter, r *http.Request) {
		server.runner.Stop()
		server.runner.Reset()
	}))
	server.mux.HandleFunc("/step", server.control("Single step", func(w http.ResponseWriter, r *http.Request) {
		res, err := server.runner.StepOnce()
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		fmt.Fprintf(w, "%03X %s\n", res.PC, res.Instruction)
	}))
	server.mux.HandleFunc("/speed", server.control("Changing speed", func(w http.ResponseWriter, r *http.Request) {
		hz, err := strconv.ParseUint(r.FormValue("hz"), 10, 32)
		if err != nil {
			http.Error(w, "hz must be a positive integer", http.StatusBadRequest)
			return
		}
		server.runner.SetSpeedInHz(uint(hz))
		fmt.Fprintf(w, "%d\n", server.runner.SpeedInHz())
	}))

	server.mux.HandleFunc("/display", server.serveDisplay)
	server.mux.HandleFunc("/keys", server.serveKeys)
	if server.debugger != nil {
		server.mux.Handle("/debugger", server.debugger)
	}
}

func (server *Server) control(msg string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

		w.Header().Set("Cache-Control", "no-cache")

		server.logger.Info(msg)
		fn(w, r)
	}
}

// Handler returns the routes of the server.
func (server *Server) Handler() http.Handler {
	return server.mux
}

func (server *Server) Runner() *chipvm.Runner {
	return server.runner
}

// Speed changes the instruction rate of the machine.
func (server *Server) Speed(s uint) {
	server.runner.SetSpeedInHz(s)
}

// Listen runs the machine and serves HTTP on port until ctx is done.
// The machine starts paused; /start resumes it.
func (server *Server) Listen(ctx context.Context, port int) error {
	go func() {
		if err := server.runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			server.logger.Error("Loop stopped", slog.Any("error", err))
		}
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: server.mux,
	}
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	server.logger.Info("Listening on port", slog.Int("port", port))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serving http")
	}

	return nil
}

// LoadProgram loads the program into memory and sets the PC to the start-of-program address
func (server *Server) LoadProgram(program []byte) error {
	return server.runner.Load(program)
}
