package terminal

import (
	"io"
	"log/slog"
	"os"
)

// Bell is a buzzer that rings the terminal bell.
type Bell struct {
	out    io.Writer
	logger *slog.Logger
}

type BellConfig struct {
	Logger *slog.Logger
}

type BellConfigCb func(config *BellConfig)

func NewBell(configs ...BellConfigCb) *Bell {
	return NewBellWithOutput(os.Stdout, configs...)
}

func NewBellWithOutput(out io.Writer, configs ...BellConfigCb) *Bell {
	config := &BellConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, cb := range configs {
		cb(config)
	}

	return &Bell{out: out, logger: config.Logger}
}

// Beep implements chipvm.Buzzer.
func (b *Bell) Beep() {
	if _, err := b.out.Write([]byte{'\a'}); err != nil {
		b.logger.Debug("Bell write failed", slog.Any("error", err))
	}
}
