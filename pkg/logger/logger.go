// Package logger wraps zerolog with a request-scoped logger carried in the
// context. Fields added with the With* helpers ride along on every entry
// written against that context.
package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/env"
	"github.com/rs/zerolog"
)

const (
	formatEnv     = "LOG_FORMAT"
	formatConsole = "console"
)

type Options struct {
	ServiceName string
	Level       zerolog.Level
	// WarnStack attaches a stack trace to warnings as well as errors.
	WarnStack bool
	Output    io.Writer
}

func (o Options) writer() io.Writer {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(env.Get(formatEnv, "json"), formatConsole) {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return out
}

type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	base := zerolog.New(opts.writer()).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{base: base, warnStack: opts.WarnStack}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// ParseLevel falls back to info for blank or unknown values.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
