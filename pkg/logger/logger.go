// Package logger holds the process logger. main calls Init with the values
// from config; packages below it take a zerolog.Logger or ask for one with
// Component. Output goes to stderr unless told otherwise, keeping stdout for
// the menus.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level  string            // LOG_LEVEL; see parseLevel
	Pretty bool              // ConsoleWriter instead of JSON lines
	Output io.Writer         // nil means os.Stderr
	Fields map[string]string // stamped on every entry, e.g. env
}

var (
	instance    zerolog.Logger
	once        sync.Once
	initialized bool
)

// Init builds the logger on first use and returns it; later calls return
// the same logger and ignore opts.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
		}

		lvl := parseLevel(opts.Level)
		zerolog.SetGlobalLevel(lvl)

		ctx := zerolog.New(out).Level(lvl).With().Timestamp()
		for k, v := range opts.Fields {
			ctx = ctx.Str(k, v)
		}
		instance = ctx.Logger()
		initialized = true
	})
	return instance
}

// Get panics before Init so a missing setup in main shows up at once.
func Get() zerolog.Logger {
	if !initialized {
		panic("logger: Get() called before Init()")
	}
	return instance
}

// Component tags the logger with the subsystem writing the entry.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset forgets the logger and puts the zerolog global level back to trace,
// so the next Init starts clean. Used between tests.
func Reset() {
	once = sync.Once{}
	instance = zerolog.Logger{}
	initialized = false
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

// parseLevel is case-insensitive; "off" silences everything and anything
// unknown means info.
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
