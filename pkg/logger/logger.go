// Package logger builds the zerolog logger used across the Celan server.
//
// main installs the process logger with Init once the configuration is
// loaded. Code that has no logger injected can read it back with Get.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options describes the logger main installs.
type Options struct {
	Level   string    // minimum level name, info when empty or unknown
	Pretty  bool      // console writer for local runs, JSON otherwise
	Output  io.Writer // os.Stdout when nil
	Service string    // added as "service" to every entry when set
}

var (
	mu      sync.Mutex
	current *zerolog.Logger
)

// New builds a logger from opts. It does not touch the process logger.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp().
		Caller()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}

// Init installs the process logger on its first call and returns it. Later
// calls ignore opts and return the installed logger.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if current == nil {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		zerolog.SetGlobalLevel(parseLevel(opts.Level))
		l := New(opts)
		current = &l
	}
	return *current
}

// Get returns the process logger and panics when Init has not run.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if current == nil {
		panic("logger: Get called before Init")
	}
	return *current
}

// Reset drops the process logger and the global level so tests can Init
// again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = nil
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

// parseLevel accepts zerolog's level names plus "warning", ignoring case and
// surrounding space.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
