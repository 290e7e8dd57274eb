// Package logger configures the global zerolog logger for devdrive.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Format selects how log lines are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options controls logger configuration.
type Options struct {
	Level  string
	Format Format
	Out    io.Writer
}

func init() { //nolint:gochecknoinits // zerolog is configured globally
	configureFromEnv(nil)
}

// configureFromEnv applies LOG_LEVEL and LOG_TYPE, warning about a level it
// cannot parse.
func configureFromEnv(out io.Writer) {
	level := os.Getenv("LOG_LEVEL")
	if err := Configure(Options{Level: level, Format: Format(os.Getenv("LOG_TYPE")), Out: out}); err != nil {
		log.Warn().Err(err).Str("LOG_LEVEL", level).Msg("falling back to info logging")
	}
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Configure installs the global logger. Logs go to stderr by default so that
// stdout stays free for exported variables.
func Configure(opts Options) error {
	level, err := ParseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if !strings.EqualFold(string(opts.Format), string(FormatJSON)) {
		w = consoleWriter(out)
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return err
}

func consoleWriter(out io.Writer, options ...func(w *zerolog.ConsoleWriter)) zerolog.ConsoleWriter {
	defaults := func(w *zerolog.ConsoleWriter) {
		w.Out = out
		w.NoColor = !isTerminal(out)
		w.TimeFormat = "15:04:05.000"
	}
	return zerolog.NewConsoleWriter(append([]func(w *zerolog.ConsoleWriter){defaults}, options...)...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type tTesting interface {
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
	Cleanup(f func())
}

// ConfigureTestLogging routes log output to the test's log for its duration.
func ConfigureTestLogging(t tTesting) {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	oldLevel := zerolog.GlobalLevel()

	log.Logger = zerolog.New(zerolog.NewConsoleWriter(zerolog.ConsoleTestWriter(t))).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
		zerolog.SetGlobalLevel(oldLevel)
	})
}
