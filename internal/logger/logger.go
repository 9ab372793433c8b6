package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel  = "RDISK_LOG_LEVEL"
	EnvLogFormat = "RDISK_LOG_FORMAT"
)

var stderr = struct{ io.Writer }{os.Stderr}

type tTesting interface {
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
	Cleanup(f func())
}

// Configure sets the global logger. Environment variables override the
// level and format passed in from the config file.
func Configure(level, format string) zerolog.Logger {
	if v := os.Getenv(EnvLogLevel); v != "" {
		level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		format = v
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(level))

	var w io.Writer
	if strings.EqualFold(format, "json") {
		w = stderr
	} else {
		w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = stderr
			cw.NoColor = !isatty.IsTerminal(os.Stderr.Fd())
			cw.TimeFormat = "15:04:05.000"
		})
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

// ConfigureTestLogging ties log output to the running test
func ConfigureTestLogging(t tTesting) zerolog.Logger {
	old := log.Logger
	l := zerolog.New(zerolog.NewConsoleWriter(zerolog.ConsoleTestWriter(t))).With().Timestamp().Logger()
	log.Logger = l
	t.Cleanup(func() {
		log.Logger = old
	})
	return l
}

func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
