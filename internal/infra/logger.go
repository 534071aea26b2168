package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger. Development gets a console writer
// at debug level; everything else writes JSON at info. LOG_LEVEL overrides
// the level in any environment.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv, os.Getenv("LOG_LEVEL"))
}

// NewCLILogger logs to stderr so command output on stdout stays clean.
func NewCLILogger(cmd string) zerolog.Logger {
	return newLogger(os.Stderr, "cli", os.Getenv("LOG_LEVEL")).
		With().
		Str("cmd", cmd).
		Logger()
}

func newLogger(out io.Writer, appEnv, levelOverride string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch appEnv {
	case "development":
		level = zerolog.DebugLevel
	case "cli":
		level = zerolog.WarnLevel
	}
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelOverride))); err == nil && levelOverride != "" {
		level = parsed
	}

	if appEnv == "development" || appEnv == "cli" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "mediahub").
		Logger()
}

// Logger aliases zerolog.Logger so packages can accept a logger without
// importing zerolog themselves.
type Logger = zerolog.Logger
