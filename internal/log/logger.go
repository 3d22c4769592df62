package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const production = "production"

// New builds the process logger. Production writes JSON lines at info level;
// every other environment gets the human-readable console writer at debug.
func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

func NewWithWriter(environment string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if environment != production {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(out).With().
		Timestamp().
		Str("service", "blockon-api").
		Str("env", environment).
		Logger()

	if environment != production {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}
