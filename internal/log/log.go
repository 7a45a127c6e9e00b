// Package log holds the process-wide logger for the generator programs.
package log

import (
	"os"

	"github.com/rs/zerolog"
)

// Log writes to stderr so that diagnostics never mix with payload
// bytes on stdout.
var Log zerolog.Logger

func SetLevelDebug() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func SetLevelInfo() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	Log = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
