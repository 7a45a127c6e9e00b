// Package emit writes payload bytes to their consumer.
//
// The canonical consumer is the vulnerable target's stdin, fed through
// a pipe. The target often exits (crashes, or redirects into its win
// function) before draining the pipe, so a consumer-closed pipe is the
// success signal here, not a fault. Package emit encodes that policy
// explicitly so genuine I/O failures are still surfaced.
//
// Programs writing the payload to their own stdout must ignore SIGPIPE
// (signal.Ignore(syscall.SIGPIPE)): the Go runtime otherwise turns an
// EPIPE on file descriptors 1 and 2 into a fatal signal before Payload
// can classify it.
package emit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/rs/zerolog"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// IsPipeClosed reports whether err means the downstream consumer
// closed its end of the channel before all bytes were written.
//
// Callers should treat such errors as a benign, expected outcome
// when the consumer is a process that may exit mid-read. Any other
// write error means the output channel genuinely failed.
func IsPipeClosed(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}

// Config configures the Payload function.
type Config struct {
	// Out is the channel the payload bytes are written to
	// (os.Stdout in the intended piping use).
	Out io.Writer

	// OptLogger optionally receives write diagnostics.
	OptLogger *zerolog.Logger
}

// PayloadOrExit calls Payload. It calls DefaultExitFn if an error occurs.
func PayloadOrExit(config Config, payload []byte) {
	err := Payload(config, payload)
	if err != nil {
		DefaultExitFn(err)
	}
}

// Payload writes the payload's raw bytes, in order, to config.Out and
// flushes them.
//
// If the consumer closed its end of the channel part way through
// (see IsPipeClosed), Payload returns nil: the bytes written so far
// are the intended effect. All other write errors are returned.
func Payload(config Config, payload []byte) error {
	if config.Out == nil {
		return fmt.Errorf("output writer cannot be nil")
	}

	out := bufio.NewWriter(config.Out)

	_, err := out.Write(payload)
	if err == nil {
		err = out.Flush()
	}

	if err != nil {
		if IsPipeClosed(err) {
			if config.OptLogger != nil {
				config.OptLogger.Debug().
					Msg("payload consumer closed the pipe early - treating as success")
			}
			return nil
		}

		return fmt.Errorf("failed to write payload - %w", err)
	}

	if config.OptLogger != nil {
		config.OptLogger.Debug().
			Int("bytes", len(payload)).
			Msg("payload written")
	}

	return nil
}
