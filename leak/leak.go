// Package leak parses memory addresses disclosed by a target program
// in its own diagnostic output.
//
// The targets print lines like "win() @ 0x401176". The address is the
// prerequisite for building a payload, so a line without one is treated
// as fatal by callers rather than recovered from.
package leak

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}

	addressExp = regexp.MustCompile(`0x[0-9a-fA-F]+`)
)

// Address is a virtual address leaked by the target process.
type Address uint64

// Uint64 returns the address as a uint64.
func (o Address) Uint64() uint64 {
	return uint64(o)
}

// HexString returns the address in the "0x..." format used by
// the targets' diagnostic output.
func (o Address) HexString() string {
	return fmt.Sprintf("0x%x", uint64(o))
}

// Pointer encodes the address using the specified byte order at
// the targets' pointer width (eight bytes).
func (o Address) Pointer(order binary.ByteOrder) []byte {
	out := make([]byte, 8)
	order.PutUint64(out, uint64(o))
	return out
}

// ParseError means a line of diagnostic output did not contain
// a usable hexadecimal address token.
type ParseError struct {
	// Line is the raw offending line, without trailing newline.
	Line []byte

	// Err is the underlying parse failure, if any. It is nil when
	// the line simply contained no address token.
	Err error
}

func (o *ParseError) Error() string {
	if o.Err != nil {
		return fmt.Sprintf("failed to parse address token in line %q - %s",
			o.Line, o.Err)
	}

	return fmt.Sprintf("no hexadecimal address found in line: %q", o.Line)
}

func (o *ParseError) Unwrap() error {
	return o.Err
}

// ParseLineOrExit calls ParseLine. It calls DefaultExitFn if an error occurs.
func ParseLineOrExit(line []byte) Address {
	addr, err := ParseLine(line)
	if err != nil {
		DefaultExitFn(err)
	}
	return addr
}

// ParseLine finds the first "0x"-prefixed hexadecimal token in line and
// parses it as an Address. Hex digits may be any mix of cases. Content
// surrounding the token is ignored.
//
// A line without such a token results in a *ParseError. An empty or
// all-whitespace line is a *ParseError, never address zero.
func ParseLine(line []byte) (Address, error) {
	match := addressExp.Find(line)
	if match == nil {
		return 0, &ParseError{Line: trimLineEnding(line)}
	}

	value, err := strconv.ParseUint(string(match[2:]), 16, 64)
	if err != nil {
		return 0, &ParseError{
			Line: trimLineEnding(line),
			Err:  err,
		}
	}

	return Address(value), nil
}

func trimLineEnding(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[0 : len(line)-1]
	}
	return line
}

// NewScanner returns a Scanner that reads addresses from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
	}
}

// Scanner reads leaked addresses from a stream of diagnostic output,
// one address per line. Addresses are returned in the order the target
// emitted them; the caller is responsible for knowing what each one is.
type Scanner struct {
	reader *bufio.Reader
}

// NextAddressOrExit calls NextAddress. It calls DefaultExitFn if
// an error occurs.
func (o *Scanner) NextAddressOrExit() Address {
	addr, err := o.NextAddress()
	if err != nil {
		DefaultExitFn(err)
	}
	return addr
}

// NextAddress blocks until the next line is available and parses
// an Address from it.
//
// It may block indefinitely if the producer side never writes;
// the intended use is a pipeline where the target eventually
// writes its leaks and closes the stream.
func (o *Scanner) NextAddress() (Address, error) {
	line, err := o.reader.ReadBytes('\n')
	if len(line) == 0 {
		if errors.Is(err, io.EOF) {
			return 0, &ParseError{Line: nil}
		}
		return 0, fmt.Errorf("failed to read address line - %w", err)
	}

	// A final line without a trailing newline still counts.
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read address line - %w", err)
	}

	return ParseLine(line)
}
