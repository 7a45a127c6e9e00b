// Package payload assembles the byte sequences written into the
// targets' corrupted input buffers.
package payload

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/rs/zerolog"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// NewBuilder instantiates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Builder helps build payloads and other binary sequences
// by implementing the "builder pattern".
//
// For methods that take endianness as an optional argument,
// the default is little endian. The default endianness can
// be overridden using SetEndianness.
type Builder struct {
	buf       bytes.Buffer
	bo        binary.ByteOrder
	optLogger *zerolog.Logger
	err       error
}

// SetEndianness sets the default endianness for the methods that take
// endianness as an optional argument.
func (o *Builder) SetEndianness(order binary.ByteOrder) *Builder {
	o.bo = order

	return o
}

// SetLogger sets an optional logger that receives a hexdump of the
// payload when Build is called.
func (o *Builder) SetLogger(logger *zerolog.Logger) *Builder {
	o.optLogger = logger

	return o
}

func (o *Builder) getEndianness(optOrder ...binary.ByteOrder) binary.ByteOrder {
	switch len(optOrder) {
	case 0:
		if o.bo == nil {
			return binary.LittleEndian
		}
		return o.bo
	case 1:
		return optOrder[0]
	default:
		panic("only one binary.ByteOrder may be specified")
	}
}

// Uint64 writes an unsigned 64-bit integer to the payload.
// The endianness can be specified by the optOrder argument.
// If the optOrder argument is unspecified, the default
// endianness set by SetEndianness will be used.
func (o *Builder) Uint64(u uint64, optOrder ...binary.ByteOrder) *Builder {
	bo := o.getEndianness(optOrder...)

	b := make([]byte, 8)

	bo.PutUint64(b, u)

	o.Bytes(b)

	return o
}

// PatternGenerator abstracts pattern string generators.
type PatternGenerator interface {
	// Pattern generates a pattern string as a []byte. Each byte
	// in the slice is a human-readable character.
	Pattern(numBytes int) ([]byte, error)
}

// Pattern writes the specified number of bytes from the PatternGenerator
// to the payload.
func (o *Builder) Pattern(generator PatternGenerator, numBytes int) *Builder {
	if o.err != nil {
		return o
	}

	b, err := generator.Pattern(numBytes)
	if err != nil {
		o.err = err
		return o
	}

	o.Bytes(b)

	return o
}

// Bytes writes the specified []byte to the payload.
func (o *Builder) Bytes(b []byte) *Builder {
	if o.err != nil {
		return o
	}

	o.buf.Write(b)

	return o
}

// Byte writes the specified byte to the payload.
func (o *Builder) Byte(b byte) *Builder {
	if o.err != nil {
		return o
	}

	o.buf.WriteByte(b)

	return o
}

// RepeatByte writes the specified byte to the payload count times.
func (o *Builder) RepeatByte(b byte, count int) *Builder {
	if o.err != nil {
		return o
	}

	if count < 0 {
		o.err = fmt.Errorf("repeat count cannot be negative (got %d)", count)
		return o
	}

	o.buf.Write(bytes.Repeat([]byte{b}, count))

	return o
}

// RepeatBytes repeatedly writes the specified []byte to the payload.
func (o *Builder) RepeatBytes(b []byte, count int) *Builder {
	if o.err != nil {
		return o
	}

	if count < 0 {
		o.err = fmt.Errorf("repeat count cannot be negative (got %d)", count)
		return o
	}

	o.buf.Write(bytes.Repeat(b, count))

	return o
}

// Len returns the number of bytes written to the payload so far.
func (o *Builder) Len() int {
	return o.buf.Len()
}

// BuildOrExit calls Build. It calls DefaultExitFn if an error occurs.
func (o *Builder) BuildOrExit() []byte {
	p, err := o.Build()
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to build payload - %w", err))
	}
	return p
}

// Build returns the payload as a []byte.
func (o *Builder) Build() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}

	p := o.buf.Bytes()

	if o.optLogger != nil {
		o.optLogger.Debug().Msg("built payload:\n" + hex.Dump(p))
	}

	return p, nil
}
