// Package pattern generates probe patterns for locating overwrite
// offsets in a corrupted memory region.
//
// The layout constants used by the payload builders were derived by
// crashing the targets with such a pattern and finding the offset of
// the faulting value within it.
package pattern

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
)

const defaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const defaultTokenLen = 4

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// DeBruijn generates pattern strings using a de Bruijn sequence.
// Every TokenLen-byte window of the sequence is unique, which makes
// any aligned or unaligned fragment of it locatable.
//
// The zero value is usable.
type DeBruijn struct {
	// Alphabet optionally overrides the default character set.
	Alphabet string

	// TokenLen optionally overrides the unique window length.
	// It defaults to four bytes.
	TokenLen int
}

func (o DeBruijn) alphabet() string {
	if o.Alphabet == "" {
		return defaultAlphabet
	}
	return o.Alphabet
}

func (o DeBruijn) tokenLen() int {
	if o.TokenLen == 0 {
		return defaultTokenLen
	}
	return o.TokenLen
}

// PatternOrExit calls Pattern. It calls DefaultExitFn if an error occurs.
func (o DeBruijn) PatternOrExit(numBytes int) []byte {
	p, err := o.Pattern(numBytes)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to generate pattern of %d bytes - %w",
			numBytes, err))
	}
	return p
}

// Pattern generates a pattern string of numBytes bytes. Each byte
// in the result is a human-readable character.
func (o DeBruijn) Pattern(numBytes int) ([]byte, error) {
	if numBytes <= 0 {
		return nil, fmt.Errorf("number of bytes must be greater than zero")
	}

	alphabet := o.alphabet()
	if len(alphabet) < 2 {
		return nil, fmt.Errorf("alphabet must contain at least two characters")
	}

	n := o.tokenLen()
	if n <= 0 {
		return nil, fmt.Errorf("token length must be greater than zero")
	}

	period := 1
	for i := 0; i < n; i++ {
		period *= len(alphabet)
	}
	if numBytes > period {
		return nil, fmt.Errorf("pattern of %d bytes exceeds the sequence period of %d - "+
			"use a longer alphabet or token length", numBytes, period)
	}

	k := len(alphabet)
	a := make([]byte, k*n)
	seq := make([]byte, 0, numBytes)

	// Standard recursive construction of the de Bruijn sequence
	// B(k, n), cut short once enough bytes are collected.
	var db func(t, p int)
	db = func(t, p int) {
		if len(seq) >= numBytes {
			return
		}

		if t > n {
			if n%p == 0 {
				seq = append(seq, a[1:p+1]...)
			}
			return
		}

		a[t] = a[t-p]
		db(t+1, p)

		for j := int(a[t-p]) + 1; j < k; j++ {
			a[t] = byte(j)
			db(t+1, t)
		}
	}
	db(1, 1)

	out := make([]byte, numBytes)
	for i := 0; i < numBytes; i++ {
		out[i] = alphabet[seq[i]]
	}

	return out, nil
}

// FindUint64 locates a faulting-register value within a pattern of
// patternLen bytes, returning the fragment's offset from the start of
// the pattern.
//
// The value is reinterpreted as the little-endian bytes the target
// loaded from the pattern. High-order zero bytes of the register value
// are ignored, since the pattern never contains NUL bytes.
func (o DeBruijn) FindUint64(value uint64, patternLen int) (int, error) {
	p, err := o.Pattern(patternLen)
	if err != nil {
		return 0, err
	}

	fragment := make([]byte, 8)
	binary.LittleEndian.PutUint64(fragment, value)

	for len(fragment) > 0 && fragment[len(fragment)-1] == 0 {
		fragment = fragment[0 : len(fragment)-1]
	}

	if len(fragment) == 0 {
		return 0, fmt.Errorf("value 0x%x has no non-zero bytes to search for", value)
	}

	index := bytes.Index(p, fragment)
	if index < 0 {
		return 0, fmt.Errorf("failed to find fragment 0x%x in a %d byte pattern",
			fragment, patternLen)
	}

	return index, nil
}
