package payload

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_Uint64DefaultsToLittleEndian(t *testing.T) {
	p, err := NewBuilder().
		Uint64(0xdeadbeef).
		Build()
	require.NoError(t, err)

	exp := []byte{0xef, 0xbe, 0xad, 0xde, 0x00, 0x00, 0x00, 0x00}
	require.Equal(t, exp, p)
}

func TestBuilder_Uint64ExplicitOrder(t *testing.T) {
	p, err := NewBuilder().
		Uint64(0xdeadbeef, binary.BigEndian).
		Build()
	require.NoError(t, err)

	exp := []byte{0x00, 0x00, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef}
	require.Equal(t, exp, p)
}

func TestBuilder_SetEndianness(t *testing.T) {
	p, err := NewBuilder().
		SetEndianness(binary.BigEndian).
		Uint64(0x1000).
		Build()
	require.NoError(t, err)

	exp := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00}
	require.Equal(t, exp, p)
}

func TestBuilder_RepeatByte(t *testing.T) {
	p, err := NewBuilder().
		RepeatByte('A', 4).
		Byte('B').
		Build()
	require.NoError(t, err)

	require.Equal(t, []byte("AAAAB"), p)
}

func TestBuilder_RepeatBytes(t *testing.T) {
	p, err := NewBuilder().
		RepeatBytes([]byte("AB"), 3).
		Build()
	require.NoError(t, err)

	require.Equal(t, []byte("ABABAB"), p)
}

func TestBuilder_NegativeRepeatCount(t *testing.T) {
	_, err := NewBuilder().
		RepeatByte('A', -1).
		Uint64(0x1000).
		Build()
	require.Error(t, err)
}

func TestBuilder_PatternGeneratorFailureSticks(t *testing.T) {
	expErr := errors.New("generator broke")

	_, err := NewBuilder().
		Pattern(failingGenerator{err: expErr}, 8).
		Uint64(0x1000).
		Build()
	require.ErrorIs(t, err, expErr)
}

func TestBuilder_Pattern(t *testing.T) {
	p, err := NewBuilder().
		Pattern(staticGenerator{data: []byte("A0B0C0D0")}, 8).
		Build()
	require.NoError(t, err)

	require.Equal(t, []byte("A0B0C0D0"), p)
}

func TestBuilder_Len(t *testing.T) {
	builder := NewBuilder().
		RepeatByte('A', 32).
		Uint64(0x1000)

	require.Equal(t, 40, builder.Len())
}

type failingGenerator struct {
	err error
}

func (o failingGenerator) Pattern(int) ([]byte, error) {
	return nil, o.err
}

type staticGenerator struct {
	data []byte
}

func (o staticGenerator) Pattern(int) ([]byte, error) {
	return o.data, nil
}
