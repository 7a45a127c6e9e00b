// Package godbolt renders a payload as a browser-console script for
// Compiler Explorer.
//
// Compiler Explorer's execution pane reads the program's stdin from a
// textarea, so the same bytes piped into a local target can be fed to
// a remotely-compiled one by reconstructing them as a string value and
// driving the textarea through its native value setter. Dispatching an
// "input" event afterwards makes the site treat it as user-entered text.
package godbolt

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"gitlab.com/stephen-fox/pwngen/leak"
)

var (
	// DefaultExitFn is invoked by functions and methods ending in
	// the "OrExit" suffix when an error occurs.
	DefaultExitFn = func(err error) {
		log.Fatalln(err)
	}
)

// WriteScriptOrExit calls WriteScript. It calls DefaultExitFn if
// an error occurs.
func WriteScriptOrExit(w io.Writer, winAddr leak.Address, payload []byte) {
	err := WriteScript(w, winAddr, payload)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to write browser script - %w", err))
	}
}

// WriteScript writes a browser-console script to w that types the
// payload bytes into Compiler Explorer's execution stdin textarea.
//
// The script documents the resolved win address in a comment and
// encodes the payload as an explicit byte-value array. It is meant
// for a channel separate from the raw payload bytes - the two must
// never be concatenated.
func WriteScript(w io.Writer, winAddr leak.Address, payload []byte) error {
	out := bufio.NewWriter(w)

	fmt.Fprintf(out, `// Exploit payload for the stack-smash target
// win() address: %s
// Paste this into the browser console on Compiler Explorer

const textarea = document.querySelector('textarea.execution-stdin.form-control');

const bytes = %s; // Payload: filler + win() address
const binaryString = String.fromCharCode(...bytes);

const nativeSetter = Object.getOwnPropertyDescriptor(window.HTMLTextAreaElement.prototype, "value").set;
nativeSetter.call(textarea, binaryString);

textarea.dispatchEvent(new Event('input', { bubbles: true }));
`,
		winAddr.HexString(),
		byteArrayLiteral(payload))

	return out.Flush()
}

func byteArrayLiteral(payload []byte) string {
	str := strings.Builder{}

	str.WriteByte('[')

	for i, b := range payload {
		if i > 0 {
			str.WriteString(", ")
		}

		str.WriteString(strconv.Itoa(int(b)))
	}

	str.WriteByte(']')

	return str.String()
}
