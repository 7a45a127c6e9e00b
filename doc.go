// Package pwngen provides payload generators for a pair of deliberately
// vulnerable control-flow experiment programs: a stack return-address
// overwrite and a C++ virtual-call (vtable) hijack.
//
// APIs are separated into subpackages, and documented accordingly.
// The generator programs themselves live under cmd.
//
// For scripting convenience, "OrExit" functions and methods are provided.
// Any errors encountered by these functions are treated as fatal. In such
// cases, an exit handler function is invoked.
package pwngen
