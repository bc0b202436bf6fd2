// Package input tokenizes command lines.
//
// A Reader walks an immutable line with a cursor; the parse engine and the
// mappers pull words, quoted strings or the rest of the line from it.
// Sanitize guards adapters that accept lines from untrusted callers.
package input
