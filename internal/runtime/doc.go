// Package runtime holds the parse and suggestion engines.
//
// Both operate on an immutable graph.Tree and a resolved chain.Chain, and
// write only to the CommandContext they are given, so they may run
// concurrently with registration.
package runtime
