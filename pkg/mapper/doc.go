/*
Package mapper converts command line text into typed argument values.

A Mapper reads from an input.Reader and produces a value of its type. Mappers
live in a Registry keyed by domain.Key; arguments reference them through their
mapper key, and the dispatcher resolves each one once, when the command is
registered.

Built-in mappers cover words, quoted and greedy strings, numbers, booleans,
durations and enumerations. Range, Regex and Lower wrap another mapper to
restrict or normalize its output.
*/
package mapper
