// Package manifest builds commands from declarative YAML, JSON or TOML files.
//
// A manifest names its handlers instead of embedding code; the names are
// resolved against a registry.Registry. Every argument gets its own mapper,
// configured from the manifest (type, range, pattern, choices) and
// registered into the dispatcher's mapper registry.
//
// Handlers read manifest arguments with ArgKey[T](name), where T
// follows the argument type (string, int, int64, float64, bool,
// time.Duration), or all at once with domain.Arguments.
package manifest
