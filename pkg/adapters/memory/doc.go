// Package memory provides in-process adapters, mainly for tests and single-binary setups.
package memory
