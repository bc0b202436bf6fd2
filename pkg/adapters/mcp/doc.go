// Package mcp exposes a dispatcher to Model Context Protocol clients.
package mcp
