package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/pkg/domain"
)

func TestHelpMarkdown(t *testing.T) {
	cmds := []*domain.Command{
		{Route: "user add|create", Description: "Create a user", Permission: "user.add"},
		{Route: "sync", Description: "a|b", Async: true},
	}
	md := HelpMarkdown(cmds, func(c *domain.Command) string { return c.Name() + " <x>" })

	assert.Contains(t, md, "| `user add <x>` | create | Create a user (requires `user.add`) |")
	assert.Contains(t, md, "| `sync <x>` |  | a\\|b _async_ |")
	assert.Contains(t, HelpMarkdown(nil, nil), "No commands registered")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(60)
	require.NoError(t, err)
	out, err := render(HelpMarkdown([]*domain.Command{{Route: "ping", Description: "Check"}}, func(c *domain.Command) string { return c.Name() }))
	require.NoError(t, err)
	assert.Contains(t, out, "ping")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
}
