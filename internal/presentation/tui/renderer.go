package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/tendril/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// A width of zero keeps glamour's default word wrap.
func NewRenderer(width int) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// HelpMarkdown lists cmds as a markdown table. usage maps a command to its
// usage line, typically Dispatcher.Syntax of the command name.
func HelpMarkdown(cmds []*domain.Command, usage func(*domain.Command) string) string {
	var sb strings.Builder
	sb.WriteString("# Commands\n\n")
	if len(cmds) == 0 {
		sb.WriteString("_No commands registered._\n")
		return sb.String()
	}

	sb.WriteString("| Usage | Aliases | Description |\n")
	sb.WriteString("|---|---|---|\n")
	for _, c := range cmds {
		desc := c.Description
		if c.Permission != "" {
			desc = strings.TrimSpace(desc + " (requires `" + c.Permission + "`)")
		}
		if c.Async {
			desc = strings.TrimSpace(desc + " _async_")
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", usage(c), aliases(c), cell(desc))
	}
	return sb.String()
}

func aliases(c *domain.Command) string {
	frags, err := domain.ParseRoute(c.Route)
	if err != nil {
		return ""
	}
	var out []string
	for _, f := range frags {
		out = append(out, f.Aliases...)
	}
	return strings.Join(out, ", ")
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
