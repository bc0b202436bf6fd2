package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
)

// Overlay contains dynamic data to visualize on the tree.
type Overlay struct {
	// Path is the primary path of a command to highlight, e.g. ["user", "add"].
	Path []string
}

type vertex struct {
	id      string
	names   []string
	command *domain.Command
}

// GenerateMermaid produces a Mermaid flowchart of the command tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Async command: [[Subroutine]]
// - Permission-gated command: {{Hexagon}}
// - Other command: [Rectangle]
// - Branch without command: (Rounded)
// Aliases are listed after the primary name.
func GenerateMermaid(cmds []*domain.Command, overlay *Overlay) string {
	var (
		order    []string
		vertices = map[string]*vertex{}
		edges    []string
	)

	for _, cmd := range cmds {
		frags, err := domain.ParseRoute(cmd.Route)
		if err != nil {
			continue
		}
		parent := "root"
		for i, f := range frags {
			id := parent + "_" + sanitizeMermaidID(f.Primary)
			v, ok := vertices[id]
			if !ok {
				v = &vertex{id: id}
				vertices[id] = v
				order = append(order, id)
				edges = append(edges, fmt.Sprintf("    %s --> %s\n", parent, id))
			}
			v.names = mergeNames(v.names, f.Names())
			if i == len(frags)-1 {
				v.command = cmd
			}
			parent = id
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    root((\"tendril\"))\n")
	for _, id := range order {
		v := vertices[id]
		opener, closer := "(", ")"
		switch {
		case v.command == nil:
		case v.command.Async:
			opener, closer = "[[", "]]"
		case v.command.Permission != "":
			opener, closer = "{{", "}}"
		default:
			opener, closer = "[", "]"
		}

		label := v.names[0]
		if len(v.names) > 1 {
			label += " <br/> " + strings.Join(v.names[1:], ", ")
		}
		if v.command != nil && v.command.Permission != "" {
			label += " <br/> 🔒 " + v.command.Permission
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", v.id, opener, escape(label), closer))
	}
	for _, e := range edges {
		sb.WriteString(e)
	}

	// Apply Overlay Styles
	if overlay != nil && len(overlay.Path) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		id := "root"
		for i, name := range overlay.Path {
			id += "_" + sanitizeMermaidID(name)
			if _, ok := vertices[id]; !ok {
				break
			}
			class := "visited"
			if i == len(overlay.Path)-1 {
				class = "current"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", id, class))
		}
	}

	return sb.String()
}

func mergeNames(have, add []string) []string {
	for _, n := range add {
		found := false
		for _, h := range have {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			have = append(have, n)
		}
	}
	return have
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
