package runtime

import (
	"strings"

	"github.com/aretw0/tendril/internal/graph"
	"github.com/aretw0/tendril/pkg/input"
)

// Syntax renders a usage line for the command line reaches, e.g.
// "user add <name> [-f|--force]". When line stops at a branch, the
// branch's children are listed instead: "user <add|remove>".
func Syntax(tree *graph.Tree, line string) string {
	m := tree.Route(input.NewReader(line))
	path := strings.Join(m.Path, " ")

	if b := m.Binding(); b != nil {
		return joinNonEmpty(path, b.Chain.Usage())
	}

	children := m.Node.Children()
	if len(children) == 0 {
		return path
	}
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name()
	}
	return joinNonEmpty(path, "<"+strings.Join(names, "|")+">")
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
