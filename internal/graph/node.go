package graph

import (
	"slices"
	"strings"

	"github.com/aretw0/tendril/internal/chain"
	"github.com/aretw0/tendril/pkg/domain"
)

// Binding is the terminal payload of a node: a command and its resolved
// argument chain, always published together.
type Binding struct {
	Command *domain.Command
	Chain   *chain.Chain
}

// Node is an immutable trie node. Writers never modify a published node;
// they clone the path they touch.
type Node struct {
	name     string
	aliases  []string
	children []*Node
	binding  *Binding
}

// Name returns the primary name ("" for the root).
func (n *Node) Name() string { return n.name }

// Aliases returns the alternative names of the node.
func (n *Node) Aliases() []string { return slices.Clone(n.aliases) }

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Binding returns the terminal payload, or nil for a branch.
func (n *Node) Binding() *Binding { return n.binding }

// IsRoot reports whether n is the unnamed root.
func (n *Node) IsRoot() bool { return n.name == "" }

// Names returns the primary name followed by the aliases.
func (n *Node) Names() []string {
	return append([]string{n.name}, n.aliases...)
}

// ChildNames lists every child's primary name and aliases, children in
// insertion order, primary first.
func (n *Node) ChildNames() []string {
	var out []string
	for _, c := range n.children {
		out = append(out, c.Names()...)
	}
	return out
}

// answersTo reports whether name matches a primary or alias, ignoring case.
func (n *Node) answersTo(name string) bool {
	for _, candidate := range n.Names() {
		if strings.EqualFold(candidate, name) {
			return true
		}
	}
	return false
}

// match resolves token against the children: exact primary first, then a
// case-insensitive comparison with every name. ambiguous is true when the
// fallback matches more than one child.
func (n *Node) match(token string) (child *Node, ambiguous bool) {
	for _, c := range n.children {
		if c.name == token {
			return c, false
		}
	}
	for _, c := range n.children {
		if !c.answersTo(token) {
			continue
		}
		if child != nil {
			return nil, true
		}
		child = c
	}
	return child, false
}

func (n *Node) indexOf(primary string) int {
	return slices.IndexFunc(n.children, func(c *Node) bool { return c.name == primary })
}

func (n *Node) clone() *Node {
	c := *n
	c.aliases = slices.Clone(n.aliases)
	c.children = slices.Clone(n.children)
	return &c
}

// Walk visits n and its descendants depth first, passing the primary path.
func (n *Node) Walk(fn func(path []string, node *Node) bool) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, *Node) bool) bool {
	if !fn(path, n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(append(slices.Clone(path), c.name), fn) {
			return false
		}
	}
	return true
}
