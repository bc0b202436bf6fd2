package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agnivade/levenshtein"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

// ErrNotFound is returned by Delete when the command is not registered.
var ErrNotFound = errors.New("command not registered")

// MaxSuggestDistance bounds the edit distance of the "did you mean" hint.
const MaxSuggestDistance = 3

// Graph is the command trie. Reads go through Snapshot and never block;
// Insert and Delete serialize on a mutex and publish a new root atomically.
type Graph struct {
	mu   sync.Mutex
	root atomic.Pointer[Node]
}

// New returns an empty graph.
func New() *Graph {
	g := &Graph{}
	g.root.Store(&Node{})
	return g
}

// Snapshot returns the current published tree.
func (g *Graph) Snapshot() *Tree {
	return &Tree{root: g.root.Load()}
}

// Validate checks that b could be inserted under its route right now,
// without publishing anything.
func (g *Graph) Validate(b *Binding) error {
	frags, err := domain.ParseRoute(b.Command.Route)
	if err != nil {
		return err
	}
	_, err = insert(g.root.Load(), frags, b, b.Command.Route)
	return err
}

// Insert publishes b under its route.
func (g *Graph) Insert(b *Binding) error {
	frags, err := domain.ParseRoute(b.Command.Route)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	next, err := insert(g.root.Load(), frags, b, b.Command.Route)
	if err != nil {
		return err
	}
	g.root.Store(next)
	return nil
}

// Delete removes cmd, identified by pointer, prunes branches left empty and
// drops aliases no remaining command declares.
func (g *Graph) Delete(cmd *domain.Command) error {
	frags, err := domain.ParseRoute(cmd.Route)
	if err != nil {
		return err
	}
	path := make([]string, len(frags))
	for i, f := range frags {
		path[i] = f.Primary
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	next, err := remove(g.root.Load(), path, cmd, -1)
	if err != nil {
		return err
	}
	if next == nil {
		next = &Node{}
	}
	g.root.Store(next)
	return nil
}

func insert(n *Node, frags []domain.Fragment, b *Binding, route string) (*Node, error) {
	c := n.clone()
	if len(frags) == 0 {
		if c.binding != nil {
			return nil, &domain.RoutingError{Reason: domain.AmbiguousRoute, Token: route}
		}
		c.binding = b
		return c, nil
	}

	f := frags[0]
	idx := c.indexOf(f.Primary)

	var child *Node
	if idx >= 0 {
		child = c.children[idx].clone()
		for _, alias := range f.Aliases {
			if child.answersTo(alias) {
				continue
			}
			if err := checkSibling(c, alias, idx); err != nil {
				return nil, err
			}
			child.aliases = append(child.aliases, alias)
		}
	} else {
		child = &Node{name: f.Primary}
		for _, name := range f.Names() {
			if err := checkSibling(c, name, -1); err != nil {
				return nil, err
			}
			if name != f.Primary && !child.answersTo(name) {
				child.aliases = append(child.aliases, name)
			}
		}
		c.children = append(c.children, child)
		idx = len(c.children) - 1
	}

	next, err := insert(child, frags[1:], b, route)
	if err != nil {
		return nil, err
	}
	c.children[idx] = next
	return c, nil
}

// checkSibling fails when name collides with any child of parent other than
// the one at skip.
func checkSibling(parent *Node, name string, skip int) error {
	for i, sib := range parent.children {
		if i != skip && sib.answersTo(name) {
			return &domain.RoutingError{Reason: domain.AmbiguousRoute, Token: name}
		}
	}
	return nil
}

// remove returns the new version of n, or nil when n became empty and
// should be pruned from its parent. depth is the index of n's fragment in
// the routes below it (-1 for the root).
func remove(n *Node, path []string, cmd *domain.Command, depth int) (*Node, error) {
	if len(path) == 0 {
		if n.binding == nil || n.binding.Command != cmd {
			return nil, ErrNotFound
		}
		c := n.clone()
		c.binding = nil
		return dropStaleAliases(prune(c), depth), nil
	}

	idx := n.indexOf(path[0])
	if idx < 0 {
		return nil, ErrNotFound
	}
	child, err := remove(n.children[idx], path[1:], cmd, depth+1)
	if err != nil {
		return nil, err
	}

	c := n.clone()
	if child == nil {
		c.children = slices.Delete(c.children, idx, idx+1)
	} else {
		c.children[idx] = child
	}
	return dropStaleAliases(prune(c), depth), nil
}

// dropStaleAliases keeps only the aliases that a command still registered
// under n declares for n's fragment. n must be an unpublished clone.
func dropStaleAliases(n *Node, depth int) *Node {
	if n == nil || n.IsRoot() || len(n.aliases) == 0 {
		return n
	}
	declared := make(map[string]bool)
	n.Walk(func(_ []string, sub *Node) bool {
		if sub.binding == nil {
			return true
		}
		frags, err := domain.ParseRoute(sub.binding.Command.Route)
		if err == nil && depth < len(frags) {
			for _, name := range frags[depth].Names() {
				declared[name] = true
			}
		}
		return true
	})
	n.aliases = slices.DeleteFunc(n.aliases, func(alias string) bool { return !declared[alias] })
	return n
}

func prune(n *Node) *Node {
	if !n.IsRoot() && n.binding == nil && len(n.children) == 0 {
		return nil
	}
	return n
}

// Tree is an immutable view of the graph at one point in time.
type Tree struct {
	root *Node
}

// Root returns the unnamed root node.
func (t *Tree) Root() *Node { return t.root }

// Match is the outcome of routing a line.
type Match struct {
	// Node is the last matched node; the root when nothing matched.
	Node *Node
	// Path holds the primary names of the matched nodes.
	Path []string
	// Err is nil when Node is terminal and routing was unambiguous.
	Err *domain.RoutingError
}

// Binding returns the matched command binding, or nil on failure.
func (m Match) Binding() *Binding {
	if m.Err != nil {
		return nil
	}
	return m.Node.binding
}

// Route consumes route tokens from r while the current node has a matching
// child. On success the reader is left at the first argument token.
func (t *Tree) Route(r *input.Reader) Match {
	cur := t.root
	var unmatched string
	var path []string

	for {
		tok, err := r.PeekWord()
		if err != nil {
			break
		}
		child, ambiguous := cur.match(tok)
		if ambiguous {
			return Match{Node: cur, Path: path, Err: &domain.RoutingError{Reason: domain.AmbiguousRoute, Token: tok}}
		}
		if child == nil {
			unmatched = tok
			break
		}
		_, _ = r.ReadWord()
		cur = child
		path = append(path, child.name)
	}

	if cur.binding != nil {
		return Match{Node: cur, Path: path}
	}
	if cur.IsRoot() && unmatched != "" {
		return Match{Node: cur, Path: path, Err: &domain.RoutingError{
			Reason:  domain.NoSuchCommand,
			Token:   unmatched,
			Closest: closest(cur, unmatched),
		}}
	}
	return Match{Node: cur, Path: path, Err: &domain.RoutingError{Reason: domain.InvalidSyntax, Token: unmatched}}
}

// Find returns the node reached by following the primary path exactly.
func (t *Tree) Find(path []string) (*Node, bool) {
	cur := t.root
	for _, p := range path {
		idx := cur.indexOf(p)
		if idx < 0 {
			return nil, false
		}
		cur = cur.children[idx]
	}
	return cur, true
}

// Bindings lists every registered binding, depth first in insertion order.
func (t *Tree) Bindings() []*Binding {
	var out []*Binding
	t.root.Walk(func(_ []string, n *Node) bool {
		if n.binding != nil {
			out = append(out, n.binding)
		}
		return true
	})
	return out
}

func closest(n *Node, token string) string {
	best, bestDist := "", MaxSuggestDistance+1
	lower := strings.ToLower(token)
	for _, name := range n.ChildNames() {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(name))
		if d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// String renders the primary paths of the registered commands, one per line.
func (t *Tree) String() string {
	var sb strings.Builder
	for _, b := range t.Bindings() {
		fmt.Fprintln(&sb, b.Command.Name())
	}
	return sb.String()
}
