package runtime

import (
	"errors"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/tendril/internal/chain"
	"github.com/aretw0/tendril/internal/graph"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

// AuthorizeFunc decides whether the caller may see a command's arguments.
type AuthorizeFunc func(cmd *domain.Command, cc *domain.CommandContext) bool

// Suggest computes completion candidates for line. It parses into a clone
// of cc, so neither cc nor the tree is modified.
func Suggest(cc *domain.CommandContext, tree *graph.Tree, line string, allow AuthorizeFunc) []string {
	r := input.NewReader(line)
	m := tree.Route(r)
	if m.Err != nil {
		return orEmpty(m.Node.ChildNames())
	}

	b := m.Binding()
	if allow != nil && !allow(b.Command, cc) {
		return []string{}
	}

	start := fragmentStart(line)
	if start < r.Cursor() {
		start = len(line)
	}
	partial := line[start:]
	if partial == "" {
		return []string{}
	}

	scratch := cc.Clone()
	info, err := Parse(scratch, b.Chain, r.Limit(start))
	if err != nil {
		if info.AwaitingValue && errors.Is(err, domain.ErrInputExhausted) {
			return orEmpty(info.Argument.Suggest(scratch, partial))
		}
		var syn *domain.SyntaxError
		if !errors.As(err, &syn) || syn.Reason != domain.TooFewArguments {
			return []string{}
		}
	}

	var out []string
	if p := nextPositional(scratch, b.Chain); p != nil {
		out = append(out, p.Suggest(scratch, partial)...)
	}
	out = append(out, flagNames(scratch, b.Chain, partial)...)
	return dedupe(out)
}

// fragmentStart returns the byte offset of the trailing non-whitespace run,
// or len(line) when the line is empty or ends in whitespace.
func fragmentStart(line string) int {
	i := len(line)
	for i > 0 {
		ch, size := utf8.DecodeLastRuneInString(line[:i])
		if unicode.IsSpace(ch) {
			break
		}
		i -= size
	}
	return i
}

// flagNames lists "--name" and "-c" for flags not yet given, when the
// fragment could be a flag.
func flagNames(cc *domain.CommandContext, c *chain.Chain, partial string) []string {
	if !strings.HasPrefix(partial, "-") {
		return nil
	}
	var out []string
	for _, f := range c.Flags() {
		if cc.Has(f.Key) {
			continue
		}
		for _, name := range []string{f.FlagName(), f.ShortName()} {
			if name != "" && strings.HasPrefix(name, partial) {
				out = append(out, name)
			}
		}
	}
	return out
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
