package runtime

import (
	"strings"
	"unicode"

	"github.com/aretw0/tendril/internal/chain"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/input"
)

// ParseInfo is the transient state of the argument being parsed. After a
// failed Parse it describes where parsing stopped.
type ParseInfo struct {
	// Token is the raw token that started the current step.
	Token string
	// Argument is the argument being parsed, if any.
	Argument *chain.Bound
	// AwaitingValue is set while a value flag reads its value.
	AwaitingValue bool
	// Err is the failure that stopped parsing, nil on success.
	Err error
}

func (p *ParseInfo) reset() {
	*p = ParseInfo{}
}

// Parse binds the arguments of c from r into cc.
//
// Flags may appear anywhere; every other token is claimed by the first
// positional whose key is not yet in cc. Failures are returned together with
// the ParseInfo describing the failing step, and cc keeps whatever was bound
// before the failure.
func Parse(cc *domain.CommandContext, c *chain.Chain, r *input.Reader) (*ParseInfo, error) {
	info, err := parse(cc, c, r)
	info.Err = err
	return info, err
}

func parse(cc *domain.CommandContext, c *chain.Chain, r *input.Reader) (*ParseInfo, error) {
	info := &ParseInfo{}

	for r.HasNext() {
		tok, err := r.PeekWord()
		if err != nil {
			return info, err
		}
		info.Token = tok

		if group, ok := chain.ParseFlagGroup(tok, c); ok {
			_, _ = r.ReadWord()
			for _, b := range group {
				info.Argument = b
				info.AwaitingValue = !b.Presence
				if cc.Has(b.Key) {
					return info, &domain.DuplicateFlagError{Flag: b.Name}
				}
				if err := b.Parse(cc, r); err != nil {
					return info, err
				}
			}
			info.reset()
			continue
		}

		b := nextPositional(cc, c)
		if b == nil {
			return info, &domain.SyntaxError{Reason: domain.TooManyArguments, Consumed: consumed(r)}
		}
		info.Argument = b
		if err := b.Parse(cc, r); err != nil {
			return info, err
		}
		info.reset()
	}

	if b := nextPositional(cc, c); b != nil {
		info.Argument = b
		return info, &domain.SyntaxError{
			Reason:   domain.TooFewArguments,
			Consumed: consumed(r),
			Err:      domain.ErrInputExhausted,
		}
	}
	return info, nil
}

func nextPositional(cc *domain.CommandContext, c *chain.Chain) *chain.Bound {
	for _, b := range c.Positional() {
		if !cc.Has(b.Key) {
			return b
		}
	}
	return nil
}

func consumed(r *input.Reader) string {
	return strings.TrimRightFunc(r.Consumed(), unicode.IsSpace)
}
