package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/ports"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding about a command set.
type Issue struct {
	Severity Severity
	Route    string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Route, i.Message)
}

// ValidateCommands checks cmds without touching any live dispatcher.
// Registration failures (bad routes, missing mappers, conflicts) are errors;
// constructs that register but behave surprisingly are warnings.
func ValidateCommands(cmds []*domain.Command, mappers *mapper.Registry) []Issue {
	var issues []Issue

	// Dry run against a scratch dispatcher sharing the mappers. The hook sees
	// every command that passed validation, so failures can be attributed.
	accepted := make(map[*domain.Command]bool)
	scratch := tendril.New(
		tendril.WithMappers(mappers),
		tendril.WithRegistrationHandler(ports.RegistrationFuncs{
			Register: func(c *domain.Command) ports.Decision {
				accepted[c] = true
				return ports.Proceed
			},
		}),
	)
	err := scratch.Register(cmds...)

	var agg *domain.AggregateError
	if errors.As(err, &agg) {
		for _, e := range agg.Errors {
			route := ""
			var regErr *domain.RegistrationError
			if errors.As(e, &regErr) {
				route = regErr.Route
			}
			issues = append(issues, Issue{Severity: SeverityError, Route: route, Message: e.Error()})
		}
	}

	branches := make(map[string]bool)
	for _, c := range scratch.Commands() {
		path := c.Path()
		for i := 1; i < len(path); i++ {
			branches[strings.Join(path[:i], " ")] = true
		}
	}

	for _, c := range cmds {
		if c == nil || !accepted[c] {
			continue
		}
		issues = append(issues, lint(c, branches)...)
	}
	return issues
}

func lint(c *domain.Command, branches map[string]bool) []Issue {
	var issues []Issue
	warn := func(format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityWarning, Route: c.Route, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Description) == "" {
		warn("missing description")
	}

	var positionals []domain.Argument
	for _, a := range c.Arguments {
		if !a.IsFlag() {
			positionals = append(positionals, a)
		}
	}
	for i, a := range positionals {
		if a.MapperKey == mapper.GreedyKey.ID() && i < len(positionals)-1 {
			warn("greedy argument %q consumes the rest of the line; %q can never be given", a.Name, positionals[i+1].Name)
		}
	}

	if len(positionals) > 0 && branches[c.Name()] {
		warn("takes positional arguments and has subcommands; values naming a subcommand are routed to it")
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
