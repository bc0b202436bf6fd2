package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputExhausted is returned when a read is attempted past the end of the line.
	ErrInputExhausted = errors.New("input exhausted")

	// ErrKeyExists is returned when a context key is written twice without replace.
	ErrKeyExists = errors.New("key already set")

	// ErrKeyMissing is returned when a required context key is absent.
	ErrKeyMissing = errors.New("key missing")

	// ErrInvalidRoute is returned for routes that cannot be split into fragments.
	ErrInvalidRoute = errors.New("invalid route")
)

// SyntaxReason classifies a SyntaxError.
type SyntaxReason int

const (
	TooFewArguments SyntaxReason = iota
	TooManyArguments
	MalformedQuote
)

func (r SyntaxReason) String() string {
	switch r {
	case TooFewArguments:
		return "too few arguments"
	case TooManyArguments:
		return "too many arguments"
	case MalformedQuote:
		return "malformed quote"
	default:
		return fmt.Sprintf("syntax reason %d", int(r))
	}
}

// SyntaxError reports input that does not fit the shape of a command.
type SyntaxError struct {
	Reason SyntaxReason
	// Consumed is the portion of the line read before the failure.
	Consumed string
	Err      error
}

func (e *SyntaxError) Error() string {
	msg := e.Reason.String()
	if e.Consumed != "" {
		msg = fmt.Sprintf("%s after %q", msg, e.Consumed)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// RoutingReason classifies a RoutingError.
type RoutingReason int

const (
	NoSuchCommand RoutingReason = iota
	InvalidSyntax
	AmbiguousRoute
)

func (r RoutingReason) String() string {
	switch r {
	case NoSuchCommand:
		return "no such command"
	case InvalidSyntax:
		return "invalid syntax"
	case AmbiguousRoute:
		return "ambiguous route"
	default:
		return fmt.Sprintf("routing reason %d", int(r))
	}
}

// RoutingError reports a failure to resolve a line to a command, or a
// route collision during registration.
type RoutingError struct {
	Reason RoutingReason
	// Token is the fragment that failed to match (or collided).
	Token string
	// Closest is the nearest known name for NoSuchCommand, if any.
	Closest string
}

func (e *RoutingError) Error() string {
	msg := e.Reason.String()
	if e.Token != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Token)
	}
	if e.Closest != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, e.Closest)
	}
	return msg
}

// MappingError reports a value that could not be converted by its mapper.
type MappingError struct {
	Argument string
	Input    string
	Err      error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Input, e.Argument, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// DuplicateFlagError reports a flag given more than once in a dispatch.
type DuplicateFlagError struct {
	Flag string
}

func (e *DuplicateFlagError) Error() string {
	return fmt.Sprintf("flag --%s given more than once", e.Flag)
}

// AuthorizationError reports a caller lacking the permission of a command.
type AuthorizationError struct {
	Route      string
	Permission string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to run %q (requires %q)", e.Route, e.Permission)
}

// ConditionError reports a failed command precondition.
type ConditionError struct {
	Route string
	Err   error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition failed for %q: %v", e.Route, e.Err)
}

func (e *ConditionError) Unwrap() error { return e.Err }

// RegistrationReason classifies a RegistrationError.
type RegistrationReason int

const (
	MissingMapper RegistrationReason = iota
	RouteConflict
	InvalidRoute
	InvalidCommand
	NotRegistered
)

func (r RegistrationReason) String() string {
	switch r {
	case MissingMapper:
		return "missing mapper"
	case RouteConflict:
		return "ambiguous route"
	case InvalidRoute:
		return "invalid route"
	case InvalidCommand:
		return "invalid command"
	case NotRegistered:
		return "not registered"
	default:
		return fmt.Sprintf("registration reason %d", int(r))
	}
}

// RegistrationError reports a command that could not be registered or
// unregistered. Other commands of the same batch are unaffected.
type RegistrationError struct {
	Reason   RegistrationReason
	Route    string
	Argument string
	Err      error
}

func (e *RegistrationError) Error() string {
	msg := fmt.Sprintf("%s: %q", e.Reason, e.Route)
	if e.Argument != "" {
		msg += fmt.Sprintf(" (argument %s)", e.Argument)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// AggregateError collects the per-command failures of a batch.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d registration errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// Kind classifies a dispatch error for metrics and transport adapters:
// "ok" for nil, then "routing", "syntax", "mapping", "duplicate_flag",
// "authorization", "condition", and "handler" for anything else.
func Kind(err error) string {
	var (
		routeErr *RoutingError
		synErr   *SyntaxError
		mapErr   *MappingError
		dupErr   *DuplicateFlagError
		authErr  *AuthorizationError
		condErr  *ConditionError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &routeErr):
		return "routing"
	case errors.As(err, &synErr):
		return "syntax"
	case errors.As(err, &mapErr):
		return "mapping"
	case errors.As(err, &dupErr):
		return "duplicate_flag"
	case errors.As(err, &authErr):
		return "authorization"
	case errors.As(err, &condErr):
		return "condition"
	default:
		return "handler"
	}
}
