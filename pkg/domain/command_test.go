package domain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name    string
		route   string
		want    []Fragment
		wantErr bool
	}{
		{
			name:  "single fragment",
			route: "help",
			want:  []Fragment{{Primary: "help", Aliases: []string{}}},
		},
		{
			name:  "aliases and extra whitespace",
			route: "  user   add|create|new ",
			want: []Fragment{
				{Primary: "user", Aliases: []string{}},
				{Primary: "add", Aliases: []string{"create", "new"}},
			},
		},
		{name: "empty", route: "   ", wantErr: true},
		{name: "empty alias", route: "user add||new", wantErr: true},
		{name: "leading pipe", route: "|add", wantErr: true},
		{name: "flag-like name", route: "user --add", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoute(tt.route)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRoute)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommand_Name(t *testing.T) {
	cmd := &Command{Route: "user add|create"}
	assert.Equal(t, []string{"user", "add"}, cmd.Path())
	assert.Equal(t, "user add", cmd.Name())

	assert.Empty(t, (&Command{Route: ""}).Name())
}

func TestArgument_Usage(t *testing.T) {
	name := NewKey[string]("name")
	force := NewKey[bool]("force")

	assert.Equal(t, "<name>", Positional("name", name, name).Usage())
	assert.Equal(t, "[--output <output>]", ValueFlag("output", 0, name, name).Usage())
	assert.Equal(t, "[-o|--output <output>]", ValueFlag("output", 'o', name, name).Usage())
	assert.Equal(t, "[-f|--force]", PresenceFlag("force", 'f', force).Usage())

	arg := Positional("name", name, name).WithDescription("user name")
	assert.Equal(t, "user name", arg.Description)
	assert.False(t, arg.IsFlag())
	assert.True(t, PresenceFlag("force", 'f', force).IsFlag())
}

func TestConditions(t *testing.T) {
	key := NewKey[string]("admin")
	fail := func(*CommandContext) error { return errors.New("nope") }
	pass := func(*CommandContext) error { return nil }

	cc := NewCommandContext(context.Background())

	assert.NoError(t, All()(cc))
	assert.NoError(t, All(pass, pass)(cc))
	assert.EqualError(t, All(pass, fail)(cc), "nope")

	assert.NoError(t, Any()(cc))
	assert.NoError(t, Any(fail, pass)(cc))
	assert.Error(t, Any(fail, fail)(cc))

	assert.ErrorIs(t, Requires(key)(cc), ErrKeyMissing)
	Replace(cc, key, "yes")
	assert.NoError(t, Requires(key)(cc))

	cmd := &Command{Route: "ban", Conditions: []Condition{pass, fail}}
	err := Check(cmd, cc)
	var condErr *ConditionError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "ban", condErr.Route)
}

func TestErrors_Matching(t *testing.T) {
	syn := &SyntaxError{Reason: TooFewArguments, Consumed: "user add", Err: ErrInputExhausted}
	assert.ErrorIs(t, syn, ErrInputExhausted)
	assert.Equal(t, `too few arguments after "user add": input exhausted`, syn.Error())

	route := &RoutingError{Reason: NoSuchCommand, Token: "hepl", Closest: "help"}
	assert.Equal(t, `no such command: "hepl" (did you mean "help"?)`, route.Error())

	reg := &RegistrationError{Reason: RouteConflict, Route: "a", Err: &RoutingError{Reason: AmbiguousRoute, Token: "a"}}
	agg := &AggregateError{Errors: []error{reg, errors.New("other")}}

	var target *RoutingError
	require.ErrorAs(t, agg, &target)
	assert.Equal(t, AmbiguousRoute, target.Reason)
	assert.Contains(t, agg.Error(), "2 registration errors")
}

func TestArgumentsAndOutput(t *testing.T) {
	nameKey := NewKey[string]("name")
	forceKey := NewKey[bool]("force")
	cmd := &Command{
		Route: "user add",
		Arguments: []Argument{
			Positional("name", nameKey, NewKey[string]("")),
			PresenceFlag("force", 'f', forceKey),
		},
	}

	cc := NewCommandContext(context.Background())
	assert.Empty(t, Arguments(cc))
	assert.Equal(t, io.Discard, Output(cc))

	Replace(cc, CommandKey, cmd)
	Replace(cc, nameKey, "bob")
	assert.Equal(t, map[string]any{"name": "bob"}, Arguments(cc))

	var buf bytes.Buffer
	Replace[io.Writer](cc, OutputKey, &buf)
	_, _ = io.WriteString(Output(cc), "hi")
	assert.Equal(t, "hi", buf.String())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "ok", Kind(nil))
	assert.Equal(t, "routing", Kind(&RoutingError{Reason: NoSuchCommand}))
	assert.Equal(t, "syntax", Kind(&SyntaxError{Reason: TooManyArguments}))
	assert.Equal(t, "mapping", Kind(&MappingError{Argument: "n", Err: errors.New("x")}))
	assert.Equal(t, "duplicate_flag", Kind(&DuplicateFlagError{Flag: "f"}))
	assert.Equal(t, "authorization", Kind(&AuthorizationError{Route: "a"}))
	assert.Equal(t, "condition", Kind(&ConditionError{Route: "a", Err: errors.New("x")}))
	assert.Equal(t, "handler", Kind(errors.New("boom")))
}
