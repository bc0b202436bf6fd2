package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/mapper"
)

func nop(*domain.CommandContext) error { return nil }

func TestValidateCommands_Valid(t *testing.T) {
	cmds := []*domain.Command{
		{Route: "user add", Description: "Add", Handler: nop,
			Arguments: []domain.Argument{domain.Positional("name", domain.NewKey[string]("name"), mapper.StringKey)}},
		{Route: "user remove", Description: "Remove", Handler: nop},
	}
	assert.Empty(t, ValidateCommands(cmds, mapper.NewDefaultRegistry()))
}

func TestValidateCommands_Findings(t *testing.T) {
	text := domain.NewKey[string]("text")
	target := domain.NewKey[string]("target")
	cmds := []*domain.Command{
		{Route: "say", Handler: nop, Arguments: []domain.Argument{
			domain.Positional("text", text, mapper.GreedyKey),
			domain.Positional("target", target, mapper.StringKey),
		}},
		{Route: "say", Description: "dup", Handler: nop},
		{Route: "user", Description: "Show", Handler: nop,
			Arguments: []domain.Argument{domain.Positional("name", domain.NewKey[string]("name"), mapper.StringKey)}},
		{Route: "user add", Description: "Add", Handler: nop},
		{Route: "", Handler: nop},
	}

	issues := ValidateCommands(cmds, mapper.NewDefaultRegistry())
	require.True(t, HasErrors(issues))

	var errs, warns []Issue
	for _, i := range issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		} else {
			warns = append(warns, i)
		}
	}
	assert.Len(t, errs, 2, "duplicate route and empty route")
	assert.Equal(t, "say", errs[0].Route)

	require.Len(t, warns, 3)
	assert.Equal(t, "warning: say: missing description", warns[0].String())
	assert.Contains(t, warns[1].Message, `greedy argument "text"`)
	assert.Equal(t, "user", warns[2].Route)
	assert.Contains(t, warns[2].Message, "subcommands")
}
