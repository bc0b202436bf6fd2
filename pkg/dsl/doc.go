/*
Package dsl provides a Go DSL (Domain Specific Language) for declaring Tendril commands.

It allows developers to define command sets with a fluent builder instead of
filling domain.Command literals by hand. This is particularly useful for
plugins that contribute many commands at once.

Example usage:

	package main

	import (
		"github.com/aretw0/tendril"
		"github.com/aretw0/tendril/pkg/domain"
		"github.com/aretw0/tendril/pkg/dsl"
		"github.com/aretw0/tendril/pkg/mapper"
	)

	func main() {
		name := domain.NewKey[string]("name")
		force := domain.NewKey[bool]("force")

		b := dsl.New()
		b.Add("user add|create").
			Describe("Create a user").
			Permission("user.add").
			Arg(domain.Positional("name", name, mapper.StringKey)).
			Switch("force", 'f', force).
			Handle(func(cc *domain.CommandContext) error { return nil })

		d := tendril.New()
		if _, err := b.RegisterTo(d); err != nil {
			panic(err)
		}
	}
*/
package dsl
