/*
Package tendril is an embeddable command-dispatch engine for chat bots, game servers, admin consoles and REPLs.

It turns a raw command line such as `user add bob --admin` into a routed, typed and authorized handler call, and produces context-sensitive completion candidates for partially typed lines.

# Concept

Commands are registered under routes made of fragments (`user add|create`). Each fragment names a node of a command trie; `|` separates aliases. Arguments are declared with typed keys and resolved against a registry of mappers once, at registration. At dispatch time the line is routed through the trie, the remaining tokens are bound to positionals and flags, and the handler reads the values back from the CommandContext. The host ("Host") owns permissions, scheduling and I/O; the engine only needs the ports it is given.

# Key Features

  - Typed Arguments: Keys carry their Go type; mappers convert text into values.
  - Aliases and Ambiguity Checks: Routes cannot shadow each other.
  - Flags Anywhere: `--name`, `-n` and clusters such as `-abc`.
  - Suggestions: Tab-completion candidates without side effects.
  - Lock-Free Reads: Registration publishes a new snapshot; dispatches never block on it.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/tendril"
		"github.com/aretw0/tendril/pkg/domain"
		"github.com/aretw0/tendril/pkg/mapper"
	)

	func main() {
		d := tendril.New()
		name := domain.NewKey[string]("name")

		err := d.Register(&domain.Command{
			Route:     "user add|create",
			Arguments: []domain.Argument{domain.Positional("name", name, mapper.StringKey)},
			Handler: func(cc *domain.CommandContext) error {
				fmt.Println("created", domain.GetOr(cc, name, ""))
				return nil
			},
		})
		if err != nil {
			log.Fatal(err)
		}

		cc := domain.NewCommandContext(context.Background())
		if err := d.Dispatch(cc, "user create bob"); err != nil {
			log.Fatal(err)
		}
		fmt.Println(d.Suggest(cc, "user a")) // [add create]
	}
*/
package tendril
