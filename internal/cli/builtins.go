package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/dsl"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/registry"
)

// Handler names available to manifests.
const (
	HandlerEcho  = "echo"
	HandlerJSON  = "json"
	HandlerSleep = "sleep"
	HandlerFail  = "fail"
)

var (
	textKey  = domain.NewKey[string]("text")
	nameKey  = domain.NewKey[string]("name")
	loudKey  = domain.NewKey[bool]("loud")
	delayKey = domain.NewKey[time.Duration]("delay")
)

// RegisterHandlers adds the built-in handlers to reg.
func RegisterHandlers(reg *registry.Registry) {
	reg.Register(HandlerEcho, echoHandler)
	reg.Register(HandlerJSON, jsonHandler)
	reg.Register(HandlerSleep, sleepHandler)
	reg.Register(HandlerFail, failHandler)
}

// echoHandler prints the bound arguments as name=value lines, sorted by name.
func echoHandler(cc *domain.CommandContext) error {
	out := domain.Output(cc)
	args := domain.Arguments(cc)
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		if cmd, ok := domain.Get(cc, domain.CommandKey); ok {
			_, err := fmt.Fprintln(out, cmd.Name())
			return err
		}
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%s=%v\n", name, args[name]); err != nil {
			return err
		}
	}
	return nil
}

func jsonHandler(cc *domain.CommandContext) error {
	enc := json.NewEncoder(domain.Output(cc))
	return enc.Encode(domain.Arguments(cc))
}

// sleepHandler waits for the "delay" argument (one second without it) or
// until the dispatch context is cancelled.
func sleepHandler(cc *domain.CommandContext) error {
	delay := time.Second
	if v, ok := domain.Arguments(cc)["delay"].(time.Duration); ok {
		delay = v
	}
	select {
	case <-time.After(delay):
		_, err := fmt.Fprintf(domain.Output(cc), "slept %s\n", delay)
		return err
	case <-cc.Context().Done():
		return cc.Context().Err()
	}
}

func failHandler(cc *domain.CommandContext) error {
	if msg, ok := domain.Arguments(cc)["message"].(string); ok && msg != "" {
		return errors.New(msg)
	}
	return errors.New("command failed")
}

// builtinCommands are registered on every App.
func builtinCommands(d *tendril.Dispatcher) []*domain.Command {
	b := dsl.New()
	b.Add("help|?").
		Describe("List the available commands").
		Handle(func(cc *domain.CommandContext) error {
			return writeHelp(domain.Output(cc), d, 0)
		})
	b.Add("version").
		Describe("Print the tendril version").
		Handle(func(cc *domain.CommandContext) error {
			_, err := fmt.Fprintf(domain.Output(cc), "tendril %s\n", tendril.Version)
			return err
		})
	cmds, _ := b.Build()
	return cmds
}

// demoCommands are registered when no manifest is configured.
func demoCommands() []*domain.Command {
	b := dsl.New()
	b.Add("echo|say").
		Describe("Print the given text").
		Arg(domain.Positional("text", textKey, mapper.GreedyKey)).
		Handle(func(cc *domain.CommandContext) error {
			_, err := fmt.Fprintln(domain.Output(cc), domain.GetOr(cc, textKey, ""))
			return err
		})
	b.Add("greet|hi").
		Describe("Greet someone").
		Arg(domain.Positional("name", nameKey, mapper.StringKey)).
		Switch("loud", 'l', loudKey).
		Handle(func(cc *domain.CommandContext) error {
			msg := "Hello, " + domain.GetOr(cc, nameKey, "") + "."
			if domain.GetOr(cc, loudKey, false) {
				msg = "HELLO, " + domain.GetOr(cc, nameKey, "") + "!"
			}
			_, err := fmt.Fprintln(domain.Output(cc), msg)
			return err
		})
	b.Add("sleep").
		Describe("Wait in the background").
		Arg(domain.Positional("delay", delayKey, mapper.DurationKey)).
		Async().
		Handle(sleepHandler)
	b.Add("admin shutdown").
		Describe("Pretend to stop the server").
		Permission("admin.shutdown").
		Handle(func(cc *domain.CommandContext) error {
			_, err := fmt.Fprintln(domain.Output(cc), "shutdown requested")
			return err
		})
	cmds, _ := b.Build()
	return cmds
}

// writeHelp renders the command table with glamour, falling back to the
// raw markdown when rendering fails.
func writeHelp(w io.Writer, d *tendril.Dispatcher, width int) error {
	md := tui.HelpMarkdown(d.Commands(), func(c *domain.Command) string {
		return d.Syntax(c.Name())
	})
	render, err := tui.NewRenderer(width)
	if err == nil {
		if out, rerr := render(md); rerr == nil {
			md = out
		}
	}
	_, err = io.WriteString(w, md)
	return err
}
