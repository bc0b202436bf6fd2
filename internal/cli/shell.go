package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/tendril/internal/presentation/tui"
)

const shellPrompt = "tendril> "

// RunShell reads command lines from in and dispatches them until EOF,
// "exit" or cancellation of ctx. When in is a terminal the line editor
// completes the current word on Tab.
func (a *App) RunShell(ctx context.Context, in *os.File, out io.Writer) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return a.runLines(ctx, in, out)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, shellPrompt)
	if w, h, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(w, h)
	}
	t.AutoCompleteCallback = func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' {
			return "", 0, false
		}
		return complete(func(l string) []string {
			return a.Dispatcher.Suggest(a.NewContext(ctx, nil), l)
		}, line, pos)
	}

	tui.PrintBanner(t)
	printSystemMessage(t, "Type 'help' for commands, Tab to complete, 'exit' to leave.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := t.ReadLine()
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			return err
		}
		if !a.execLine(ctx, line, t) {
			return nil
		}
	}
}

func (a *App) runLines(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if !a.execLine(ctx, scanner.Text(), out) {
			return nil
		}
	}
	return scanner.Err()
}

// execLine dispatches one shell line. It reports false when the shell should stop.
func (a *App) execLine(ctx context.Context, line string, out io.Writer) bool {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "":
		return true
	case "exit", "quit":
		return false
	}
	if err := a.Dispatcher.Dispatch(a.NewContext(ctx, out), trimmed); err != nil {
		fmt.Fprintln(out, FormatError(a.Dispatcher, trimmed, err))
	}
	return true
}

// complete extends the word under the cursor using suggest. A single
// candidate is completed with a trailing space; several candidates are
// extended to their common prefix.
func complete(suggest func(string) []string, line string, pos int) (string, int, bool) {
	if pos != len(line) {
		return "", 0, false
	}

	start := strings.LastIndexAny(line, " \t") + 1
	word := line[start:]

	var matches []string
	seen := make(map[string]bool)
	for _, c := range suggest(line) {
		if strings.HasPrefix(c, word) && !seen[c] {
			seen[c] = true
			matches = append(matches, c)
		}
	}

	var repl string
	switch len(matches) {
	case 0:
		return "", 0, false
	case 1:
		repl = matches[0] + " "
	default:
		repl = commonPrefix(matches)
		if len(repl) <= len(word) {
			return "", 0, false
		}
	}

	out := line[:start] + repl
	return out, len(out), true
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
