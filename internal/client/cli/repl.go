package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errUsage = errors.New("usage")

// command is one REPL verb. Commands with signedIn set are listed in help
// only for an authenticated session; the route guard still decides what
// they may show.
type command struct {
	name     string
	aliases  []string
	usage    string
	signedIn bool
	run      func(ctx context.Context, args []string) error
}

// execIface is the surface the REPL loop needs. The real App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	commands() []command
	shutdown(ctx context.Context)
}

func helpText(cmds []command, loggedIn bool) string {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		if c.signedIn && !loggedIn {
			continue
		}
		names = append(names, c.name)
	}
	return "Available commands: " + strings.Join(names, ", ") + ", help, exit"
}

// runREPL reads a line, takes the first token as the command and dispatches
// it with the remaining tokens as arguments. Everything is printed to w; errors
// are printed and the loop continues. It returns on EOF or "exit"/"quit",
// after calling shutdown.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	defer a.shutdown(ctx)

	index := make(map[string]command)
	for _, c := range a.commands() {
		index[c.name] = c
		for _, alias := range c.aliases {
			index[alias] = c
		}
	}

	for {
		fmt.Fprintf(w, "ip %s> \n", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			fmt.Fprintln(w, helpText(a.commands(), a.isLoggedIn()))
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		c, ok := index[name]
		if !ok {
			fmt.Fprintln(w, "Unknown command:", name)
			continue
		}
		if err := c.run(ctx, args); err != nil {
			if errors.Is(err, errUsage) {
				fmt.Fprintln(w, "Usage:", c.usage)
			} else {
				fmt.Fprintln(w, "Error:", err.Error())
			}
		}
	}
}
