package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/assetgw-go/internal/cli/repl"
)

// ShellCommand returns the interactive mode command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "History file (- to disable)",
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	global := inheritedFlags(c)

	exec := func(ctx context.Context, args []string) error {
		if len(args) > 0 && args[0] == "shell" {
			return errors.New("already in shell")
		}
		app := App()
		app.Writer = c.App.Writer
		app.ErrWriter = c.App.ErrWriter
		app.Reader = c.App.Reader
		argv := append([]string{app.Name}, global...)
		return app.RunContext(ctx, append(argv, args...))
	}

	r := repl.New(exec,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(repl.NewHistory(c.String("history-file"))))
	return r.Run(commandContext(c))
}

// inheritedFlags repeats the global flags given to shell for every
// command run inside it.
func inheritedFlags(c *cli.Context) []string {
	var args []string
	for _, name := range []string{"config", "server", "identity", "output"} {
		if c.IsSet(name) {
			args = append(args, "--"+name, c.String(name))
		}
	}
	if c.IsSet("timeout") {
		args = append(args, "--timeout", c.Duration("timeout").String())
	}
	if c.Bool("wide") {
		args = append(args, "--wide")
	}
	return args
}
