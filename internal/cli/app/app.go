// Package app assembles the sampkit command line application.
package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/add"
	"github.com/nightconcept/sampkit/internal/cli/env"
	"github.com/nightconcept/sampkit/internal/cli/initcmd"
	"github.com/nightconcept/sampkit/internal/cli/install"
	"github.com/nightconcept/sampkit/internal/cli/list"
	"github.com/nightconcept/sampkit/internal/cli/remove"
	"github.com/nightconcept/sampkit/internal/cli/resolve"
	"github.com/nightconcept/sampkit/internal/cli/self"
	"github.com/nightconcept/sampkit/internal/cli/suggest"
	"github.com/nightconcept/sampkit/internal/cli/update"
)

// Version is overridden at build time with -ldflags "-X ...app.Version=vX.Y.Z".
var Version = "v0.1.0"

// New returns the sampkit application.
func New() *cli.App {
	return &cli.App{
		Name:                 "sampkit",
		Usage:                "A dependency manager for SA-MP and open.mp projects",
		Version:              Version,
		EnableBashCompletion: true,
		Flags:                env.Flags(),
		Commands: []*cli.Command{
			initcmd.GetInitCommand(),
			add.NewAddCommand(),
			install.NewInstallCommand(),
			update.NewUpdateCommand(),
			remove.RemoveCommand(),
			list.ListCmd,
			resolve.NewResolveCommand(),
			self.NewSelfCommand(),
		},
		// urfave/cli hands unknown command names to the root action.
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.ShowAppHelp(c)
			}
			_, errOut := env.Writers(c)
			return unknownCommand(c, errOut, c.Args().First())
		},
		CommandNotFound: func(c *cli.Context, name string) {
			_, errOut := env.Writers(c)
			_ = unknownCommand(c, errOut, name)
		},
	}
}

// CommandNames lists every visible command name and alias.
func CommandNames(commands []*cli.Command) []string {
	var names []string
	for _, cmd := range commands {
		if cmd.Hidden {
			continue
		}
		names = append(names, cmd.Names()...)
	}
	return names
}

func unknownCommand(c *cli.Context, w io.Writer, name string) error {
	_, _ = fmt.Fprintf(w, "unknown command %q\n", name)
	if matches := suggest.Closest(name, CommandNames(c.App.Commands)); len(matches) > 0 {
		_, _ = fmt.Fprintf(w, "\nDid you mean %s?\n", formatChoices(matches))
	}
	_, _ = fmt.Fprintf(w, "\nRun '%s --help' for usage.\n", c.App.Name)
	return cli.Exit("", 1)
}

func formatChoices(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
