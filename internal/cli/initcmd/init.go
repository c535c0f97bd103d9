// Package initcmd implements "init", which creates project.toml interactively.
package initcmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
	"github.com/nightconcept/sampkit/internal/core/config"
	"github.com/nightconcept/sampkit/internal/core/project"
)

const defaultBuildScript = "pawncc gamemodes/main.pwn"

// promptWithDefault asks for a value and returns defaultValue on empty input.
// End of input is treated as an empty answer.
func promptWithDefault(out io.Writer, reader *bufio.Reader, promptText string, defaultValue string) (string, error) {
	if defaultValue != "" {
		_, _ = fmt.Fprintf(out, "%s (default: %s): ", promptText, defaultValue)
	} else {
		_, _ = fmt.Fprintf(out, "%s: ", promptText)
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input for '%s': %w", promptText, err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// GetInitCommand returns the definition for the "init" command.
func GetInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new sampkit project (creates project.toml)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept every default without prompting",
			},
		},
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	root := env.ProjectRoot(c)
	out, _ := env.Writers(c)

	if config.Exists(root) {
		return cli.Exit(fmt.Sprintf("Error: %s already exists. Refusing to overwrite it.", config.ProjectTomlName), 1)
	}

	var in io.Reader = os.Stdin
	if c.App != nil && c.App.Reader != nil {
		in = c.App.Reader
	}
	if c.Bool("yes") {
		in = strings.NewReader("")
	}
	reader := bufio.NewReader(in)

	defaultName := "my-gamemode"
	if abs, err := filepath.Abs(root); err == nil && filepath.Base(abs) != string(filepath.Separator) {
		defaultName = filepath.Base(abs)
	}

	proj := project.NewProject()
	fields := []struct {
		prompt string
		def    string
		dst    *string
	}{
		{"Package name", defaultName, &proj.Package.Name},
		{"Version", "0.1.0", &proj.Package.Version},
		{"License", "MIT", &proj.Package.License},
		{"Description (optional)", "", &proj.Package.Description},
	}
	for _, f := range fields {
		value, err := promptWithDefault(out, reader, f.prompt, f.def)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		*f.dst = value
	}

	_, _ = fmt.Fprintln(out, "\nEnter scripts (leave script name empty to finish):")
	for {
		scriptName, err := promptWithDefault(out, reader, "Script name", "")
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error reading script name: %v", err), 1)
		}
		if scriptName == "" {
			break
		}
		scriptCmd, err := promptWithDefault(out, reader, fmt.Sprintf("Command for script '%s'", scriptName), "")
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error reading command for script '%s': %v", scriptName, err), 1)
		}
		proj.Scripts[scriptName] = scriptCmd
	}
	if _, exists := proj.Scripts["build"]; !exists {
		proj.Scripts["build"] = defaultBuildScript
	}

	if err := config.WriteProjectToml(root, proj); err != nil {
		return cli.Exit(fmt.Sprintf("Error writing %s: %v", config.ProjectTomlName, err), 1)
	}
	_, _ = fmt.Fprintf(out, "\nWrote %s\n", filepath.Join(root, config.ProjectTomlName))
	return nil
}
