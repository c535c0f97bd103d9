package add

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
	"github.com/nightconcept/sampkit/internal/core/config"
	"github.com/nightconcept/sampkit/internal/core/installer"
	"github.com/nightconcept/sampkit/internal/core/lockfile"
	"github.com/nightconcept/sampkit/internal/core/source"
)

// NewAddCommand creates the "add" command.
func NewAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Resolves dependencies, downloads them and adds them to the project",
		ArgsUsage: "<reference> [reference...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "directory",
				Aliases: []string{"d"},
				Usage:   "Directory that receives downloaded dependencies",
				Value:   installer.DefaultDirectory,
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Name of the dependency in project.toml (single reference only)",
			},
		},
		Action: addAction,
	}
}

func addAction(c *cli.Context) error {
	references := c.Args().Slice()
	if len(references) == 0 {
		return cli.Exit("Error: at least one <reference> argument is required.", 1)
	}
	customName := c.String("name")
	if customName != "" && len(references) > 1 {
		return cli.Exit("Error: --name can only be used with a single reference.", 1)
	}

	e, err := env.New(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	proj, err := config.LoadProjectToml(e.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return cli.Exit(fmt.Sprintf("Error: %s not found. Run 'sampkit init' first.", config.ProjectTomlName), 1)
		}
		return cli.Exit(fmt.Sprintf("Error loading %s: %v", config.ProjectTomlName, err), 1)
	}
	lf, err := lockfile.Load(e.Root)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading %s: %v", lockfile.LockfileName, err), 1)
	}

	nameColor := color.New(color.FgGreen, color.Bold).SprintFunc()
	pathColor := color.New(color.FgHiBlack).SprintFunc()
	failColor := color.New(color.FgRed).SprintFunc()

	var added int
	for _, raw := range references {
		reference := strings.TrimSpace(raw)
		res, err := e.Installer.Add(c.Context, reference, c.String("directory"))
		if err != nil {
			reason := err.Error()
			if errors.Is(err, source.ErrNotFound) {
				reason = "dependency not found"
			}
			_, _ = fmt.Fprintf(e.Err, "%s %s: %s\n", failColor("✗"), reference, reason)
			e.Logger.Debug("add failed", "reference", reference, "err", err)
			continue
		}

		name := customName
		if name == "" {
			name = res.Reference.Repository
		}
		if previous, ok := proj.Dependencies[name]; ok && previous.Path != "" && previous.Path != res.Path {
			if err := installer.Uninstall(e.Root, previous.Path); err != nil {
				e.Logger.Warn("could not remove previous download", "path", previous.Path, "err", err)
			}
		}

		proj.SetDependency(name, reference, res.Path)
		lf.AddOrUpdatePackage(name, lockfile.PackageEntry{
			Source:    res.Asset.URL,
			Reference: reference,
			Tag:       res.Asset.Tag,
			Path:      res.Path,
			Hash:      res.Hash,
		})
		added++

		_, _ = fmt.Fprintf(e.Out, "Added %s from %s to %s\n", nameColor(name), res.Asset.URL, pathColor(res.Path))
		if res.Asset.FellBack {
			_, _ = fmt.Fprintf(e.Err, "Warning: %s has no main branch, used %s instead.\n", reference, res.Asset.Branch)
		}
	}

	if added == 0 {
		return cli.Exit("Error: no dependencies were added.", 1)
	}

	if err := config.WriteProjectToml(e.Root, proj); err != nil {
		return cli.Exit(fmt.Sprintf("Error writing %s: %v", config.ProjectTomlName, err), 1)
	}
	if err := lockfile.Save(e.Root, lf); err != nil {
		return cli.Exit(fmt.Sprintf("Error saving %s: %v", lockfile.LockfileName, err), 1)
	}

	if failed := len(references) - added; failed > 0 {
		_, _ = fmt.Fprintf(e.Out, "Added %d of %d dependencies. Updated %s and %s.\n", added, len(references), config.ProjectTomlName, lockfile.LockfileName)
	} else {
		_, _ = fmt.Fprintf(e.Out, "Updated %s and %s.\n", config.ProjectTomlName, lockfile.LockfileName)
	}
	return nil
}
