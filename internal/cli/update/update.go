package update

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
	installcmd "github.com/nightconcept/sampkit/internal/cli/install"
	"github.com/nightconcept/sampkit/internal/core/config"
	"github.com/nightconcept/sampkit/internal/core/installer"
	"github.com/nightconcept/sampkit/internal/core/lockfile"
	"github.com/nightconcept/sampkit/internal/core/source"
)

// NewUpdateCommand creates a new cli.Command for the "update" command.
func NewUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Aliases:   []string{"up"},
		Usage:     "Re-resolves dependencies and downloads those whose source changed",
		ArgsUsage: "[dependency_names...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Download again even if the resolved URL did not change",
			},
		},
		Action: updateAction,
	}
}

func updateAction(c *cli.Context) error {
	force := c.Bool("force")

	e, err := env.New(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	proj, err := config.LoadProjectToml(e.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cli.Exit("Error: project.toml not found in the current directory. Please run 'sampkit init' first.", 1)
		}
		return cli.Exit(fmt.Sprintf("Error loading project.toml: %v", err), 1)
	}
	lf, err := lockfile.Load(e.Root)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading %s: %v", lockfile.LockfileName, err), 1)
	}

	targets := installcmd.SelectTargets(proj, c.Args().Slice(), func(name string) {
		_, _ = fmt.Fprintf(e.Err, "Warning: Dependency '%s' not found in project.toml. Skipping.\n", name)
	})
	if len(targets) == 0 {
		_, _ = fmt.Fprintln(e.Out, "No dependencies to update.")
		return nil
	}

	upgradeColor := color.New(color.FgGreen).SprintFunc()
	changeColor := color.New(color.FgYellow).SprintFunc()

	var updated, failed int
	for _, name := range targets {
		dep := proj.Dependencies[name]
		entry, locked := lf.Package[name]

		ref, asset, err := e.Installer.Resolve(c.Context, dep.Source)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, source.ErrNotFound) {
				reason = "dependency not found"
			}
			_, _ = fmt.Fprintf(e.Err, "Error: %s (%s): %s\n", name, dep.Source, reason)
			failed++
			continue
		}

		if !force && locked && entry.Source == asset.URL && e.Installer.Exists(entry.Path) {
			e.Logger.Debug("up to date", "name", name, "url", asset.URL)
			continue
		}

		relPath := installer.TargetPath(installcmd.DirectoryOf(dep.Path), ref, asset)
		res, err := e.Installer.Fetch(c.Context, ref, asset, relPath)
		if err != nil {
			_, _ = fmt.Fprintf(e.Err, "Error: Failed to download '%s' from %s: %v\n", name, asset.URL, err)
			failed++
			continue
		}
		for _, old := range []string{dep.Path, entry.Path} {
			if old != "" && old != res.Path {
				if err := installer.Uninstall(e.Root, old); err != nil {
					e.Logger.Warn("could not remove previous download", "path", old, "err", err)
				}
			}
		}

		proj.SetDependency(name, dep.Source, res.Path)
		lf.AddOrUpdatePackage(name, lockfile.PackageEntry{
			Source:    res.Asset.URL,
			Reference: dep.Source,
			Tag:       res.Asset.Tag,
			Path:      res.Path,
			Hash:      res.Hash,
		})
		updated++

		change := CompareTags(entry.Tag, res.Asset.Tag)
		switch {
		case !locked:
			_, _ = fmt.Fprintf(e.Out, "Installed %s from %s\n", name, res.Asset.URL)
		case change == TagUpgraded:
			_, _ = fmt.Fprintf(e.Out, "Updated %s: %s -> %s %s\n", name, entry.Tag, res.Asset.Tag, upgradeColor("(upgrade)"))
		case change == TagChanged:
			_, _ = fmt.Fprintf(e.Out, "Updated %s: %s -> %s %s\n", name, displayTag(entry.Tag), displayTag(res.Asset.Tag), changeColor("(changed)"))
		default:
			_, _ = fmt.Fprintf(e.Out, "Updated %s from %s\n", name, res.Asset.URL)
		}
	}

	if updated > 0 {
		if err := config.WriteProjectToml(e.Root, proj); err != nil {
			return cli.Exit(fmt.Sprintf("Error: Failed to write project.toml: %v", err), 1)
		}
		if err := lockfile.Save(e.Root, lf); err != nil {
			return cli.Exit(fmt.Sprintf("Error: Failed to save %s: %v", lockfile.LockfileName, err), 1)
		}
		_, _ = fmt.Fprintf(e.Out, "Successfully updated %d dependenc(ies).\n", updated)
		return nil
	}
	if failed > 0 {
		return cli.Exit("Update completed with errors for all targeted dependencies.", 1)
	}
	_, _ = fmt.Fprintln(e.Out, "All targeted dependencies are up to date.")
	return nil
}

// TagChange classifies how a dependency's tag moved between two resolutions.
type TagChange int

const (
	TagUnchanged TagChange = iota
	TagUpgraded
	TagChanged
)

// CompareTags reports TagUpgraded when both tags parse as semantic versions
// and next is greater, TagChanged for any other difference.
func CompareTags(previous, next string) TagChange {
	if previous == next {
		return TagUnchanged
	}
	if previous == "" || next == "" {
		return TagChanged
	}
	prev, err := semver.NewVersion(strings.TrimPrefix(previous, "v"))
	if err != nil {
		return TagChanged
	}
	cur, err := semver.NewVersion(strings.TrimPrefix(next, "v"))
	if err != nil {
		return TagChanged
	}
	if cur.GreaterThan(prev) {
		return TagUpgraded
	}
	return TagChanged
}

func displayTag(tag string) string {
	if tag == "" {
		return "(branch)"
	}
	return tag
}
