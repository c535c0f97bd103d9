package install

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
	"github.com/nightconcept/sampkit/internal/core/config"
	"github.com/nightconcept/sampkit/internal/core/installer"
	"github.com/nightconcept/sampkit/internal/core/lockfile"
	"github.com/nightconcept/sampkit/internal/core/project"
	"github.com/nightconcept/sampkit/internal/core/source"
)

// NewInstallCommand creates a new cli.Command for the "install" command.
func NewInstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Aliases:   []string{"i"},
		Usage:     "Installs project dependencies that are missing or not locked",
		ArgsUsage: "[dependency_names...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Resolve and download every targeted dependency again",
			},
		},
		Action: installAction,
	}
}

func installAction(c *cli.Context) error {
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

	targets := SelectTargets(proj, c.Args().Slice(), func(name string) {
		_, _ = fmt.Fprintf(e.Err, "Warning: Dependency '%s' not found in project.toml. Skipping.\n", name)
	})
	if len(targets) == 0 {
		_, _ = fmt.Fprintln(e.Out, "No dependencies to install.")
		return nil
	}

	var installed, failed int
	for _, name := range targets {
		dep := proj.Dependencies[name]
		entry, locked := lf.Package[name]

		switch {
		case !force && locked && e.Installer.Exists(entry.Path):
			e.Logger.Debug("already installed", "name", name, "path", entry.Path)
			continue

		case !force && locked && entry.Source != "" && entry.Hash != "":
			// Locked but missing on disk: fetch exactly what the lockfile recorded.
			reference := entry.Reference
			if reference == "" {
				reference = dep.Source
			}
			ref, _ := source.ParseReference(reference)
			if err := e.Installer.Restore(c.Context, ref, entry.Source, entry.Path, entry.Hash); err != nil {
				_, _ = fmt.Fprintf(e.Err, "Error: Failed to restore '%s' from %s: %v\n", name, entry.Source, err)
				failed++
				continue
			}
			_, _ = fmt.Fprintf(e.Out, "Restored %s to %s\n", name, entry.Path)

		default:
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
			relPath := installer.TargetPath(DirectoryOf(dep.Path), ref, asset)
			res, err := e.Installer.Fetch(c.Context, ref, asset, relPath)
			if err != nil {
				_, _ = fmt.Fprintf(e.Err, "Error: Failed to download '%s' from %s: %v\n", name, asset.URL, err)
				failed++
				continue
			}
			if dep.Path != "" && dep.Path != res.Path {
				if err := installer.Uninstall(e.Root, dep.Path); err != nil {
					e.Logger.Warn("could not remove previous download", "path", dep.Path, "err", err)
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
			_, _ = fmt.Fprintf(e.Out, "Installed %s from %s to %s\n", name, res.Asset.URL, res.Path)
		}
		installed++
	}

	if installed == 0 && failed == 0 {
		_, _ = fmt.Fprintln(e.Out, "All targeted dependencies are already installed.")
		return nil
	}

	if installed > 0 {
		if err := config.WriteProjectToml(e.Root, proj); err != nil {
			return cli.Exit(fmt.Sprintf("Error: Failed to write project.toml: %v", err), 1)
		}
		if err := lockfile.Save(e.Root, lf); err != nil {
			return cli.Exit(fmt.Sprintf("Error: Failed to save %s: %v", lockfile.LockfileName, err), 1)
		}
		_, _ = fmt.Fprintf(e.Out, "Successfully installed %d dependenc(ies).\n", installed)
	}
	if installed == 0 {
		return cli.Exit("Install completed with errors for all targeted dependencies.", 1)
	}
	return nil
}

// SelectTargets returns the named dependencies, or all of them when names is
// empty, in a stable order. Names missing from the manifest are reported
// through missing and skipped.
func SelectTargets(proj *project.Project, names []string, missing func(string)) []string {
	if len(names) == 0 {
		all := make([]string, 0, len(proj.Dependencies))
		for name := range proj.Dependencies {
			all = append(all, name)
		}
		sort.Strings(all)
		return all
	}

	var targets []string
	for _, name := range names {
		if _, ok := proj.Dependencies[name]; !ok {
			if missing != nil {
				missing(name)
			}
			continue
		}
		targets = append(targets, name)
	}
	return targets
}

// DirectoryOf recovers the storage directory from a "<dir>/<repository>/<file>"
// path, falling back to the default directory.
func DirectoryOf(depPath string) string {
	if depPath == "" {
		return installer.DefaultDirectory
	}
	dir := path.Dir(path.Dir(depPath))
	if dir == "." || dir == "/" {
		return installer.DefaultDirectory
	}
	return dir
}
