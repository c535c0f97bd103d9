package remove

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
	"github.com/nightconcept/sampkit/internal/core/config"
	"github.com/nightconcept/sampkit/internal/core/installer"
	"github.com/nightconcept/sampkit/internal/core/lockfile"
)

// RemoveCommand defines the structure for the 'remove' CLI command.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Removes a dependency from the project",
		ArgsUsage: "<dependency_name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("Error: Missing dependency name argument.", 1)
			}
			dependencyName := c.Args().First()
			root := env.ProjectRoot(c)
			out, errOut := env.Writers(c)

			proj, err := config.LoadProjectToml(root)
			if err != nil {
				if os.IsNotExist(err) {
					return cli.Exit(fmt.Sprintf("Error: %s not found in the current directory.", config.ProjectTomlName), 1)
				}
				return cli.Exit(fmt.Sprintf("Error: Failed to load %s: %v", config.ProjectTomlName, err), 1)
			}

			dep, ok := proj.RemoveDependency(dependencyName)
			if !ok {
				return cli.Exit(fmt.Sprintf("Error: Dependency '%s' not found in %s.", dependencyName, config.ProjectTomlName), 1)
			}

			lf, err := lockfile.Load(root)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: Failed to load %s: %v", lockfile.LockfileName, err), 1)
			}
			entry, locked := lf.Package[dependencyName]

			paths := []string{dep.Path}
			if locked && entry.Path != "" && entry.Path != dep.Path {
				paths = append(paths, entry.Path)
			}
			for _, p := range paths {
				if err := installer.Uninstall(root, p); err != nil {
					_, _ = fmt.Fprintf(errOut, "Warning: %v\n", err)
				}
			}

			if err := config.WriteProjectToml(root, proj); err != nil {
				return cli.Exit(fmt.Sprintf("Error: Failed to update %s: %v", config.ProjectTomlName, err), 1)
			}
			if lf.RemovePackage(dependencyName) {
				if err := lockfile.Save(root, lf); err != nil {
					return cli.Exit(fmt.Sprintf("Error: Failed to update %s: %v", lockfile.LockfileName, err), 1)
				}
			}

			_, _ = fmt.Fprintf(out, "Removed dependency '%s' (%s).\n", dependencyName, dep.Path)
			return nil
		},
	}
}
