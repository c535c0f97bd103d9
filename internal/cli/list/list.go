package list

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
	"github.com/nightconcept/sampkit/internal/core/config"
	"github.com/nightconcept/sampkit/internal/core/hasher"
	"github.com/nightconcept/sampkit/internal/core/lockfile"
)

// dependencyDisplayInfo holds all information needed for displaying a dependency.
type dependencyDisplayInfo struct {
	Name       string
	Path       string
	LockedHash string
	Status     []string
}

// ListCmd defines the structure for the 'list' command.
var ListCmd = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "Displays project dependencies and their status.",
	Action: func(c *cli.Context) error {
		root := env.ProjectRoot(c)
		out, errOut := env.Writers(c)

		proj, err := config.LoadProjectToml(root)
		if err != nil {
			if os.IsNotExist(err) {
				return cli.Exit(fmt.Sprintf("Error: %s not found. No project configuration loaded.", config.ProjectTomlName), 1)
			}
			return cli.Exit(fmt.Sprintf("Error loading %s: %v", config.ProjectTomlName, err), 1)
		}

		lf, err := lockfile.Load(root)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error loading %s: %v", lockfile.LockfileName, err), 1)
		}

		projectDir, err := filepath.Abs(root)
		if err != nil {
			projectDir = root
		}

		projectNameColor := color.New(color.FgMagenta, color.Bold, color.Underline).SprintFunc()
		projectVersionColor := color.New(color.FgMagenta).SprintFunc()
		projectPathColor := color.New(color.FgHiBlack, color.Bold, color.Underline).SprintFunc()
		dependenciesHeaderColor := color.New(color.FgCyan, color.Bold).SprintFunc()
		depNameColor := color.New(color.FgWhite).SprintFunc()
		depHashColor := color.New(color.FgYellow).SprintFunc()
		depPathColor := color.New(color.FgHiBlack).SprintFunc()
		depStatusColor := color.New(color.FgRed).SprintFunc()

		_, _ = fmt.Fprintf(out, "%s@%s %s\n\n", projectNameColor(proj.Package.Name), projectVersionColor(proj.Package.Version), projectPathColor(projectDir))
		_, _ = fmt.Fprintln(out, dependenciesHeaderColor("dependencies:"))

		if len(proj.Dependencies) == 0 {
			_, _ = fmt.Fprintln(out, "No dependencies found in project.toml.")
			return nil
		}

		names := make([]string, 0, len(proj.Dependencies))
		for name := range proj.Dependencies {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			dep := proj.Dependencies[name]
			info := dependencyDisplayInfo{Name: name, Path: dep.Path, LockedHash: "not locked"}

			lockEntry, locked := lf.Package[name]
			if locked {
				info.LockedHash = lockEntry.Hash
				if info.LockedHash == "" {
					info.LockedHash = "locked (no hash)"
				}
			}

			switch err := fileState(root, dep.Path, lockEntry.Hash); {
			case err == nil:
			case errors.Is(err, os.ErrNotExist):
				info.Status = append(info.Status, "missing")
			case errors.Is(err, hasher.ErrMismatch):
				info.Status = append(info.Status, "modified")
			default:
				info.Status = append(info.Status, "error checking file")
				_, _ = fmt.Fprintf(errOut, "Warning: could not check status of %s: %v\n", dep.Path, err)
			}

			line := fmt.Sprintf("%s %s %s", depNameColor(info.Name), depHashColor(info.LockedHash), depPathColor(info.Path))
			if len(info.Status) > 0 {
				line += " " + depStatusColor("("+strings.Join(info.Status, ", ")+")")
			}
			_, _ = fmt.Fprintln(out, line)
		}
		return nil
	},
}

// fileState checks that relPath exists and, when a sha256 hash is known,
// that its content still matches.
func fileState(root, relPath, hash string) error {
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	if _, err := os.Stat(fullPath); err != nil {
		return err
	}
	if !strings.HasPrefix(hash, "sha256:") {
		return nil
	}
	return hasher.VerifyFile(fullPath, hash)
}
