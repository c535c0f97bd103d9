// Package self implements "self update", which replaces the running binary
// with the newest GitHub release.
package self

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
)

// DefaultRepository is where sampkit releases are published.
const DefaultRepository = "nightconcept/sampkit"

// NewSelfCommand creates a new command for self-management.
func NewSelfCommand() *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the sampkit CLI application itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update sampkit to the latest version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "GitHub update source as 'owner/repo'",
						Value: DefaultRepository,
					},
				},
				Action: updateAction,
			},
		},
	}
}

// ParseVersion accepts versions with or without a leading "v".
func ParseVersion(version string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
	if err != nil {
		return nil, fmt.Errorf("error parsing current version '%s': %w. Ensure version is like vX.Y.Z or X.Y.Z", version, err)
	}
	return v, nil
}

// ValidateSlug checks an "owner/repo" update source.
func ValidateSlug(slug string) error {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("invalid --source format. Expected 'owner/repo', got: %s", slug)
	}
	return nil
}

// Confirm reads a yes/no answer; only "y" and "yes" count as yes.
func Confirm(out io.Writer, in io.Reader, question string) bool {
	_, _ = fmt.Fprintf(out, "%s (y/N): ", question)
	input, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(input))
	return answer == "y" || answer == "yes"
}

func updateAction(c *cli.Context) error {
	e, err := env.New(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	currentVersionStr := c.App.Version
	currentSemVer, err := ParseVersion(currentVersionStr)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	e.Logger.Debug("current version", "version", currentSemVer.String())

	repoSlug := c.String("source")
	if err := ValidateSlug(repoSlug); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{
		APIToken: c.String(env.FlagToken),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), 1)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: ghSource})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), 1)
	}

	e.Logger.Debug("checking for latest version", "source", repoSlug)
	latestRelease, found, err := updater.DetectLatest(c.Context, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}
	if !found || !latestRelease.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(e.Out, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}

	_, _ = fmt.Fprintf(e.Out, "New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)
	if latestRelease.ReleaseNotes != "" {
		e.Logger.Info("release notes", "notes", latestRelease.ReleaseNotes)
	}
	if c.Bool("check") {
		return nil
	}

	if !c.Bool("yes") {
		var in io.Reader = os.Stdin
		if c.App.Reader != nil {
			in = c.App.Reader
		}
		if !Confirm(e.Out, in, "Do you want to update?") {
			_, _ = fmt.Fprintln(e.Out, "Update cancelled.")
			return nil
		}
	}

	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	_, _ = fmt.Fprintf(e.Out, "Updating to %s...\n", latestRelease.Version())
	if err := updater.UpdateTo(c.Context, latestRelease, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	_, _ = fmt.Fprintf(e.Out, "Successfully updated to version %s.\n", latestRelease.Version())
	return nil
}
