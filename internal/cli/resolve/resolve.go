// Package resolve implements the "resolve" command, which prints where a
// reference would be downloaded from without downloading it.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
	"github.com/nightconcept/sampkit/internal/core/source"
)

// NewResolveCommand creates the "resolve" command.
func NewResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Prints the download URL for each reference",
		ArgsUsage: "<reference> [reference...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "page",
				Usage: "Print the human readable page URL instead (no network access)",
			},
			&cli.BoolFlag{
				Name:    "details",
				Aliases: []string{"l"},
				Usage:   "Also print how each URL was found",
			},
		},
		Action: resolveAction,
	}
}

func resolveAction(c *cli.Context) error {
	references := c.Args().Slice()
	if len(references) == 0 {
		return cli.Exit("Error: at least one <reference> argument is required.", 1)
	}

	e, err := env.New(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	urlColor := color.New(color.FgCyan).SprintFunc()
	detailColor := color.New(color.FgHiBlack).SprintFunc()

	var resolved int
	for _, raw := range references {
		reference := strings.TrimSpace(raw)
		ref, err := source.ParseReference(reference)
		if err != nil {
			_, _ = fmt.Fprintf(e.Err, "%s: %v\n", reference, err)
			continue
		}

		if c.Bool("page") {
			_, _ = fmt.Fprintln(e.Out, urlColor(ref.URL(true)))
			resolved++
			continue
		}

		asset, err := e.Resolver.Resolve(c.Context, ref)
		if err != nil {
			if errors.Is(err, source.ErrNotFound) {
				_, _ = fmt.Fprintf(e.Err, "%s: dependency not found\n", reference)
			} else {
				_, _ = fmt.Fprintf(e.Err, "%s: %v\n", reference, err)
			}
			continue
		}
		resolved++

		if !c.Bool("details") {
			_, _ = fmt.Fprintln(e.Out, urlColor(asset.URL))
			continue
		}
		_, _ = fmt.Fprintf(e.Out, "%s %s\n", urlColor(asset.URL), detailColor(describe(asset)))
	}

	if resolved == 0 {
		return cli.Exit("Error: no reference could be resolved.", 1)
	}
	return nil
}

func describe(asset *source.Asset) string {
	switch asset.Kind {
	case source.KindReleaseAsset:
		return fmt.Sprintf("(release asset, tag %s)", asset.Tag)
	case source.KindTagArchive:
		return fmt.Sprintf("(tag archive, tag %s)", asset.Tag)
	default:
		if asset.Branch == "" {
			return "(latest snapshot)"
		}
		if asset.FellBack {
			return fmt.Sprintf("(branch %s, main not found)", asset.Branch)
		}
		return fmt.Sprintf("(branch %s)", asset.Branch)
	}
}
