// Package env turns the global command line flags into the logger, resolver
// and installer that commands share.
package env

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/core/downloader"
	"github.com/nightconcept/sampkit/internal/core/installer"
	"github.com/nightconcept/sampkit/internal/core/logging"
	"github.com/nightconcept/sampkit/internal/core/source"
)

const (
	FlagProject      = "project"
	FlagToken        = "token"
	FlagGitLabToken  = "gitlab-token"
	FlagGiteaToken   = "gitea-token"
	FlagCustomToken  = "custom-token"
	FlagOS           = "os"
	FlagGitHubAPIURL = "github-api-url"
	FlagTimeout      = "timeout"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
	FlagVerbose      = "verbose"
)

// HTTPClientKey is the App.Metadata key for an *http.Client that replaces the
// default client for every request.
const HTTPClientKey = "sampkit.http-client"

const defaultTimeout = 30 * time.Second

// Flags returns the global flags understood by New.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagProject,
			Aliases: []string{"C"},
			Usage:   "Run as if sampkit was started in `DIR`",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:    FlagToken,
			Usage:   "GitHub token used for API calls and downloads",
			EnvVars: []string{"SAMPKIT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"},
		},
		&cli.StringFlag{
			Name:    FlagGitLabToken,
			Usage:   "GitLab private token",
			EnvVars: []string{"GITLAB_TOKEN"},
		},
		&cli.StringFlag{
			Name:    FlagGiteaToken,
			Usage:   "Gitea access token",
			EnvVars: []string{"GITEA_TOKEN"},
		},
		&cli.StringFlag{
			Name:    FlagCustomToken,
			Usage:   "Bearer token for self-hosted forges that are not GitHub, GitLab or Gitea",
			EnvVars: []string{"SAMPKIT_CUSTOM_TOKEN"},
		},
		&cli.StringFlag{
			Name:    FlagOS,
			Usage:   "Platform used to pick release assets (windows, linux, macos)",
			EnvVars: []string{"SAMPKIT_OS"},
		},
		&cli.StringFlag{
			Name:    FlagGitHubAPIURL,
			Usage:   "GitHub REST API root",
			Value:   source.DefaultGitHubAPIBaseURL,
			EnvVars: []string{"SAMPKIT_GITHUB_API_URL"},
		},
		&cli.DurationFlag{
			Name:  FlagTimeout,
			Usage: "Timeout for each resolver request",
			Value: defaultTimeout,
		},
		&cli.StringFlag{
			Name:    FlagLogLevel,
			Usage:   "Log level (debug, info, warn, error)",
			Value:   logging.LevelWarn,
			EnvVars: []string{"SAMPKIT_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    FlagLogFormat,
			Usage:   "Log format (text, json, logfmt)",
			Value:   logging.FormatText,
			EnvVars: []string{"SAMPKIT_LOG_FORMAT"},
		},
		&cli.BoolFlag{
			Name:    FlagVerbose,
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// Env is what a command needs to do its work.
type Env struct {
	Root      string
	Out       io.Writer
	Err       io.Writer
	Logger    *log.Logger
	Resolver  *source.Resolver
	Installer *installer.Installer
}

// ProjectRoot returns the directory given by --project.
func ProjectRoot(c *cli.Context) string {
	if root := c.String(FlagProject); root != "" {
		return root
	}
	return "."
}

// Writers returns the app's output and error writers, defaulting to the
// process streams.
func Writers(c *cli.Context) (io.Writer, io.Writer) {
	var out, errOut io.Writer = os.Stdout, os.Stderr
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}
	if c.App != nil && c.App.ErrWriter != nil {
		errOut = c.App.ErrWriter
	}
	return out, errOut
}

// New builds an Env from the global flags of c.
func New(c *cli.Context) (*Env, error) {
	out, errOut := Writers(c)

	level := c.String(FlagLogLevel)
	if c.Bool(FlagVerbose) {
		level = logging.LevelDebug
	}
	logger, err := logging.New(errOut, level, c.String(FlagLogFormat))
	if err != nil {
		return nil, err
	}

	var httpClient *http.Client
	if c.App != nil && c.App.Metadata != nil {
		httpClient, _ = c.App.Metadata[HTTPClientKey].(*http.Client)
	}

	userAgent := "sampkit"
	if c.App != nil && c.App.Version != "" {
		userAgent = fmt.Sprintf("sampkit/%s", c.App.Version)
	}

	resolver := source.NewResolver(source.Options{
		Token: c.String(FlagToken),
		HostTokens: map[source.Host]string{
			source.HostGitLab: c.String(FlagGitLabToken),
			source.HostGitea:  c.String(FlagGiteaToken),
			source.HostCustom: c.String(FlagCustomToken),
		},
		Platform:   c.String(FlagOS),
		APIBaseURL: c.String(FlagGitHubAPIURL),
		HTTPClient: httpClient,
		Timeout:    c.Duration(FlagTimeout),
		UserAgent:  userAgent,
		Logger:     logger,
	})
	dl := downloader.New(downloader.Options{
		HTTPClient: httpClient,
		UserAgent:  userAgent,
		Logger:     logger,
	})

	root := ProjectRoot(c)
	logger.Debug("environment ready", "root", root, "platform", resolver.Platform())
	return &Env{
		Root:      root,
		Out:       out,
		Err:       errOut,
		Logger:    logger,
		Resolver:  resolver,
		Installer: installer.New(root, resolver, dl, logger),
	}, nil
}
