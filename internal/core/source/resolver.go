package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultGitHubAPIBaseURL is the GitHub REST API v3 root.
const DefaultGitHubAPIBaseURL = "https://api.github.com"

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxAssets = 10
	defaultUserAgent = "sampkit"
)

// ErrNotFound is returned when no release asset, tag archive or branch
// snapshot of a reference is reachable.
var ErrNotFound = errors.New("dependency not found")

// AssetKind says which resolution step produced an Asset.
type AssetKind string

const (
	KindReleaseAsset  AssetKind = "release-asset"
	KindTagArchive    AssetKind = "tag-archive"
	KindBranchArchive AssetKind = "branch-archive"
)

// Asset is a verified, downloadable URL for a reference.
type Asset struct {
	URL      string
	Filename string
	Kind     AssetKind
	Tag      string // concrete tag, empty for branch snapshots
	Branch   string // branch used for a snapshot
	FellBack bool   // the "master" branch was used after "main" was unreachable
}

// Options configures a Resolver. The zero value is usable.
type Options struct {
	// Token authenticates GitHub requests.
	Token string
	// HostTokens holds tokens for other hosts, sent with the host's own
	// authorization header. An entry for HostGitHub overrides Token.
	HostTokens map[Host]string
	// Platform selects release assets; empty means the build platform.
	Platform string
	// APIBaseURL overrides DefaultGitHubAPIBaseURL.
	APIBaseURL string
	// HTTPClient is used for every request. Its Timeout is replaced by Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
	// MaxAssets caps release asset enumeration.
	MaxAssets int
	UserAgent string
	Logger    *log.Logger
}

// Resolver resolves references into downloadable URLs. It holds no state
// between calls.
type Resolver struct {
	client     *http.Client
	apiBaseURL string
	tokens     map[Host]string
	platform   string
	maxAssets  int
	userAgent  string
	logger     *log.Logger
}

// NewResolver creates a Resolver from opts, filling in defaults.
func NewResolver(opts Options) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		c.Timeout = timeout
		client = &c
	}
	apiBaseURL := opts.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = DefaultGitHubAPIBaseURL
	}
	maxAssets := opts.MaxAssets
	if maxAssets <= 0 {
		maxAssets = defaultMaxAssets
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tokens := make(map[Host]string, len(opts.HostTokens)+1)
	if opts.Token != "" {
		tokens[HostGitHub] = opts.Token
	}
	for host, token := range opts.HostTokens {
		if token != "" {
			tokens[host] = token
		}
	}

	return &Resolver{
		client:     client,
		apiBaseURL: apiBaseURL,
		tokens:     tokens,
		platform:   NormalizePlatform(opts.Platform),
		maxAssets:  maxAssets,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Platform returns the normalized platform used for asset selection.
func (r *Resolver) Platform() string {
	return r.platform
}

// Resolve turns ref into a verified downloadable URL. The preference order is
// prebuilt release assets, then tagged source archives, then branch snapshots.
func (r *Resolver) Resolve(ctx context.Context, ref *Reference) (*Asset, error) {
	if ref == nil || ref.Repository == "" || (ref.Host != HostSourceForge && ref.Owner == "") {
		return nil, ErrInvalidReference
	}

	tag := ref.Tag
	if ref.IsLatest() {
		tag = ""
		if ref.Host == HostGitHub {
			latest, err := r.latestTag(ctx, r.apiBaseFor(ref), ref.Owner, ref.Repository)
			if err != nil {
				r.logger.Warn("could not resolve latest release, falling back to branches", "ref", ref.String(), "err", err)
			} else {
				r.logger.Info("resolved latest tag", "ref", ref.String(), "tag", latest)
				tag = latest
			}
		} else {
			r.logger.Debug("latest tag lookup unavailable for host", "host", ref.Host)
		}
	}

	if tag != "" {
		if asset, ok := r.resolveTag(ctx, ref, tag); ok {
			return asset, nil
		}
		return nil, fmt.Errorf("%w: %s (tag %s)", ErrNotFound, ref.String(), tag)
	}

	if asset, ok := r.resolveBranch(ctx, ref); ok {
		return asset, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.String())
}

func (r *Resolver) resolveTag(ctx context.Context, ref *Reference, tag string) (*Asset, bool) {
	if ref.Host != HostGitHub {
		candidate := *ref
		candidate.Tag = tag
		u := candidate.URL(false)
		if !r.Reachable(ctx, u, ref.Host) {
			return nil, false
		}
		return r.newAsset(ref, u, KindTagArchive, tag, ""), true
	}

	assets := r.releaseAssets(ctx, r.apiBaseFor(ref), ref.Owner, ref.Repository, tag)
	if picked, ok := SelectAsset(assets, r.platform); ok {
		r.logger.Debug("selected release asset", "url", picked, "candidates", len(assets), "platform", r.platform)
		return r.newAsset(ref, picked, KindReleaseAsset, tag, ""), true
	}

	for _, ext := range []string{".tar.gz", ".zip"} {
		u := ref.TagArchiveURL(tag, ext)
		if r.Reachable(ctx, u, ref.Host) {
			return r.newAsset(ref, u, KindTagArchive, tag, ""), true
		}
	}
	return nil, false
}

func (r *Resolver) resolveBranch(ctx context.Context, ref *Reference) (*Asset, bool) {
	branches := []string{defaultBranch, "master"}
	if ref.Host == HostSourceForge {
		branches = branches[:1]
	}
	for i, branch := range branches {
		u := ref.BranchArchiveURL(branch)
		if !r.Reachable(ctx, u, ref.Host) {
			continue
		}
		snapshot := branch
		if ref.Host == HostSourceForge {
			snapshot = ""
		}
		asset := r.newAsset(ref, u, KindBranchArchive, "", snapshot)
		if i > 0 {
			asset.FellBack = true
			r.logger.Warn("main branch not found, using fallback branch", "ref", ref.String(), "branch", branch)
		}
		return asset, true
	}
	return nil, false
}

func (r *Resolver) newAsset(ref *Reference, u string, kind AssetKind, tag, branch string) *Asset {
	return &Asset{
		URL:      u,
		Filename: SuggestedFilename(u, ref.Repository),
		Kind:     kind,
		Tag:      tag,
		Branch:   branch,
	}
}
