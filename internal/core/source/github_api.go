package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxAPIResponseBytes bounds how much of a release document is read.
const maxAPIResponseBytes = 8 << 20

// GitHubRelease is the subset of a GitHub release object the resolver reads.
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// LatestTag returns the tag name of the newest release of owner/repo.
func (r *Resolver) LatestTag(ctx context.Context, owner, repo string) (string, error) {
	return r.latestTag(ctx, r.apiBaseURL, owner, repo)
}

func (r *Resolver) latestTag(ctx context.Context, apiBase, owner, repo string) (string, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/releases/latest", url.PathEscape(owner), url.PathEscape(repo))
	release, err := r.getRelease(ctx, apiBase, endpoint)
	if err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", fmt.Errorf("latest release of %s/%s has no tag_name", owner, repo)
	}
	return release.TagName, nil
}

// ReleaseAssets lists the download URLs of the release tagged tag, in the order
// the API reports them, capped at the configured maximum. Any failure yields
// an empty list.
func (r *Resolver) ReleaseAssets(ctx context.Context, owner, repo, tag string) []string {
	return r.releaseAssets(ctx, r.apiBaseURL, owner, repo, tag)
}

func (r *Resolver) releaseAssets(ctx context.Context, apiBase, owner, repo, tag string) []string {
	endpoint := fmt.Sprintf("repos/%s/%s/releases/tags/%s", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(tag))
	release, err := r.getRelease(ctx, apiBase, endpoint)
	if err != nil {
		r.logger.Debug("release lookup failed", "owner", owner, "repo", repo, "tag", tag, "err", err)
		return nil
	}

	var urls []string
	for _, asset := range release.Assets {
		if len(urls) == r.maxAssets {
			break
		}
		if asset.BrowserDownloadURL == "" {
			continue
		}
		urls = append(urls, asset.BrowserDownloadURL)
	}
	return urls
}

// apiBaseFor returns the REST root to query for ref. References to a GitHub
// Enterprise domain use that server's /api/v3 root unless an API root was
// configured explicitly.
func (r *Resolver) apiBaseFor(ref *Reference) string {
	if ref.Domain == "" || strings.EqualFold(ref.Domain, defaultDomain(HostGitHub)) || r.apiBaseURL != DefaultGitHubAPIBaseURL {
		return r.apiBaseURL
	}
	return "https://" + ref.Domain + "/api/v3"
}

func (r *Resolver) getRelease(ctx context.Context, apiBase, endpoint string) (*GitHubRelease, error) {
	apiURL := strings.TrimSuffix(apiBase, "/") + "/" + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to GitHub API: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	r.setHeaders(req, HostGitHub)

	r.logger.Debug("querying GitHub API", "url", apiURL)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call GitHub API (%s): %w", apiURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GitHub API request failed with status %s (%s)", resp.Status, apiURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from GitHub API (%s): %w", apiURL, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response from GitHub API (%s)", apiURL)
	}

	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GitHub API response (%s): %w", apiURL, err)
	}
	return &release, nil
}
