package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const visibleTokenChars = 8

// MaskToken keeps the first eight characters of a token and replaces the rest
// with '*'.
func MaskToken(token string) string {
	if len(token) <= visibleTokenChars {
		return token
	}
	return token[:visibleTokenChars] + strings.Repeat("*", len(token)-visibleTokenChars)
}

// Reachable reports whether rawURL answers a HEAD request with a 2xx status
// after following redirects. Transport errors, timeouts and non-2xx statuses
// all report false.
func (r *Resolver) Reachable(ctx context.Context, rawURL string, host Host) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		r.logger.Debug("probe request invalid", "url", rawURL, "err", err)
		return false
	}
	req.Header.Set("Accept", "*/*")
	r.setHeaders(req, host)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("probe failed", "url", rawURL, "err", err)
		return false
	}
	_ = resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	r.logger.Debug("probed", "url", rawURL, "status", resp.StatusCode, "reachable", ok)
	return ok
}

// setHeaders adds identification headers and, when a token is configured,
// the host's authorization header.
func (r *Resolver) setHeaders(req *http.Request, host Host) {
	req.Header.Set("User-Agent", r.userAgent)
	token := r.tokenFor(host, req.URL)
	if token == "" {
		return
	}

	name, value := authHeader(host, token)
	if name == "" {
		return
	}
	req.Header.Set(name, value)
	r.logger.Debug("attached token", "host", host, "header", name, "token", MaskToken(token))
}

// AuthHeader returns the header that authenticates a download of rawURL made
// for ref, or nil when no token may be sent there.
func (r *Resolver) AuthHeader(ref *Reference, rawURL string) http.Header {
	if ref == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	if ref.Host == HostCustom && !strings.EqualFold(u.Host, ref.Domain) {
		return nil
	}
	token := r.tokenFor(ref.Host, u)
	if token == "" {
		return nil
	}
	name, value := authHeader(ref.Host, token)
	if name == "" {
		return nil
	}
	r.logger.Debug("attached token to download", "host", ref.Host, "header", name, "token", MaskToken(token))
	header := http.Header{}
	header.Set(name, value)
	return header
}

// tokenFor returns the token configured for host if it may be sent to u.
// GitHub, GitLab and Gitea tokens only go to that forge's public domain and
// its subdomains; the GitHub token also goes to the API root and to
// githubusercontent.com. The custom token goes to any custom host.
func (r *Resolver) tokenFor(host Host, u *url.URL) string {
	token := r.tokens[host]
	if token == "" || u == nil {
		return ""
	}
	if host == HostCustom {
		return token
	}
	hostname := strings.ToLower(u.Hostname())
	if domain := defaultDomain(host); domain != "" && (hostname == domain || strings.HasSuffix(hostname, "."+domain)) {
		return token
	}
	if host != HostGitHub {
		return ""
	}
	if strings.HasSuffix(hostname, ".githubusercontent.com") {
		return token
	}
	if api, err := url.Parse(r.apiBaseURL); err == nil && strings.EqualFold(api.Host, u.Host) {
		return token
	}
	return ""
}

func authHeader(host Host, token string) (string, string) {
	switch host {
	case HostGitLab:
		return "PRIVATE-TOKEN", token
	case HostGitea:
		return "Authorization", "token " + token
	case HostSourceForge:
		return "", ""
	default:
		return "Authorization", "Bearer " + token
	}
}
