// Package source turns short dependency references such as
// "github/user/repo:v1.2" into verified, downloadable archive URLs.
package source

import (
	"errors"
	"fmt"
	"strings"
)

// Host identifies the kind of source host a reference points at.
type Host string

const (
	HostGitHub      Host = "github"
	HostGitLab      Host = "gitlab"
	HostGitea       Host = "gitea"
	HostSourceForge Host = "sourceforge"
	HostCustom      Host = "custom"
)

// LatestTag is the tag sentinel meaning "the newest release".
const LatestTag = "latest"

// ErrInvalidReference is returned when owner or repository cannot be extracted.
var ErrInvalidReference = errors.New("invalid dependency reference")

// knownHosts is ordered: prefix and substring detection walk it front to back.
var knownHosts = []struct {
	host   Host
	domain string
}{
	{HostGitHub, "github.com"},
	{HostGitLab, "gitlab.com"},
	{HostGitea, "gitea.com"},
	{HostSourceForge, "sourceforge.net"},
}

// Reference is a parsed dependency reference.
type Reference struct {
	Host       Host
	Domain     string
	Owner      string // empty for sourceforge projects
	Repository string
	Tag        string // "" when absent, LatestTag for the sentinel
}

// String renders the reference in its short form, e.g. "gitlab/user/repo:v1".
func (r Reference) String() string {
	var b strings.Builder
	if r.Domain == defaultDomain(r.Host) {
		b.WriteString(string(r.Host))
	} else {
		b.WriteString(r.Domain)
	}
	if r.Owner != "" {
		b.WriteString("/")
		b.WriteString(r.Owner)
	}
	b.WriteString("/")
	b.WriteString(r.Repository)
	if r.Tag != "" {
		b.WriteString(":")
		b.WriteString(r.Tag)
	}
	return b.String()
}

// HasTag reports whether a concrete or sentinel tag was supplied.
func (r Reference) HasTag() bool {
	return r.Tag != ""
}

// IsLatest reports whether the tag is the "latest" sentinel.
func (r Reference) IsLatest() bool {
	return r.Tag == LatestTag
}

// ParseReference parses a single dependency token.
//
// Accepted forms include "user/repo", "github/user/repo:tag",
// "https://gitlab.com/user/repo.git", "git.example.org/user/repo" and
// "sourceforge/project".
func ParseReference(input string) (*Reference, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	path := raw
	for _, scheme := range []string{"https://", "http://"} {
		if len(path) >= len(scheme) && strings.EqualFold(path[:len(scheme)], scheme) {
			path = path[len(scheme):]
			break
		}
	}

	var tag string
	// A colon followed by a slash is a port, not a tag.
	if idx := strings.LastIndex(path, ":"); idx != -1 && !strings.Contains(path[idx+1:], "/") {
		tag = path[idx+1:]
		path = path[:idx]
	}

	ref := &Reference{Tag: tag}
	path = strings.Trim(path, "/")

	if host, domain, rest, ok := cutHostPrefix(path); ok {
		ref.Host, ref.Domain, path = host, domain, rest
	} else if slash := strings.Index(path, "/"); slash != -1 && strings.Contains(path[:slash], ".") {
		domain := path[:slash]
		ref.Host = hostForDomain(domain)
		ref.Domain = domain
		path = path[slash+1:]
	} else {
		ref.Host, ref.Domain = HostGitHub, "github.com"
	}

	owner, repo, found := strings.Cut(path, "/")
	switch {
	case ref.Host == HostSourceForge && !found:
		owner, repo = "", owner
	case ref.Host == HostSourceForge && owner == "":
		// "sourceforge//project" style input; the single segment is the project.
	case !found:
		return nil, fmt.Errorf("%w: %q has no owner/repository separator", ErrInvalidReference, input)
	}
	repo = strings.TrimSuffix(repo, "/")

	if ref.Host != HostSourceForge {
		repo = strings.TrimSuffix(repo, ".git")
	}

	if (ref.Host != HostSourceForge && owner == "") || repo == "" {
		return nil, fmt.Errorf("%w: %q is missing an owner or repository", ErrInvalidReference, input)
	}

	if (owner != "" && !validPath(owner)) || !validPath(repo) {
		return nil, fmt.Errorf("%w: %q contains an empty, relative or backslash path segment", ErrInvalidReference, input)
	}

	ref.Owner = owner
	ref.Repository = repo
	return ref, nil
}

// validPath reports whether every slash separated segment of p names a plain
// directory: not empty, not "." or "..", and free of backslashes.
func validPath(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." || segment == ".." || strings.Contains(segment, `\`) {
			return false
		}
	}
	return true
}
