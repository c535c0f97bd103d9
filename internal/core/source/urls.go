package source

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const defaultBranch = "main"

// URL builds the per-host URL for the reference's tag. With page set it returns
// the human-facing tag or releases page, otherwise a directly downloadable
// archive. It performs no I/O and never fails.
func (r Reference) URL(page bool) string {
	base := "https://" + r.Domain
	repo := r.Repository
	repoPath := base + "/" + r.Owner + "/" + repo

	switch r.Host {
	case HostGitHub:
		switch {
		case r.IsLatest():
			return repoPath + "/releases/latest"
		case r.HasTag() && page:
			return repoPath + "/releases/tag/" + r.Tag
		case r.HasTag():
			return r.TagArchiveURL(r.Tag, ".tar.gz")
		}
		return r.BranchArchiveURL(defaultBranch)

	case HostGitLab:
		switch {
		case r.HasTag() && page:
			return repoPath + "/-/tags/" + r.Tag
		case r.HasTag() && !r.IsLatest():
			return r.TagArchiveURL(r.Tag, ".tar.gz")
		}
		return r.BranchArchiveURL(defaultBranch)

	case HostGitea:
		switch {
		case r.IsLatest():
			// No release page exists for the sentinel; use the branch snapshot.
		case r.HasTag() && page:
			return repoPath + "/" + repo + "/tags/" + r.Tag
		case r.HasTag():
			return r.TagArchiveURL(r.Tag, ".tar.gz")
		}
		return r.BranchArchiveURL(defaultBranch)

	case HostSourceForge:
		if r.HasTag() && !r.IsLatest() {
			return fmt.Sprintf("%s/projects/%s/files/%s/download", base, repo, r.Tag)
		}
		return fmt.Sprintf("%s/projects/%s/files/latest/download", base, repo)

	default:
		switch {
		case r.IsLatest():
		case r.HasTag() && page:
			return repoPath + "/releases/tag/" + r.Tag
		case r.HasTag():
			return r.TagArchiveURL(r.Tag, ".tar.gz")
		}
		return r.BranchArchiveURL(defaultBranch)
	}
}

// TagArchiveURL builds the source archive URL for a concrete tag. ext is
// ".tar.gz" or ".zip".
func (r Reference) TagArchiveURL(tag, ext string) string {
	base := "https://" + r.Domain
	repoPath := base + "/" + r.Owner + "/" + r.Repository

	switch r.Host {
	case HostGitLab:
		return fmt.Sprintf("%s/-/archive/%s/%s-%s%s", repoPath, tag, r.Repository, tag, ext)
	case HostGitea:
		return fmt.Sprintf("%s/%s/archive/%s%s", repoPath, r.Repository, tag, ext)
	case HostSourceForge:
		return fmt.Sprintf("%s/projects/%s/files/%s/download", base, r.Repository, tag)
	default:
		return fmt.Sprintf("%s/archive/refs/tags/%s%s", repoPath, tag, ext)
	}
}

// BranchArchiveURL builds the zip snapshot URL of a branch. SourceForge has no
// branches and always yields its latest-file download.
func (r Reference) BranchArchiveURL(branch string) string {
	base := "https://" + r.Domain
	repoPath := base + "/" + r.Owner + "/" + r.Repository

	switch r.Host {
	case HostGitLab:
		return fmt.Sprintf("%s/-/archive/%s/%s-%s.zip", repoPath, branch, r.Repository, branch)
	case HostGitea:
		return fmt.Sprintf("%s/%s/archive/%s.zip", repoPath, r.Repository, branch)
	case HostSourceForge:
		return fmt.Sprintf("%s/projects/%s/files/latest/download", base, r.Repository)
	default:
		return fmt.Sprintf("%s/archive/refs/heads/%s.zip", repoPath, branch)
	}
}

// SuggestedFilename returns the last path segment of rawURL, or
// "<repository>.zip" when the URL has none.
func SuggestedFilename(rawURL, repository string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	name := path.Base(strings.TrimSuffix(p, "/"))
	if name == "" || name == "." || name == "/" {
		return repository + ".zip"
	}
	return name
}
