package installer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/sampkit/internal/core/downloader"
	"github.com/nightconcept/sampkit/internal/core/hasher"
	"github.com/nightconcept/sampkit/internal/core/installer"
	"github.com/nightconcept/sampkit/internal/core/source"
	"github.com/nightconcept/sampkit/internal/testutil"
)

func newInstaller(t *testing.T, forge *testutil.Forge) (*installer.Installer, string) {
	t.Helper()
	root := t.TempDir()
	resolver := source.NewResolver(source.Options{HTTPClient: forge.Client(), Platform: "linux"})
	dl := downloader.New(downloader.Options{HTTPClient: forge.Client(), RetryMax: 1})
	return installer.New(root, resolver, dl, nil), root
}

func TestAdd_ReleaseAsset(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	assetURL := "https://github.com/samp-incognito/samp-streamer-plugin/releases/download/v2.9.6/samp-streamer-plugin-2.9.6-linux.tar.gz"
	forge.Release("/repos/samp-incognito/samp-streamer-plugin/releases/latest", "v2.9.6")
	forge.Release("/repos/samp-incognito/samp-streamer-plugin/releases/tags/v2.9.6", "v2.9.6",
		"https://github.com/samp-incognito/samp-streamer-plugin/releases/download/v2.9.6/samp-streamer-plugin-2.9.6-win32.zip",
		assetURL,
	)
	forge.File(assetURL, []byte("streamer"))

	inst, root := newInstaller(t, forge)
	res, err := inst.Add(context.Background(), "github/samp-incognito/samp-streamer-plugin:latest", "")
	require.NoError(t, err)

	assert.Equal(t, "dependencies/samp-streamer-plugin/samp-streamer-plugin-2.9.6-linux.tar.gz", res.Path)
	assert.Equal(t, assetURL, res.Asset.URL)
	assert.Equal(t, "v2.9.6", res.Asset.Tag)
	assert.Equal(t, source.KindReleaseAsset, res.Asset.Kind)

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(res.Path)))
	require.NoError(t, err)
	assert.Equal(t, "streamer", string(content))

	want, err := hasher.CalculateSHA256([]byte("streamer"))
	require.NoError(t, err)
	assert.Equal(t, want, res.Hash)
	assert.Equal(t, len("streamer"), res.Size)
	assert.True(t, inst.Exists(res.Path))
}

func TestAdd_BranchSnapshotCustomDirectory(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	forge.File("https://gitlab.com/acme/widget/-/archive/main/widget-main.zip", []byte("zip"))

	inst, root := newInstaller(t, forge)
	res, err := inst.Add(context.Background(), "gitlab/acme/widget", "include")
	require.NoError(t, err)

	assert.Equal(t, "include/widget/widget-main.zip", res.Path)
	assert.Equal(t, "main", res.Asset.Branch)
	assert.FileExists(t, filepath.Join(root, "include", "widget", "widget-main.zip"))
}

func TestAdd_NotFound(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)

	inst, root := newInstaller(t, forge)
	_, err := inst.Add(context.Background(), "github/acme/missing", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrNotFound)

	_, statErr := os.Stat(filepath.Join(root, installer.DefaultDirectory))
	assert.True(t, os.IsNotExist(statErr), "nothing is written for an unresolvable reference")
}

func TestAdd_InvalidReference(t *testing.T) {
	t.Parallel()
	inst, _ := newInstaller(t, testutil.NewForge(t))
	_, err := inst.Add(context.Background(), "github/", "")
	assert.ErrorIs(t, err, source.ErrInvalidReference)
}

func TestAdd_DownloadFailure(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	inst, _ := newInstaller(t, forge)

	ref, err := source.ParseReference("github/acme/widget")
	require.NoError(t, err)
	asset := &source.Asset{URL: "https://github.com/acme/widget/archive/refs/heads/main.zip", Filename: "main.zip"}

	_, err = inst.Fetch(context.Background(), ref, asset, "dependencies/widget/main.zip")
	assert.ErrorIs(t, err, downloader.ErrBadStatus)
	assert.False(t, inst.Exists("dependencies/widget/main.zip"))
}

func TestTargetPath(t *testing.T) {
	t.Parallel()
	ref := &source.Reference{Host: source.HostGitHub, Owner: "acme", Repository: "widget"}
	asset := &source.Asset{Filename: "v1.0.tar.gz"}
	assert.Equal(t, "dependencies/widget/v1.0.tar.gz", installer.TargetPath("", ref, asset))
	assert.Equal(t, "plugins/widget/v1.0.tar.gz", installer.TargetPath("plugins/", ref, asset))
}

func TestUninstall(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "dependencies", "widget")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.zip"), []byte("x"), 0o644))

	require.NoError(t, installer.Uninstall(root, "dependencies/widget/main.zip"))
	assert.NoFileExists(t, filepath.Join(dir, "main.zip"))
	assert.NoDirExists(t, dir, "empty parent directory is removed")
	assert.DirExists(t, filepath.Join(root, "dependencies"))

	assert.NoError(t, installer.Uninstall(root, "dependencies/widget/main.zip"), "missing file is not an error")
}

func TestUninstall_KeepsNonEmptyParent(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "dependencies", "widget")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v1.zip"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v2.zip"), []byte("2"), 0o644))

	require.NoError(t, installer.Uninstall(root, "dependencies/widget/v1.zip"))
	assert.FileExists(t, filepath.Join(dir, "v2.zip"))
}

func TestRestore(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	lockedURL := "https://github.com/acme/widget/archive/refs/tags/v1.0.tar.gz"
	forge.File(lockedURL, []byte("locked"))
	hash, err := hasher.CalculateSHA256([]byte("locked"))
	require.NoError(t, err)

	inst, root := newInstaller(t, forge)
	require.NoError(t, inst.Restore(context.Background(), nil, lockedURL, "dependencies/widget/v1.0.tar.gz", hash))

	content, err := os.ReadFile(filepath.Join(root, "dependencies", "widget", "v1.0.tar.gz"))
	require.NoError(t, err)
	assert.Equal(t, "locked", string(content))
}

func TestRestore_HashMismatch(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	lockedURL := "https://github.com/acme/widget/archive/refs/tags/v1.0.tar.gz"
	forge.File(lockedURL, []byte("tampered"))
	hash, err := hasher.CalculateSHA256([]byte("locked"))
	require.NoError(t, err)

	inst, _ := newInstaller(t, forge)
	err = inst.Restore(context.Background(), nil, lockedURL, "dependencies/widget/v1.0.tar.gz", hash)
	assert.ErrorIs(t, err, hasher.ErrMismatch)
	assert.False(t, inst.Exists("dependencies/widget/v1.0.tar.gz"))
}

func TestAdd_RejectsTraversalReference(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	forge.File("https://git.example.org/escaped/archive/refs/heads/main.zip", []byte("zip"))

	inst, root := newInstaller(t, forge)
	_, err := inst.Add(context.Background(), "git.example.org/acme/../../../escaped", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrInvalidReference)
	assert.Empty(t, forge.Requests())
	assert.NoDirExists(t, filepath.Join(filepath.Dir(root), "escaped"))
}

func TestFetch_RefusesPathOutsideRoot(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	archiveURL := "https://github.com/acme/widget/archive/refs/heads/main.zip"
	forge.File(archiveURL, []byte("zip"))

	parent := t.TempDir()
	root := filepath.Join(parent, "proj")
	require.NoError(t, os.Mkdir(root, 0o755))
	resolver := source.NewResolver(source.Options{HTTPClient: forge.Client(), Platform: "linux"})
	dl := downloader.New(downloader.Options{HTTPClient: forge.Client(), RetryMax: 1})
	inst := installer.New(root, resolver, dl, nil)

	ref, err := source.ParseReference("acme/widget")
	require.NoError(t, err)
	asset := &source.Asset{URL: archiveURL, Filename: "main.zip", Kind: source.KindBranchArchive, Branch: "main"}

	for _, relPath := range []string{"../escaped/main.zip", "/tmp/main.zip", ".", ""} {
		_, err := inst.Fetch(context.Background(), ref, asset, relPath)
		require.Error(t, err, relPath)
		assert.ErrorIs(t, err, installer.ErrOutsideRoot, relPath)
		assert.False(t, inst.Exists(relPath), relPath)
	}
	assert.NoDirExists(t, filepath.Join(parent, "escaped"))
	assert.Empty(t, forge.Requests())
}

func TestRestore_RefusesPathOutsideRoot(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	inst, _ := newInstaller(t, forge)

	err := inst.Restore(context.Background(), nil, "https://github.com/acme/widget/archive/refs/heads/main.zip", "dependencies/../../main.zip", "sha256:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, installer.ErrOutsideRoot)
	assert.Empty(t, forge.Requests())
}

func TestUninstall_RefusesPathOutsideRoot(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()
	root := filepath.Join(parent, "proj")
	require.NoError(t, os.Mkdir(root, 0o755))
	victim := filepath.Join(parent, "keep.txt")
	require.NoError(t, os.WriteFile(victim, []byte("keep"), 0o644))

	err := installer.Uninstall(root, "../keep.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, installer.ErrOutsideRoot)
	assert.FileExists(t, victim)
	assert.DirExists(t, root)
}

func TestFetch_SendsHostTokenToDownload(t *testing.T) {
	t.Parallel()
	forge := testutil.NewForge(t)
	assetURL := "https://github.com/acme/private/releases/download/v1/private-linux.zip"
	forge.Release("/repos/acme/private/releases/tags/v1", "v1", assetURL)
	forge.File(assetURL, []byte("secret build"))

	resolver := source.NewResolver(source.Options{HTTPClient: forge.Client(), Platform: "linux", Token: "ghp_private"})
	dl := downloader.New(downloader.Options{HTTPClient: forge.Client(), RetryMax: 1})
	inst := installer.New(t.TempDir(), resolver, dl, nil)

	_, err := inst.Add(context.Background(), "acme/private:v1", "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer ghp_private", forge.Header("GET /acme/private/releases/download/v1/private-linux.zip").Get("Authorization"))
}
