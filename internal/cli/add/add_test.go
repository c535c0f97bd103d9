package add

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/core/config"
	"github.com/nightconcept/sampkit/internal/core/hasher"
	"github.com/nightconcept/sampkit/internal/core/lockfile"
	"github.com/nightconcept/sampkit/internal/core/project"
	"github.com/nightconcept/sampkit/internal/testutil"
)

const baseProjectToml = `
[package]
name = "freeroam"
version = "0.1.0"
`

// setupAddTestEnvironment creates a temporary project directory, optionally
// with an initial project.toml.
func setupAddTestEnvironment(t *testing.T, initialProjectTomlContent string) string {
	t.Helper()
	tempDir := t.TempDir()
	if initialProjectTomlContent != "" {
		testutil.WriteFiles(t, tempDir, map[string]string{config.ProjectTomlName: initialProjectTomlContent})
	}
	return tempDir
}

func runAddCommand(t *testing.T, forge *testutil.Forge, workDir string, args ...string) (string, string, error) {
	t.Helper()
	return testutil.Run(t, forge, workDir, []*cli.Command{NewAddCommand()}, append([]string{"add"}, args...)...)
}

func readProjectToml(t *testing.T, dir string) project.Project {
	t.Helper()
	var projCfg project.Project
	_, err := toml.DecodeFile(filepath.Join(dir, config.ProjectTomlName), &projCfg)
	require.NoError(t, err, "Failed to decode project.toml")
	return projCfg
}

func readLockfile(t *testing.T, dir string) *lockfile.Lockfile {
	t.Helper()
	lf, err := lockfile.Load(dir)
	require.NoError(t, err, "Failed to load lockfile")
	return lf
}

func sha(t *testing.T, content string) string {
	t.Helper()
	h, err := hasher.CalculateSHA256([]byte(content))
	require.NoError(t, err)
	return h
}

func TestAddCommand_LatestReleaseAsset(t *testing.T) {
	forge := testutil.NewForge(t)
	assetURL := "https://github.com/samp-incognito/samp-streamer-plugin/releases/download/v2.9.6/samp-streamer-plugin-2.9.6-linux.tar.gz"
	forge.Release("/repos/samp-incognito/samp-streamer-plugin/releases/latest", "v2.9.6")
	forge.Release("/repos/samp-incognito/samp-streamer-plugin/releases/tags/v2.9.6", "v2.9.6", assetURL)
	forge.File(assetURL, []byte("streamer-linux"))

	t.Setenv("SAMPKIT_OS", "linux")
	tempDir := setupAddTestEnvironment(t, baseProjectToml)
	stdout, _, err := runAddCommand(t, forge, tempDir, "github/samp-incognito/samp-streamer-plugin:latest")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added samp-streamer-plugin")

	relPath := "dependencies/samp-streamer-plugin/samp-streamer-plugin-2.9.6-linux.tar.gz"
	content, err := os.ReadFile(filepath.Join(tempDir, filepath.FromSlash(relPath)))
	require.NoError(t, err)
	assert.Equal(t, "streamer-linux", string(content))

	proj := readProjectToml(t, tempDir)
	require.Contains(t, proj.Dependencies, "samp-streamer-plugin")
	assert.Equal(t, "github/samp-incognito/samp-streamer-plugin:latest", proj.Dependencies["samp-streamer-plugin"].Source)
	assert.Equal(t, relPath, proj.Dependencies["samp-streamer-plugin"].Path)
	assert.Equal(t, "freeroam", proj.Package.Name, "existing package metadata is kept")

	lf := readLockfile(t, tempDir)
	require.Contains(t, lf.Package, "samp-streamer-plugin")
	entry := lf.Package["samp-streamer-plugin"]
	assert.Equal(t, assetURL, entry.Source)
	assert.Equal(t, "github/samp-incognito/samp-streamer-plugin:latest", entry.Reference)
	assert.Equal(t, "v2.9.6", entry.Tag)
	assert.Equal(t, relPath, entry.Path)
	assert.Equal(t, sha(t, "streamer-linux"), entry.Hash)
}

func TestAddCommand_CustomNameAndDirectory(t *testing.T) {
	forge := testutil.NewForge(t)
	forge.File("https://gitlab.com/acme/widget/-/archive/main/widget-main.zip", []byte("widget"))

	tempDir := setupAddTestEnvironment(t, baseProjectToml)
	_, _, err := runAddCommand(t, forge, tempDir, "-d", "include", "-n", "wdg", "gitlab/acme/widget")
	require.NoError(t, err)

	proj := readProjectToml(t, tempDir)
	require.Contains(t, proj.Dependencies, "wdg")
	assert.Equal(t, "include/widget/widget-main.zip", proj.Dependencies["wdg"].Path)
	assert.FileExists(t, filepath.Join(tempDir, "include", "widget", "widget-main.zip"))
}

func TestAddCommand_BatchContinuesAfterFailure(t *testing.T) {
	forge := testutil.NewForge(t)
	forge.File("https://github.com/acme/good/archive/refs/tags/v1.0.tar.gz", []byte("good"))

	tempDir := setupAddTestEnvironment(t, baseProjectToml)
	stdout, stderr, err := runAddCommand(t, forge, tempDir, "github/acme/missing:v9", "github/acme/good:v1.0")
	require.NoError(t, err, "a batch with at least one success exits cleanly")

	assert.Contains(t, stderr, "github/acme/missing:v9: dependency not found")
	assert.Contains(t, stdout, "Added 1 of 2 dependencies")

	proj := readProjectToml(t, tempDir)
	assert.NotContains(t, proj.Dependencies, "missing")
	require.Contains(t, proj.Dependencies, "good")
	assert.Equal(t, "dependencies/good/v1.0.tar.gz", proj.Dependencies["good"].Path)

	lf := readLockfile(t, tempDir)
	assert.Equal(t, "https://github.com/acme/good/archive/refs/tags/v1.0.tar.gz", lf.Package["good"].Source)
}

func TestAddCommand_AllFail(t *testing.T) {
	forge := testutil.NewForge(t)
	tempDir := setupAddTestEnvironment(t, baseProjectToml)

	_, stderr, err := runAddCommand(t, forge, tempDir, "github/acme/missing", "not a reference")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dependencies were added")
	assert.Contains(t, stderr, "github/acme/missing: dependency not found")
	assert.Contains(t, stderr, "not a reference:")

	_, statErr := os.Stat(filepath.Join(tempDir, lockfile.LockfileName))
	assert.True(t, os.IsNotExist(statErr), "lockfile must not be written when nothing was added")
}

func TestAddCommand_ReplacesPreviousDownload(t *testing.T) {
	forge := testutil.NewForge(t)
	forge.File("https://github.com/acme/widget/archive/refs/tags/v2.0.tar.gz", []byte("v2"))

	tempDir := setupAddTestEnvironment(t, baseProjectToml+`
[dependencies.widget]
source = "github/acme/widget:v1.0"
path = "dependencies/widget/v1.0.tar.gz"
`)
	testutil.WriteFiles(t, tempDir, map[string]string{"dependencies/widget/v1.0.tar.gz": "v1"})

	_, _, err := runAddCommand(t, forge, tempDir, "github/acme/widget:v2.0")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(tempDir, "dependencies", "widget", "v1.0.tar.gz"))
	assert.FileExists(t, filepath.Join(tempDir, "dependencies", "widget", "v2.0.tar.gz"))
	assert.Equal(t, "github/acme/widget:v2.0", readProjectToml(t, tempDir).Dependencies["widget"].Source)
}

func TestAddCommand_NameWithMultipleReferences(t *testing.T) {
	tempDir := setupAddTestEnvironment(t, baseProjectToml)
	_, _, err := runAddCommand(t, nil, tempDir, "-n", "x", "acme/a", "acme/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name can only be used with a single reference")
}

func TestAddCommand_NoArguments(t *testing.T) {
	tempDir := setupAddTestEnvironment(t, baseProjectToml)
	_, _, err := runAddCommand(t, nil, tempDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one <reference> argument is required")
}

func TestAddCommand_ProjectTomlNotFound(t *testing.T) {
	tempDir := setupAddTestEnvironment(t, "")
	_, _, err := runAddCommand(t, testutil.NewForge(t), tempDir, "github/acme/widget")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project.toml not found")
}

func TestAddCommand_SelfHostedTokenReachesProbeAndDownload(t *testing.T) {
	forge := testutil.NewForge(t)
	archive := "https://git.example.com/team/lib/archive/refs/heads/main.zip"
	forge.File(archive, []byte("lib"))

	t.Setenv("SAMPKIT_CUSTOM_TOKEN", "custom-abc")
	tempDir := setupAddTestEnvironment(t, baseProjectToml)
	stdout, _, err := runAddCommand(t, forge, tempDir, "git.example.com/team/lib")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added lib")

	assert.Equal(t, "Bearer custom-abc", forge.Header("HEAD /team/lib/archive/refs/heads/main.zip").Get("Authorization"))
	assert.Equal(t, "Bearer custom-abc", forge.Header("GET /team/lib/archive/refs/heads/main.zip").Get("Authorization"))
}
