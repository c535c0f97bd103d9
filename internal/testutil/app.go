package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/sampkit/internal/cli/env"
)

// Run executes cmds as a sampkit app rooted at dir and returns what was
// written to stdout and stderr. forge may be nil for commands that never
// touch the network.
func Run(t testing.TB, forge *Forge, dir string, cmds []*cli.Command, args ...string) (string, string, error) {
	t.Helper()
	return RunWithInput(t, forge, dir, strings.NewReader(""), cmds, args...)
}

// RunWithInput is Run with stdin read from input.
func RunWithInput(t testing.TB, forge *Forge, dir string, input io.Reader, cmds []*cli.Command, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	var stdout, stderr bytes.Buffer
	app := &cli.App{
		Name:      "sampkit",
		Version:   "v0.0.0-test",
		Flags:     env.Flags(),
		Commands:  cmds,
		Reader:    input,
		Writer:    &stdout,
		ErrWriter: &stderr,
		Metadata:  map[string]interface{}{},
		// Prevent os.Exit from being called by urfave/cli during tests
		ExitErrHandler: func(*cli.Context, error) {},
	}
	if forge != nil {
		app.Metadata[env.HTTPClientKey] = forge.Client()
	}

	fullArgs := append([]string{"sampkit", "--" + env.FlagProject, dir}, args...)
	err := app.Run(fullArgs)
	return stdout.String(), stderr.String(), err
}

// WriteFiles creates each relative path below dir with the given content.
func WriteFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
}
