// Package installer ties resolution, download, hashing and file placement
// together for the add, install and update commands.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/nightconcept/sampkit/internal/core/downloader"
	"github.com/nightconcept/sampkit/internal/core/hasher"
	"github.com/nightconcept/sampkit/internal/core/source"
)

// DefaultDirectory is where dependencies are stored unless told otherwise.
const DefaultDirectory = "dependencies"

// ErrOutsideRoot is returned for paths that would leave the project root.
var ErrOutsideRoot = errors.New("path escapes the project root")

// Result describes one dependency written to disk.
type Result struct {
	Reference *source.Reference
	Asset     *source.Asset
	// Path is relative to the project root, slash separated.
	Path string
	Hash string
	Size int
}

// Installer resolves references and stores the downloaded archives below Root.
type Installer struct {
	Root       string
	resolver   *source.Resolver
	downloader *downloader.Downloader
	logger     *log.Logger
}

// New creates an Installer rooted at root.
func New(root string, resolver *source.Resolver, dl *downloader.Downloader, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Installer{Root: root, resolver: resolver, downloader: dl, logger: logger}
}

// Resolve parses reference and resolves it to a downloadable asset.
func (i *Installer) Resolve(ctx context.Context, reference string) (*source.Reference, *source.Asset, error) {
	ref, err := source.ParseReference(reference)
	if err != nil {
		return nil, nil, err
	}
	asset, err := i.resolver.Resolve(ctx, ref)
	if err != nil {
		return ref, nil, err
	}
	return ref, asset, nil
}

// TargetPath returns the slash separated path, relative to the root, where
// asset is stored for ref: <dir>/<repository>/<filename>.
func TargetPath(dir string, ref *source.Reference, asset *source.Asset) string {
	if dir == "" {
		dir = DefaultDirectory
	}
	return filepath.ToSlash(filepath.Join(dir, ref.Repository, asset.Filename))
}

// Add resolves reference and stores it under dir.
func (i *Installer) Add(ctx context.Context, reference, dir string) (*Result, error) {
	ref, asset, err := i.Resolve(ctx, reference)
	if err != nil {
		return nil, err
	}
	return i.Fetch(ctx, ref, asset, TargetPath(dir, ref, asset))
}

// Fetch downloads asset and writes it to relPath, returning its hash.
func (i *Installer) Fetch(ctx context.Context, ref *source.Reference, asset *source.Asset, relPath string) (*Result, error) {
	if _, err := join(i.Root, relPath); err != nil {
		return nil, err
	}
	i.logger.Debug("downloading", "url", asset.URL, "path", relPath)
	content, err := i.downloader.FetchWithHeader(ctx, asset.URL, i.resolver.AuthHeader(ref, asset.URL))
	if err != nil {
		return nil, err
	}

	hash, err := hasher.CalculateSHA256(content)
	if err != nil {
		return nil, fmt.Errorf("calculating SHA256 hash: %w", err)
	}
	if err := i.store(relPath, content); err != nil {
		return nil, err
	}
	return &Result{Reference: ref, Asset: asset, Path: relPath, Hash: hash, Size: len(content)}, nil
}

// Restore downloads a locked URL into relPath. The content must match hash;
// on mismatch nothing is written and the error wraps hasher.ErrMismatch.
// ref, when known, selects the host token sent with the download.
func (i *Installer) Restore(ctx context.Context, ref *source.Reference, rawURL, relPath, hash string) error {
	if _, err := join(i.Root, relPath); err != nil {
		return err
	}
	i.logger.Debug("restoring locked download", "url", rawURL, "path", relPath)
	content, err := i.downloader.FetchWithHeader(ctx, rawURL, i.resolver.AuthHeader(ref, rawURL))
	if err != nil {
		return err
	}
	if err := hasher.Verify(content, hash); err != nil {
		return fmt.Errorf("%s: %w", rawURL, err)
	}
	return i.store(relPath, content)
}

func (i *Installer) store(relPath string, content []byte) error {
	fullPath, err := join(i.Root, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", fullPath, err)
	}
	return nil
}

// Exists reports whether relPath is present below the root.
func (i *Installer) Exists(relPath string) bool {
	fullPath, err := join(i.Root, relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// Uninstall deletes relPath and its parent directory when that is left empty.
// A file that is already gone is not an error.
func Uninstall(root, relPath string) error {
	if relPath == "" {
		return nil
	}
	fullPath, err := join(root, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", fullPath, err)
	}

	parent := filepath.Dir(fullPath)
	if filepath.Clean(parent) == filepath.Clean(root) {
		return nil
	}
	entries, err := os.ReadDir(parent)
	if err != nil || len(entries) > 0 {
		return nil
	}
	if err := os.Remove(parent); err != nil {
		return fmt.Errorf("removing empty directory %s: %w", parent, err)
	}
	return nil
}

// join resolves the slash separated relPath below root, refusing absolute
// paths and paths that climb out of root.
func join(root, relPath string) (string, error) {
	local := filepath.FromSlash(relPath)
	if !filepath.IsLocal(local) || filepath.Clean(local) == "." {
		return "", fmt.Errorf("%q: %w", relPath, ErrOutsideRoot)
	}
	return filepath.Join(root, local), nil
}
