// Package lockfile manages sampkit-lock.toml, the record of what was
// resolved and downloaded for each dependency.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const LockfileName = "sampkit-lock.toml"
const APIVersion = "1"

// PackageEntry represents a single package entry in the lockfile.
// Example:
// [package."streamer"]
//
//	source = "resolved download URL"
//	reference = "github/samp-incognito/samp-streamer-plugin:latest"
//	tag = "v2.9.6"
//	path = "dependencies/samp-streamer-plugin/streamer-linux.tar.gz"
//	hash = "sha256:<hash_value>"
type PackageEntry struct {
	Source    string `toml:"source"`
	Reference string `toml:"reference,omitempty"`
	Tag       string `toml:"tag,omitempty"`
	Path      string `toml:"path"`
	Hash      string `toml:"hash"`
}

// Lockfile represents the structure of the sampkit-lock.toml file.
type Lockfile struct {
	APIVersion string                  `toml:"api_version"`
	Package    map[string]PackageEntry `toml:"package"`
}

// New creates a new Lockfile instance with default values.
func New() *Lockfile {
	return &Lockfile{
		APIVersion: APIVersion,
		Package:    make(map[string]PackageEntry),
	}
}

// Load loads the lockfile from the given project root path.
// If the lockfile doesn't exist, it returns a new Lockfile instance.
func Load(projectRoot string) (*Lockfile, error) {
	lockfilePath := filepath.Join(projectRoot, LockfileName)
	lf := New()

	if _, err := os.Stat(lockfilePath); os.IsNotExist(err) {
		return lf, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat lockfile %s: %w", lockfilePath, err)
	}

	if _, err := toml.DecodeFile(lockfilePath, lf); err != nil {
		return nil, fmt.Errorf("failed to decode lockfile %s: %w", lockfilePath, err)
	}
	if lf.APIVersion == "" {
		lf.APIVersion = APIVersion
	}
	if lf.Package == nil {
		lf.Package = make(map[string]PackageEntry)
	}
	return lf, nil
}

// Save saves the lockfile to the given project root path.
func Save(projectRoot string, lf *Lockfile) error {
	lockfilePath := filepath.Join(projectRoot, LockfileName)
	file, err := os.Create(lockfilePath)
	if err != nil {
		return fmt.Errorf("failed to create/truncate lockfile %s: %w", lockfilePath, err)
	}
	defer func() { _ = file.Close() }()

	if err := toml.NewEncoder(file).Encode(lf); err != nil {
		return fmt.Errorf("failed to encode lockfile %s: %w", lockfilePath, err)
	}
	return nil
}

// AddOrUpdatePackage adds or updates a package entry in the lockfile.
func (lf *Lockfile) AddOrUpdatePackage(name string, entry PackageEntry) {
	if lf.Package == nil {
		lf.Package = make(map[string]PackageEntry)
	}
	lf.Package[name] = entry
}

// RemovePackage deletes a package entry and reports whether it existed.
func (lf *Lockfile) RemovePackage(name string) bool {
	if _, ok := lf.Package[name]; !ok {
		return false
	}
	delete(lf.Package, name)
	return true
}
