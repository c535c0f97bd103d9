// Package config reads and writes project.toml.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nightconcept/sampkit/internal/core/project"
)

// ProjectTomlName is the manifest file name at the project root.
const ProjectTomlName = "project.toml"

// LoadProjectToml reads the project.toml file from the given dirPath and unmarshals it.
// A missing file yields an error satisfying os.IsNotExist.
func LoadProjectToml(dirPath string) (*project.Project, error) {
	data, err := os.ReadFile(filepath.Join(dirPath, ProjectTomlName))
	if err != nil {
		return nil, err
	}

	var proj project.Project
	if err := toml.Unmarshal(data, &proj); err != nil {
		return nil, err
	}
	if proj.Package == nil {
		proj.Package = &project.PackageInfo{}
	}
	return &proj, nil
}

// WriteProjectToml marshals the Project data and writes it to the specified dirPath.
// It will overwrite the file if it already exists.
func WriteProjectToml(dirPath string, data *project.Project) error {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(data); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dirPath, ProjectTomlName), buf.Bytes(), 0o644)
}

// Exists reports whether dirPath contains a project.toml.
func Exists(dirPath string) bool {
	_, err := os.Stat(filepath.Join(dirPath, ProjectTomlName))
	return err == nil
}
