// Package project defines the structure of project.toml.
package project

// Project represents the overall structure of the project.toml file.
type Project struct {
	Package      *PackageInfo          `toml:"package"`
	Scripts      map[string]string     `toml:"scripts,omitempty"`
	Dependencies map[string]Dependency `toml:"dependencies,omitempty"`
}

// PackageInfo holds metadata for the gamemode project.
type PackageInfo struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	License     string `toml:"license,omitempty"`
	Description string `toml:"description,omitempty"`
}

// Dependency represents a single dependency in the project.toml file.
type Dependency struct {
	Source string `toml:"source"` // Reference as typed by the user, e.g. "github/user/repo:v1"
	Path   string `toml:"path"`   // Downloaded archive, relative to the project root
}

// NewProject creates and returns a new Project instance with initialized maps.
func NewProject() *Project {
	return &Project{
		Package:      &PackageInfo{},
		Scripts:      make(map[string]string),
		Dependencies: make(map[string]Dependency),
	}
}

// SetDependency records a dependency, initializing the map if needed.
func (p *Project) SetDependency(name, reference, path string) {
	if p.Dependencies == nil {
		p.Dependencies = make(map[string]Dependency)
	}
	p.Dependencies[name] = Dependency{Source: reference, Path: path}
}

// RemoveDependency deletes a dependency and reports whether it existed.
func (p *Project) RemoveDependency(name string) (Dependency, bool) {
	dep, ok := p.Dependencies[name]
	if ok {
		delete(p.Dependencies, name)
	}
	return dep, ok
}
