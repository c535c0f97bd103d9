// Package project_test contains tests for the project package.
package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nightconcept/sampkit/internal/core/project"
)

func TestNewProject(t *testing.T) {
	t.Parallel()
	p := project.NewProject()

	assert.NotNil(t, p, "NewProject should return a non-nil Project instance")
	assert.NotNil(t, p.Package, "Project.Package should be initialized")
	assert.NotNil(t, p.Scripts, "Project.Scripts map should be initialized")
	assert.Empty(t, p.Scripts, "Project.Scripts map should be empty initially")
	assert.NotNil(t, p.Dependencies, "Project.Dependencies map should be initialized")
	assert.Empty(t, p.Dependencies, "Project.Dependencies map should be empty initially")
	assert.Equal(t, "", p.Package.Name, "Package.Name should be empty initially")
}

func TestSetAndRemoveDependency(t *testing.T) {
	t.Parallel()
	p := &project.Project{}

	p.SetDependency("streamer", "github/samp-incognito/samp-streamer-plugin:latest", "dependencies/samp-streamer-plugin/streamer.zip")
	assert.Equal(t, project.Dependency{
		Source: "github/samp-incognito/samp-streamer-plugin:latest",
		Path:   "dependencies/samp-streamer-plugin/streamer.zip",
	}, p.Dependencies["streamer"])

	dep, ok := p.RemoveDependency("streamer")
	assert.True(t, ok)
	assert.Equal(t, "dependencies/samp-streamer-plugin/streamer.zip", dep.Path)
	assert.Empty(t, p.Dependencies)

	_, ok = p.RemoveDependency("streamer")
	assert.False(t, ok)
}
