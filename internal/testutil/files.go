package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ProjectCUE is ProjectSchema written as a CUE metamodel.
const ProjectCUE = `name: "projects"

type: Project: {
	attributes: { name: string }
	contains: ["Task"]
}

type: Task: {
	attributes: {
		description: string
		days:        number
		owner:       string
	}
}

type: Milestone: {
	extends: ["Task"]
	attributes: { due: string }
}
`

// ProjectModelYAML is ProjectModel written as a model document.
const ProjectModelYAML = `- type: Project
  name: ProjectTest
  children:
    - type: Task
      description: this is the first task
      days: 2
    - type: Task
      description: this is the second task
      days: 4
`

// WriteFile writes content to dir/name, creating parent directories, and
// returns the path.
func WriteFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteProjectFiles writes projects.cue and project.yaml into dir and
// returns their paths.
func WriteProjectFiles(tb testing.TB, dir string) (metamodel, model string) {
	tb.Helper()
	return WriteFile(tb, dir, "projects.cue", ProjectCUE),
		WriteFile(tb, dir, "project.yaml", ProjectModelYAML)
}
