// Package scaffold writes the files of a freshly initialized arbor project.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// Data contains the values substituted into the project templates.
type Data struct {
	ModulePath string
	AppName    string
}

// Project creates dir and writes the starter files into it. It fails if dir
// already exists, so a typo never clobbers an existing project.
func Project(dir string, data Data) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	files := []struct {
		name     string
		template string
	}{
		{"go.mod", goModTemplate},
		{"main.go", mainTemplate},
		{"arbor.yaml", configTemplate},
	}

	for _, file := range files {
		if err := writeTemplate(filepath.Join(dir, file.name), file.template, data); err != nil {
			return err
		}
	}

	return nil
}

func writeTemplate(path, text string, data Data) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

const goModTemplate = `module {{.ModulePath}}

go 1.24.0

require github.com/go-drift/arbor v0.1.0
`

const mainTemplate = `package main

import (
	"fmt"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/lifecycle"
)

type item struct {
	core.StatelessBase
	Label string
}

func (i item) Build(core.BuildContext) core.Widget { return nil }

func buildList(labels []string) core.Widget {
	children := make([]core.Widget, 0, len(labels))
	for _, label := range labels {
		label := label
		children = append(children, lifecycle.OnRemove{
			Do:    func() { fmt.Printf("%s was removed\n", label) },
			Tag:   lifecycle.CallSite(),
			Child: core.Identify(item{Label: label}, label),
		})
	}
	return core.Group{Children: children}
}

func main() {
	owner := core.NewBuildOwner()
	root := core.MountRoot(buildList([]string{"alpha", "beta", "gamma"}), owner)

	root.Update(buildList([]string{"alpha", "gamma"}))
	owner.FlushBuild()
}
`

const configTemplate = `app:
  name: {{.AppName}}

inspect:
  addr: localhost:7878
`
