package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/arbor/cmd/arbor/internal/config"
	"github.com/go-drift/arbor/cmd/arbor/internal/scaffold"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <directory> [module-path]",
		Short: "Create a new arbor project",
		Long: `Create a new arbor project in a new directory.

This command creates:
  - A new directory at the specified path
  - go.mod with the specified module path
  - main.go with a starter application
  - arbor.yaml with default settings

The project name is derived from the directory basename.
The module path defaults to the project name if not specified.

Examples:
  arbor init myapp
  arbor init myapp github.com/username/myapp
  arbor init ./projects/myapp`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args)
		},
	}
}

func runInit(args []string) error {
	raw := args[0]
	if strings.HasPrefix(raw, "~") {
		return fmt.Errorf("tilde (~) is not expanded by arbor; use an absolute path or $HOME instead")
	}

	dir := filepath.Clean(raw)
	projectName := filepath.Base(dir)
	if projectName == "." || projectName == string(filepath.Separator) {
		return fmt.Errorf("cannot derive a project name from %q", raw)
	}

	modulePath := projectName
	if len(args) > 1 {
		modulePath = args[1]
	}
	if err := config.ValidateModulePath(modulePath); err != nil {
		return err
	}

	info("Creating new arbor project: %s", projectName)
	if err := scaffold.Project(dir, scaffold.Data{
		ModulePath: modulePath,
		AppName:    projectName,
	}); err != nil {
		return err
	}

	success("Project created")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  go mod tidy")
	fmt.Println("  go run .")

	return nil
}
