package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-drift/arbor/cmd/arbor/internal/config"
	"github.com/go-drift/arbor/pkg/inspect"
)

func treeCmd() *cobra.Command {
	var addr string
	var raw bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Dump the element tree of a running app",
		Long: `Fetch the element tree from a running app's inspection endpoint
and print it as an indented outline, or as raw JSON with --json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := fetchTree(resolveAddr(addr))
			if err != nil {
				return err
			}
			if raw {
				data, err := json.MarshalIndent(node, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			printTree(node, 0)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Inspection endpoint address (default from arbor.yaml)")
	cmd.Flags().BoolVar(&raw, "json", false, "Print raw JSON instead of an outline")

	return cmd
}

// resolveAddr picks the inspection address: the flag wins, then arbor.yaml
// of the enclosing project, then the built-in default.
func resolveAddr(flagAddr string) string {
	if flagAddr != "" {
		return flagAddr
	}
	if root, err := config.FindProjectRoot(); err == nil {
		if resolved, err := config.Resolve(root); err == nil {
			return resolved.InspectAddr
		}
	}
	return config.DefaultInspectAddr
}

func inspectClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func fetchTree(addr string) (*inspect.TreeNode, error) {
	resp, err := inspectClient().Get("http://" + addr + "/tree")
	if err != nil {
		return nil, fmt.Errorf("cannot reach inspection endpoint at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inspection endpoint returned %s", resp.Status)
	}

	var node inspect.TreeNode
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	return &node, nil
}

func printTree(node *inspect.TreeNode, indent int) {
	line := strings.Repeat("  ", indent) + node.WidgetType
	if node.Key != nil {
		line += fmt.Sprintf(" [key=%v]", node.Key)
	}
	if node.NeedsBuild {
		line += " (dirty)"
	}
	fmt.Println(line)
	for i := range node.Children {
		printTree(&node.Children[i], indent+1)
	}
}
