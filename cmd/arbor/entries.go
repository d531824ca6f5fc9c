package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-drift/arbor/pkg/lifecycle"
)

func entriesCmd() *cobra.Command {
	var addr string
	var history bool

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List live removal attachments of a running app",
		Long: `Fetch the live attachment table from a running app's inspection
endpoint. With --history, print the recent transition events instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := resolveAddr(addr)
			if history {
				return printEvents(resolved)
			}
			return printEntries(resolved)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Inspection endpoint address (default from arbor.yaml)")
	cmd.Flags().BoolVar(&history, "history", false, "Print recent transition events")

	return cmd
}

func printEntries(addr string) error {
	resp, err := inspectClient().Get("http://" + addr + "/lifecycle/entries")
	if err != nil {
		return fmt.Errorf("cannot reach inspection endpoint at %s: %w", addr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inspection endpoint returned %s", resp.Status)
	}

	var payload struct {
		Entries []lifecycle.EntrySnapshot `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode entries: %w", err)
	}

	if len(payload.Entries) == 0 {
		fmt.Println("no live attachments")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tTIER\tTAG\tATTACHED")
	for _, entry := range payload.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entry.Identity, entry.Tier, entry.Tag,
			entry.AttachedAt.Format("15:04:05.000"))
	}
	return w.Flush()
}

func printEvents(addr string) error {
	resp, err := inspectClient().Get("http://" + addr + "/lifecycle/events")
	if err != nil {
		return fmt.Errorf("cannot reach inspection endpoint at %s: %w", addr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inspection endpoint returned %s", resp.Status)
	}

	var payload struct {
		Events []lifecycle.Event `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode events: %w", err)
	}

	for _, event := range payload.Events {
		printEvent(event)
	}
	return nil
}

func printEvent(event lifecycle.Event) {
	line := fmt.Sprintf("%s  %-9s %s", event.Time.Format("15:04:05.000"), event.Kind, event.Identity)
	if event.Tag != "" {
		line += "  (" + event.Tag + ")"
	}
	fmt.Println(line)
}
