package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/go-drift/arbor/pkg/lifecycle"
)

func watchCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream lifecycle transitions from a running app",
		Long: `Connect to a running app's inspection endpoint and print lifecycle
transitions (attached, shadowed, fired) as they happen. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(resolveAddr(addr))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Inspection endpoint address (default from arbor.yaml)")

	return cmd
}

func runWatch(addr string) error {
	url := "ws://" + addr + "/lifecycle/watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("cannot connect to %s: %w", url, err)
	}
	defer conn.Close()

	var hello struct {
		Session string `json:"session"`
	}
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("failed to read hello frame: %w", err)
	}
	info("watching (session %s)", hello.Session)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	events := make(chan lifecycle.Event)
	readErr := make(chan error, 1)
	go func() {
		for {
			var event lifecycle.Event
			if err := conn.ReadJSON(&event); err != nil {
				readErr <- err
				return
			}
			events <- event
		}
	}()

	for {
		select {
		case event := <-events:
			printEvent(event)
		case err := <-readErr:
			return fmt.Errorf("connection lost: %w", err)
		case <-interrupt:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		}
	}
}
