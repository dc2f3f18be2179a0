package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"botcast/internal/discovery"
	"botcast/internal/transport"
)

var chatsWatch bool

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List chats discovered in the received-updates log",
	Args:  cobra.NoArgs,
	RunE:  runChats,
}

func init() {
	chatsCmd.Flags().BoolVar(&chatsWatch, "watch", false, "keep watching the log and print newly discovered chats")
	rootCmd.AddCommand(chatsCmd)
}

func runChats(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	path := a.cfg.Paths.ReceivedLog
	recipients, err := discovery.FromFile(path)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		fmt.Println("no chats discovered yet; run `botcast collect` first")
	}
	for _, r := range recipients {
		fmt.Println(r)
	}

	if !chatsWatch {
		return nil
	}

	fmt.Println("watching for new chats (ctrl-c to stop)...")
	err = discovery.Watch(cmd.Context(), path, a.log, func(fresh []transport.Recipient) {
		for _, r := range fresh {
			fmt.Printf("new: %s\n", r)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
