package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"botcast/internal/dispatch"
	"botcast/internal/transport"
)

var (
	repeatCount int
	repeatDelay time.Duration
)

var repeatCmd = &cobra.Command{
	Use:   "repeat <chat-id|@username> <text>...",
	Short: "Send the same message to one chat a fixed number of times",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRepeat,
}

func init() {
	repeatCmd.Flags().IntVar(&repeatCount, "count", 1, "number of messages to send")
	repeatCmd.Flags().DurationVar(&repeatDelay, "delay", 0, "pause between messages (e.g. 500ms)")
	rootCmd.AddCommand(repeatCmd)
}

func runRepeat(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	to, err := transport.ParseRecipient(args[0])
	if err != nil {
		return err
	}

	ad, err := a.adapter()
	if err != nil {
		return err
	}

	sum, err := a.dispatcher(ad).SendRepeated(cmd.Context(), dispatch.SingleRequest{
		To:    to,
		Text:  strings.Join(args[1:], " "),
		Count: repeatCount,
		Delay: repeatDelay,
	})
	if err != nil {
		return err
	}
	a.saveSummary(sum)
	return sessionExit(sum)
}
