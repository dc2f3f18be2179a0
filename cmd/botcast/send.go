package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"botcast/internal/transport"
	logx "botcast/pkg/logx"
)

var sendCmd = &cobra.Command{
	Use:   "send <chat-id|@username> <text>...",
	Short: "Send one message to one chat",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	to, err := transport.ParseRecipient(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is empty")
	}

	ad, err := a.adapter()
	if err != nil {
		return err
	}

	opt := &transport.SendOptions{ParseMode: a.cfg.Telegram.ParseMode}
	out := ad.Deliver(cmd.Context(), to, text, opt)
	if out.Status != transport.StatusDelivered {
		return fmt.Errorf("send to %s: %s: %s", to, out.Status, out.Reason)
	}

	// Mirror the send into the received log so discovery picks the chat up.
	if err := a.collector(ad).LogOutgoing(to, text); err != nil {
		a.log.Warn("outgoing log append failed", logx.Err(err))
	}

	fmt.Printf("delivered to %s\n", to)
	return nil
}
