package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"botcast/internal/discovery"
	"botcast/internal/dispatch"
	"botcast/internal/schedule"
	logx "botcast/pkg/logx"
)

var (
	broadcastDelay   time.Duration
	broadcastMinutes int
	broadcastCron    string
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <text>...",
	Short: "Sweep every discovered chat with the same message until the deadline",
	Long: `broadcast reads the recipient set from the received-updates log and sweeps
it cyclically, one message per chat per sweep, until the duration elapses.
With --cron it schedules a fresh session on each trigger instead of running
once; a trigger that fires while a session is still active is skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBroadcast,
}

func init() {
	broadcastCmd.Flags().DurationVar(&broadcastDelay, "delay", 2*time.Second, "pause between recipients within a sweep")
	broadcastCmd.Flags().IntVar(&broadcastMinutes, "minutes", 5, "how long the session keeps sweeping")
	broadcastCmd.Flags().StringVar(&broadcastCron, "cron", "", "cron spec for recurring sessions (e.g. \"0 9 * * *\")")
	rootCmd.AddCommand(broadcastCmd)
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ad, err := a.adapter()
	if err != nil {
		return err
	}
	d := a.dispatcher(ad)
	text := strings.Join(args, " ")
	duration := time.Duration(broadcastMinutes) * time.Minute

	runOnce := func(ctx context.Context) (dispatch.Summary, error) {
		// Re-read the log each session so chats collected since the
		// last trigger are included.
		recipients, err := discovery.FromFile(a.cfg.Paths.ReceivedLog)
		if err != nil {
			return dispatch.Summary{}, err
		}
		return d.Broadcast(ctx, dispatch.BroadcastRequest{
			Recipients: recipients,
			Text:       text,
			Delay:      broadcastDelay,
			Duration:   duration,
		})
	}

	if broadcastCron == "" {
		sum, err := runOnce(cmd.Context())
		if err != nil {
			return err
		}
		a.saveSummary(sum)
		return sessionExit(sum)
	}

	return schedule.Run(cmd.Context(), broadcastCron, a.log, func(ctx context.Context) {
		sum, err := runOnce(ctx)
		switch {
		case errors.Is(err, dispatch.ErrSessionActive):
			fmt.Println("WARNING: previous session still running, trigger skipped")
			a.log.Warn("cron trigger skipped", logx.String("reason", "session active"))
		case err != nil:
			fmt.Printf("ERROR: broadcast session: %v\n", err)
			a.log.Error("cron broadcast session failed", logx.Err(err))
		default:
			a.saveSummary(sum)
		}
	})
}
