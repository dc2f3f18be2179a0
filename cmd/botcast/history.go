package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"botcast/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent broadcast sessions from the history store",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of sessions to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Storage == nil {
		return fmt.Errorf("no storage configured; add a storage section to %s", cfgFile)
	}
	store, err := history.Open(history.Config{
		Driver:      a.cfg.Storage.Driver,
		Path:        a.cfg.Storage.Path,
		BusyTimeout: a.cfg.BusyTimeout(),
	}, a.log)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("history storage is disabled in %s", cfgFile)
	}
	defer store.Close()

	records, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no sessions recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tSTOP\tATTEMPTS\tDELIVERED\tFAILED\tWAITS\tLAST ERROR")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Mode, r.StopReason,
			r.Attempts, r.Delivered, r.Failed, r.RateLimitWaits, r.LastError)
	}
	return w.Flush()
}
