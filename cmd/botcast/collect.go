package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	collectLimit   int
	collectTimeout time.Duration
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch pending updates and append them to the received-updates log",
	Args:  cobra.NoArgs,
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().IntVar(&collectLimit, "limit", 100, "maximum updates per fetch (1-100)")
	collectCmd.Flags().DurationVar(&collectTimeout, "timeout", 0, "long-poll timeout (0 = return immediately)")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ad, err := a.adapter()
	if err != nil {
		return err
	}

	n, echoes, err := a.collector(ad).Collect(cmd.Context(), collectLimit, collectTimeout)
	if err != nil {
		return err
	}
	for _, e := range echoes {
		fmt.Println(e)
	}
	fmt.Printf("collected %d update(s) into %s\n", n, a.cfg.Paths.ReceivedLog)
	return nil
}
