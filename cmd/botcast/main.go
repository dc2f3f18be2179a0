package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	// .env is optional; real deployments set BOTCAST_TOKEN in the unit file.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "botcast",
	Short: "Throttled Telegram broadcast dispatcher",
	Long: `botcast sends rate-limited Telegram messages: one-shot sends, fixed-count
repeats to a single chat, and deadline-bounded broadcast sweeps over every
chat discovered in the received-updates log.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./botcast.yaml", "config file path")
}
