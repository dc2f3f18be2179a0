package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the bot account this token belongs to",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ad, err := a.adapter()
	if err != nil {
		return err
	}
	bi, err := ad.Info(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("id:        %d\n", bi.ID)
	fmt.Printf("name:      %s\n", bi.Name)
	fmt.Printf("username:  @%s\n", bi.Username)
	fmt.Printf("groups:    can join: %v, reads all messages: %v\n", bi.CanJoinGroups, bi.CanReadAllGroupMessages)
	fmt.Printf("inline:    %v\n", bi.SupportsInlineQueries)
	return nil
}
