package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the bot's public profile",
}

var profileSetNameCmd = &cobra.Command{
	Use:   "set-name <name>...",
	Short: "Set the bot's display name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfileSet(cmd, args, "name", func(ctx context.Context, ad profileWriter, v string) error {
			return ad.SetName(ctx, v)
		})
	},
}

var profileSetDescriptionCmd = &cobra.Command{
	Use:   "set-description <text>...",
	Short: "Set the description shown in empty chats (cut at 512 chars)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfileSet(cmd, args, "description", func(ctx context.Context, ad profileWriter, v string) error {
			return ad.SetDescription(ctx, v)
		})
	},
}

var profileSetAboutCmd = &cobra.Command{
	Use:   "set-about <text>...",
	Short: "Set the short about text on the profile page (cut at 120 chars)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfileSet(cmd, args, "about", func(ctx context.Context, ad profileWriter, v string) error {
			return ad.SetAbout(ctx, v)
		})
	},
}

func init() {
	profileCmd.AddCommand(profileSetNameCmd, profileSetDescriptionCmd, profileSetAboutCmd)
	rootCmd.AddCommand(profileCmd)
}

type profileWriter interface {
	SetName(ctx context.Context, name string) error
	SetDescription(ctx context.Context, description string) error
	SetAbout(ctx context.Context, about string) error
}

func runProfileSet(cmd *cobra.Command, args []string, field string, apply func(context.Context, profileWriter, string) error) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ad, err := a.adapter()
	if err != nil {
		return err
	}

	if err := apply(cmd.Context(), ad, strings.Join(args, " ")); err != nil {
		return err
	}
	fmt.Printf("%s updated\n", field)
	return nil
}
