package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var instructionsCmd = &cobra.Command{
	Use:   "instructions",
	Short: "Manage standing custom instructions",
	Long: `Manage standing custom instructions. Active instructions are applied by
the backend to every generation.`,
}

var instructionsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved instructions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		ci, err := client.CustomInstructions(cmd.Context())
		if err != nil {
			return err
		}
		if ci == nil || ci.Instructions == "" {
			printStep("No custom instructions saved")
			return nil
		}
		printStatus("상태", "%s", activeLabel(ci.IsActive))
		fmt.Println(ci.Instructions)
		return nil
	},
}

var instructionsSetCmd = &cobra.Command{
	Use:   "set <text...>",
	Short: "Save custom instructions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		disabled, _ := cmd.Flags().GetBool("disabled")
		ci, err := client.SaveCustomInstructions(cmd.Context(), strings.Join(args, " "), !disabled)
		if err != nil {
			return err
		}
		printSuccess("Instructions saved (%s)", activeLabel(ci.IsActive))
		return nil
	},
}

var instructionsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Keep the instructions but stop applying them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		ci, err := client.CustomInstructions(cmd.Context())
		if err != nil {
			return err
		}
		if ci == nil || ci.Instructions == "" {
			printStep("No custom instructions saved")
			return nil
		}
		if _, err := client.SaveCustomInstructions(cmd.Context(), ci.Instructions, false); err != nil {
			return err
		}
		printSuccess("Instructions disabled")
		return nil
	},
}

func init() {
	instructionsSetCmd.Flags().Bool("disabled", false, "save without applying")
	instructionsCmd.AddCommand(instructionsShowCmd, instructionsSetCmd, instructionsDisableCmd)
}
