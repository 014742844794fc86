package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/render"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List subscription plans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		var (
			plans []api.Plan
			sub   *api.Subscription
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			plans, err = client.Plans(ctx)
			return err
		})
		g.Go(func() error {
			// Anonymous users still get the plan list.
			sub, _ = client.CurrentSubscription(ctx)
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		currentID := ""
		if sub != nil {
			currentID = sub.Plan.ID
		}
		for _, p := range plans {
			if !p.IsActive {
				continue
			}
			fmt.Println(render.PlanCard(p, p.ID == currentID))
			fmt.Println()
		}
		return nil
	},
}

var subscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Inspect and change the active subscription",
}

var subscriptionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		sub, err := client.CurrentSubscription(cmd.Context())
		if err != nil {
			return err
		}
		printStatus("플랜", "%s", sub.Plan.DisplayName)
		printStatus("상태", "%s", activeLabel(sub.IsActive))
		printStatus("사용량", "%d / %d 토큰", sub.CurrentUsage, sub.TotalAvailableTokens)
		if sub.BonusTokens > 0 {
			printStatus("보너스", "%d 토큰", sub.BonusTokens)
		}
		if sub.EndDate != nil {
			printStatus("만료", "%s", sub.EndDate.Format("2006-01-02"))
		}
		return nil
	},
}

var subscriptionUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show this month's token usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		usage, err := client.UsageStats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(render.UsageMeter(*usage))
		return nil
	},
}

var subscriptionModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the current plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		models, err := client.AvailableModels(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range models {
			if m.IsAvailable {
				fmt.Printf("%s %s\n", colorize(colorGreen, "✓"), m.ModelName)
				continue
			}
			line := fmt.Sprintf("%s %s", colorize(colorRed, "✗"), m.ModelName)
			if m.Reason != "" {
				line += colorize(colorYellow, " ("+m.Reason+")")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var subscriptionChangeCmd = &cobra.Command{
	Use:   "change <plan-id>",
	Short: "Switch to another plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		sub, err := client.ChangePlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSuccess("Switched to %s", sub.Plan.DisplayName)
		return nil
	},
}

func activeLabel(active bool) string {
	if active {
		return colorize(colorGreen, "활성")
	}
	return colorize(colorRed, "비활성")
}

func init() {
	subscriptionCmd.AddCommand(subscriptionShowCmd, subscriptionUsageCmd, subscriptionModelsCmd, subscriptionChangeCmd)
}
