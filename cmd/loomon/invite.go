package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/loomonai/loomon/internal/api"
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Create and redeem friend-invite codes",
}

var inviteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new invite code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		days, _ := cmd.Flags().GetInt("expires-in")
		invite, err := client.CreateInvite(cmd.Context(), days)
		if err != nil {
			return err
		}
		fmt.Println(colorize(colorBold, invite.Code))
		if invite.ExpiresAt != nil {
			printStatus("만료", "%s", invite.ExpiresAt.Format("2006-01-02"))
		}
		return nil
	},
}

var inviteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your invite codes and stats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		var (
			invites []api.InviteCode
			stats   *api.InviteStats
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			invites, err = client.Invites(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			stats, err = client.InviteStats(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		printStatus("초대", "%d건 (사용 %d / 대기 %d)", stats.TotalInvites, stats.UsedInvites, stats.PendingInvites)
		if stats.ReceivedBonusTokens > 0 {
			printStatus("보너스", "%d 토큰", stats.ReceivedBonusTokens)
		}
		for _, inv := range invites {
			state := colorize(colorYellow, "대기")
			if inv.IsUsed {
				state = colorize(colorGreen, "사용됨")
			}
			fmt.Printf("%s  %s  %s\n", inv.Code, state, inv.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var inviteStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show invite totals and earned bonus tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		stats, err := client.InviteStats(cmd.Context())
		if err != nil {
			return err
		}
		printStatus("전체", "%d건", stats.TotalInvites)
		printStatus("사용됨", "%d건", stats.UsedInvites)
		printStatus("대기 중", "%d건", stats.PendingInvites)
		printStatus("보너스", "%d 토큰", stats.ReceivedBonusTokens)
		return nil
	},
}

var inviteUseCmd = &cobra.Command{
	Use:   "use <code>",
	Short: "Redeem an invite code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		result, err := client.UseInvite(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("redeeming invite: %s", result.Message)
		}
		printSuccess("%s", result.Message)
		if result.BonusTokens > 0 {
			printStatus("보너스", "%d 토큰", result.BonusTokens)
		}
		return nil
	},
}

func init() {
	inviteCreateCmd.Flags().Int("expires-in", 0, "days until the code expires (0 uses the server default)")
	inviteCmd.AddCommand(inviteCreateCmd, inviteListCmd, inviteUseCmd, inviteStatsCmd)
}
