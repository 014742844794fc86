package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Manage manual-deposit payments",
}

var paymentAccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the deposit bank account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		account, err := client.PaymentAccount(cmd.Context())
		if err != nil {
			return err
		}
		printStatus("은행", "%s", account.BankName)
		printStatus("계좌번호", "%s", account.AccountNumber)
		printStatus("예금주", "%s", account.AccountHolder)
		return nil
	},
}

var paymentRequestCmd = &cobra.Command{
	Use:   "request <plan-id>",
	Short: "Request a plan upgrade paid by bank deposit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		req, err := client.RequestPayment(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSuccess("Payment request created")
		printStatus("플랜", "%s", req.Plan.DisplayName)
		printStatus("상태", "%s", paymentStatusLabel(req.Status))
		printStep("입금 후 `loomon payment confirm %s` 를 실행하세요", req.ID)
		return nil
	},
}

var paymentConfirmCmd = &cobra.Command{
	Use:   "confirm <request-id>",
	Short: "Report that the deposit was made",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		req, err := client.ConfirmDeposit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSuccess("Deposit reported, awaiting approval")
		printStatus("상태", "%s", paymentStatusLabel(req.Status))
		return nil
	},
}

var paymentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List your payment requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		requests, err := client.PaymentStatus(cmd.Context())
		if err != nil {
			return err
		}
		if len(requests) == 0 {
			printStep("No payment requests")
			return nil
		}
		for _, req := range requests {
			fmt.Printf("%s  %s  %s  %s\n",
				req.ID, req.Plan.DisplayName, paymentStatusLabel(req.Status),
				req.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func paymentStatusLabel(status string) string {
	switch status {
	case "pending":
		return colorize(colorYellow, "입금 대기")
	case "deposit_confirmed":
		return colorize(colorCyan, "입금 확인 중")
	case "approved":
		return colorize(colorGreen, "승인됨")
	case "rejected":
		return colorize(colorRed, "거절됨")
	}
	return status
}

func init() {
	paymentCmd.AddCommand(paymentAccountCmd, paymentRequestCmd, paymentConfirmCmd, paymentStatusCmd)
}
