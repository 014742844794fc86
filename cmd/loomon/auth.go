package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/loomonai/loomon/internal/api"
)

// readPassword prompts for a password without echoing. Falls back to plain
// line input when stdin is not a terminal (piped input in scripts).
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the Loomon backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password, err = readPassword("Password: ")
			if err != nil {
				return err
			}
		}

		user, err := client.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}

		printSuccess("Logged in as %s", user.Username)
		if !user.EmailVerified {
			printWarning("email %s is not verified; run: loomon resend-verification", user.Email)
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password, err = readPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}
		}
		bio, _ := cmd.Flags().GetString("bio")

		user, err := client.Register(cmd.Context(), args[0], args[1], password, bio)
		if err != nil {
			return err
		}

		printSuccess("Registered %s", user.Username)
		printStep("a verification email was sent to %s", user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and drop the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := client.Logout(cmd.Context()); err != nil {
			// The backend session may already be gone; the local cookie
			// still has to go.
			printWarning("backend logout failed: %v", err)
		}

		jar, err := cookieJar(cfg)
		if err != nil {
			return err
		}
		if err := jar.Clear(); err != nil {
			return err
		}
		printSuccess("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		user, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("not logged in")
			return nil
		}

		printStatus("Username", "%s", user.Username)
		printStatus("Email", "%s", user.Email)
		printStatus("Verified", "%t", user.EmailVerified)
		if user.Bio != "" {
			printStatus("Bio", "%s", user.Bio)
		}
		return nil
	},
}

var verifyEmailCmd = &cobra.Command{
	Use:   "verify-email <token>",
	Short: "Verify an email address with the token from the verification link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := client.VerifyEmail(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Email verified")
		return nil
	},
}

var resendVerificationCmd = &cobra.Command{
	Use:   "resend-verification",
	Short: "Resend the email verification link",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := client.ResendVerification(cmd.Context()); err != nil {
			return err
		}
		printSuccess("Verification email sent")
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the account profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		var update api.ProfileUpdate
		changed := false
		if cmd.Flags().Changed("email") {
			v, _ := cmd.Flags().GetString("email")
			update.Email = &v
			changed = true
		}
		if cmd.Flags().Changed("bio") {
			v, _ := cmd.Flags().GetString("bio")
			update.Bio = &v
			changed = true
		}
		if cmd.Flags().Changed("avatar") {
			v, _ := cmd.Flags().GetString("avatar")
			update.Avatar = &v
			changed = true
		}

		if !changed {
			return whoamiCmd.RunE(cmd, args)
		}

		user, err := client.UpdateProfile(cmd.Context(), update)
		if err != nil {
			return err
		}
		printSuccess("Profile updated for %s", user.Username)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
	registerCmd.Flags().String("password", "", "password (prompted when omitted)")
	registerCmd.Flags().String("bio", "", "profile bio")
	profileCmd.Flags().String("email", "", "new email address")
	profileCmd.Flags().String("bio", "", "new bio")
	profileCmd.Flags().String("avatar", "", "new avatar URL")
}
