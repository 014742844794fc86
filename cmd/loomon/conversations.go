package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomonai/loomon/internal/render"
	"github.com/loomonai/loomon/internal/transcript"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Browse and manage saved conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		conversations, err := client.Conversations(cmd.Context())
		if err != nil {
			return err
		}
		if len(conversations) == 0 {
			printStep("No conversations yet")
			return nil
		}
		for _, c := range conversations {
			fmt.Println(render.ConversationRow(c))
		}
		return nil
	},
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show the messages of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		messages, err := client.Messages(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for i, m := range messages {
			if i > 0 {
				fmt.Println()
			}
			switch m.Role {
			case "user":
				fmt.Println(colorize(colorCyan, "사용자:"))
				fmt.Println(m.Content)
			default:
				fmt.Println(colorize(colorGreen, "Loomon:"))
				fmt.Println(render.FormatANSI(m.Content))
				if refs := render.References(m.Metadata.References); refs != "" {
					fmt.Println(refs)
				}
			}
		}
		return nil
	},
}

var conversationsRenameCmd = &cobra.Command{
	Use:   "rename <conversation-id> <title...>",
	Short: "Rename a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		title := strings.Join(args[1:], " ")
		if _, err := client.RenameConversation(cmd.Context(), args[0], title); err != nil {
			return err
		}
		printSuccess("Renamed to %q", title)
		return nil
	},
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			ok, err := confirm(fmt.Sprintf("Delete conversation %s? This cannot be undone", id))
			if err != nil {
				return err
			}
			if !ok {
				printStep("Aborted")
				return nil
			}
		}

		sess, err := newAssistantSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.client.DeleteConversation(cmd.Context(), id); err != nil {
			return err
		}
		if sess.transcripts != nil {
			if err := sess.transcripts.Delete(cmd.Context(), id); err != nil && !errors.Is(err, transcript.ErrNotFound) {
				printWarning("Could not drop local transcript: %v", err)
			}
		}
		// Deleting the active conversation invalidates the running session.
		if sess.controller.ConversationID() == id {
			sess.controller.Reset()
			if err := sess.store.ClearSession(); err != nil {
				printWarning("Could not clear session state: %v", err)
			}
		}
		printSuccess("Conversation deleted")
		return nil
	},
}

func confirm(prompt string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func init() {
	conversationsDeleteCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	conversationsCmd.AddCommand(conversationsListCmd, conversationsShowCmd, conversationsRenameCmd, conversationsDeleteCmd)
}
