package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export <conversation-id>",
	Short: "Export a conversation to Markdown or HTML",
	Long: `Export a conversation to Markdown or HTML.

Messages are fetched from the backend when it is reachable; otherwise the
local transcript cache is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "markdown" && format != "html" {
			return fmt.Errorf("invalid format %q (markdown, html)", format)
		}

		sess, err := newAssistantSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		conv, msgs, err := exportSource(cmd.Context(), sess, args[0])
		if err != nil {
			return err
		}

		var doc string
		if format == "html" {
			doc = render.ExportHTML(conv, msgs)
		} else {
			doc = render.ExportMarkdown(conv, msgs)
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			fmt.Print(doc)
			return nil
		}
		if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		printSuccess("Exported %d messages to %s", len(msgs), output)
		return nil
	},
}

// exportSource gathers the conversation and its messages, falling back to
// the transcript cache when the backend cannot serve them.
func exportSource(ctx context.Context, sess *assistantSession, id string) (api.Conversation, []api.Message, error) {
	conv := api.Conversation{ID: id}
	if c, err := sess.client.Conversation(ctx, id); err == nil {
		conv = *c
	}

	msgs, err := sess.client.Messages(ctx, id)
	if err == nil {
		return conv, msgs, nil
	}
	if sess.transcripts == nil {
		return conv, nil, err
	}

	entries, cacheErr := sess.transcripts.Messages(ctx, id)
	if cacheErr != nil {
		return conv, nil, fmt.Errorf("fetching messages: %w (no local copy)", err)
	}
	printWarning("Backend unavailable, exporting the local copy")
	for _, e := range entries {
		msgs = append(msgs, api.Message{
			ID:        e.ID,
			Role:      e.Role,
			Content:   e.Content,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return conv, msgs, nil
}

func init() {
	exportCmd.Flags().String("format", "markdown", "export format: markdown or html")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}
