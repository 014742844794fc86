package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/loomonai/loomon/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant over MCP on stdio",
	Long: `Serve the assistant over the Model Context Protocol on stdio, so MCP
clients (editors, agent runtimes) can ask questions, browse conversations,
and submit feedback through the Loomon backend.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sess, err := newAssistantSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		mcpSrv := mcpserver.New(mcpserver.Deps{
			Assistant:     sess.controller,
			Conversations: sess.client,
			Subscription:  sess.client,
		})

		slog.Info("mcp server listening on stdio")
		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
