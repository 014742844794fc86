// Package mcpserver exposes the Loomon assistant over the Model Context
// Protocol, so local agents can ask questions, browse stored
// conversations, and leave feedback through one stdio bridge.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/flow"
)

// Assistant runs conversation turns. flow.Controller satisfies it.
type Assistant interface {
	Send(ctx context.Context, message string) (*flow.Turn, error)
	Answer(ctx context.Context, answer string) (*flow.Turn, error)
	Feedback(ctx context.Context, text, sentiment string) error
}

// ConversationReader lists stored conversations and their transcripts.
type ConversationReader interface {
	Conversations(ctx context.Context) ([]api.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]api.Message, error)
}

// SubscriptionReader fetches the current subscription.
type SubscriptionReader interface {
	CurrentSubscription(ctx context.Context) (*api.Subscription, error)
}

// Deps holds the dependencies for the MCP server.
type Deps struct {
	Assistant     Assistant
	Conversations ConversationReader
	Subscription  SubscriptionReader
}

// New creates an MCP server with all Loomon tools and resources registered.
func New(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"loomon",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("loomon: chat assistant bridge for prompting, stored conversations, and feedback."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Send a message to the assistant and return its response. Clarifying questions are answered with their defaults."),
			mcp.WithString("message", mcp.Description("The user message"), mcp.Required()),
		),
		toolAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("list_conversations",
			mcp.WithDescription("List the stored conversations for the logged-in account."),
		),
		toolListConversations(deps),
	)

	s.AddTool(
		mcp.NewTool("get_messages",
			mcp.WithDescription("Fetch a stored conversation's transcript."),
			mcp.WithString("conversation_id", mcp.Description("The conversation id"), mcp.Required()),
		),
		toolGetMessages(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_feedback",
			mcp.WithDescription("Attach feedback to the most recent assistant response."),
			mcp.WithString("text", mcp.Description("Feedback text"), mcp.Required()),
			mcp.WithString("sentiment", mcp.Description("positive, neutral, or negative (default neutral)")),
		),
		toolSubmitFeedback(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"loomon://subscription",
			"Current Subscription",
			mcp.WithResourceDescription("The account's active subscription and usage as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		resourceSubscription(deps),
	)

	return s
}

// maxAutoAnswers bounds the clarification round driven on behalf of a
// non-interactive caller.
const maxAutoAnswers = 10

func toolAsk(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		turn, err := deps.Assistant.Send(ctx, message)
		if err != nil {
			return mcpError(fmt.Sprintf("ask failed: %v", err)), nil
		}

		// There is no user to answer clarifying questions here, so each
		// one falls back to its default or is skipped.
		for i := 0; turn.Kind == flow.TurnQuestions; i++ {
			if i >= maxAutoAnswers {
				return mcpError("clarification round did not converge"), nil
			}
			turn, err = deps.Assistant.Answer(ctx, "")
			if err != nil {
				return mcpError(fmt.Sprintf("ask failed: %v", err)), nil
			}
		}

		text := turn.Result.Response
		for _, ref := range turn.Result.References {
			title := ref.Title
			if title == "" {
				title = ref.URL
			}
			text += fmt.Sprintf("\n[%s] %s", title, ref.URL)
		}
		return mcpText(text), nil
	}
}

func toolListConversations(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		convs, err := deps.Conversations.Conversations(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("listing conversations failed: %v", err)), nil
		}

		type row struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			MessageCount int    `json:"message_count"`
			UpdatedAt    string `json:"updated_at"`
		}
		rows := make([]row, len(convs))
		for i, c := range convs {
			rows[i] = row{
				ID:           c.ID,
				Title:        c.Title,
				MessageCount: c.MessageCount,
				UpdatedAt:    c.UpdatedAt.Format("2006-01-02 15:04"),
			}
		}

		b, err := json.Marshal(rows)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal conversations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolGetMessages(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("conversation_id")
		if err != nil {
			return mcpError("conversation_id is required"), nil
		}

		msgs, err := deps.Conversations.Messages(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("fetching messages failed: %v", err)), nil
		}

		type row struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		}
		rows := make([]row, len(msgs))
		for i, m := range msgs {
			rows[i] = row{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt.Format("2006-01-02 15:04")}
		}

		b, err := json.Marshal(rows)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal messages: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolSubmitFeedback(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		sentiment := req.GetString("sentiment", api.SentimentNeutral)

		if err := deps.Assistant.Feedback(ctx, text, sentiment); err != nil {
			return mcpError(fmt.Sprintf("feedback failed: %v", err)), nil
		}
		return mcpText("feedback recorded"), nil
	}
}

func resourceSubscription(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		sub, err := deps.Subscription.CurrentSubscription(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get subscription: %w", err)
		}

		b, err := json.Marshal(sub)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal subscription: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
