package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Conversation is a stored chat thread.
type Conversation struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	User          string     `json:"user"`
	MessageCount  int        `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Message is one entry in a conversation transcript. Metadata carries the
// generation details the backend attached (model_used, tokens_used,
// prompt_history_id, references).
type Message struct {
	ID           string          `json:"id"`
	Conversation string          `json:"conversation"`
	Role         string          `json:"role"`
	Content      string          `json:"content"`
	Metadata     MessageMetadata `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MessageMetadata is the optional per-message generation metadata.
type MessageMetadata struct {
	ModelUsed       string      `json:"model_used,omitempty"`
	TokensUsed      int         `json:"tokens_used,omitempty"`
	PromptHistoryID string      `json:"prompt_history_id,omitempty"`
	References      []Reference `json:"references,omitempty"`
}

// listEnvelope tolerates both bare-array and paginated {results: [...]}
// list responses; the two deployments of the backend disagree.
type listEnvelope[T any] struct {
	Results []T
}

func (e *listEnvelope[T]) UnmarshalJSON(data []byte) error {
	var bare []T
	if err := json.Unmarshal(data, &bare); err == nil {
		e.Results = bare
		return nil
	}
	var wrapped struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	e.Results = wrapped.Results
	return nil
}

// Conversations lists the current user's conversations.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out listEnvelope[Conversation]
	if err := c.get(ctx, "/conversations/", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// CreateConversation starts a new conversation with the given title.
func (c *Client) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	var out Conversation
	if err := c.post(ctx, "/conversations/", map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Conversation fetches a single conversation by id.
func (c *Client) Conversation(ctx context.Context, id string) (*Conversation, error) {
	var out Conversation
	if err := c.get(ctx, "/conversations/"+id+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Messages returns a conversation's transcript in the backend's stored
// order.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	var out listEnvelope[Message]
	if err := c.get(ctx, fmt.Sprintf("/conversations/%s/messages/", conversationID), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// RenameConversation changes a conversation's title.
func (c *Client) RenameConversation(ctx context.Context, id, title string) (*Conversation, error) {
	var out Conversation
	if err := c.patch(ctx, fmt.Sprintf("/conversations/%s/rename/", id), map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.delete(ctx, "/conversations/"+id+"/")
}

type createMessageRequest struct {
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Metadata       MessageMetadata `json:"metadata"`
}

// CreateMessage appends a message to a conversation server-side.
func (c *Client) CreateMessage(ctx context.Context, conversationID, role, content string, metadata MessageMetadata) (*Message, error) {
	var out Message
	err := c.post(ctx, "/messages/", createMessageRequest{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
