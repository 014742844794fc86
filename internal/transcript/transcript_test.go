package transcript

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/loomonai/loomon/internal/api"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, "c1", "user", "안녕", api.MessageMetadata{}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	meta := api.MessageMetadata{
		ModelUsed:       "gpt-test",
		TokensUsed:      120,
		PromptHistoryID: "ph-1",
		References:      []api.Reference{{URL: "https://go.dev", Title: "Go"}},
	}
	if err := s.Record(ctx, "c1", "assistant", "반갑습니다", meta); err != nil {
		t.Fatalf("Record: %v", err)
	}

	msgs, err := s.Messages(ctx, "c1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles = %s, %s; want user, assistant", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Metadata.ModelUsed != "gpt-test" {
		t.Errorf("ModelUsed = %q, want gpt-test", msgs[1].Metadata.ModelUsed)
	}
	if len(msgs[1].Metadata.References) != 1 || msgs[1].Metadata.References[0].URL != "https://go.dev" {
		t.Errorf("References = %+v", msgs[1].Metadata.References)
	}
}

func TestMessagesNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Messages(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConversations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Record(ctx, "c1", "user", "first", api.MessageMetadata{})
	s.Record(ctx, "c2", "user", "second", api.MessageMetadata{})
	s.Record(ctx, "c2", "assistant", "reply", api.MessageMetadata{})

	sums, err := s.Conversations(ctx)
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("len(sums) = %d, want 2", len(sums))
	}
	for _, sum := range sums {
		if sum.ConversationID == "c2" && sum.MessageCount != 2 {
			t.Errorf("c2 count = %d, want 2", sum.MessageCount)
		}
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Record(ctx, "c1", "user", "x", api.MessageMetadata{})
	if err := s.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Messages(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Messages after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	s1.Record(context.Background(), "c1", "user", "persisted", api.MessageMetadata{})
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	msgs, err := s2.Messages(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Messages after reopen: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "persisted" {
		t.Errorf("msgs = %+v, want the persisted message", msgs)
	}
}
