package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/loomonai/loomon/internal/api"
)

func TestStateFirstTurn(t *testing.T) {
	s := NewState()
	if !s.FirstTurn() {
		t.Error("empty state should be first turn")
	}

	s.AppendAssistant("welcome")
	if !s.FirstTurn() {
		t.Error("assistant-only history should still be first turn")
	}

	s.AppendUser("hello")
	if s.FirstTurn() {
		t.Error("state with user message should not be first turn")
	}
}

func TestStateQuestionRound(t *testing.T) {
	s := NewState()
	s.PendingQuestions = []api.Question{
		{Text: "What language?", Priority: 5},
		{Text: "What audience?", Priority: 3},
	}

	q := s.CurrentQuestion()
	if q == nil || q.Text != "What language?" {
		t.Fatalf("CurrentQuestion = %+v, want first question", q)
	}

	s.Answer("Korean")
	q = s.CurrentQuestion()
	if q == nil || q.Text != "What audience?" {
		t.Fatalf("CurrentQuestion after answer = %+v, want second question", q)
	}

	// Empty answer skips without recording.
	s.Answer("")
	if s.CurrentQuestion() != nil {
		t.Error("CurrentQuestion after round = non-nil, want nil")
	}
	if len(s.Answers) != 1 || s.Answers["What language?"] != "Korean" {
		t.Errorf("Answers = %v, want only the Korean answer", s.Answers)
	}
}

func TestStateReset(t *testing.T) {
	s := NewState()
	s.SessionID = "s1"
	s.ConversationID = "c1"
	s.AppendUser("hi")
	s.Turn = 3

	s.Reset()

	if s.SessionID != "" || s.ConversationID != "" || len(s.History) != 0 {
		t.Errorf("state after reset = %+v, want empty", s)
	}
	if s.Turn != 4 {
		t.Errorf("Turn = %d, want 4", s.Turn)
	}
	if s.Answers == nil {
		t.Error("Answers map should be re-initialized")
	}
}

func TestStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	st := NewStore(path)
	if st.SessionID() != "" {
		t.Errorf("fresh store SessionID = %q, want empty", st.SessionID())
	}

	if err := st.SetSessionID("sess-1"); err != nil {
		t.Fatalf("SetSessionID: %v", err)
	}
	if err := st.MarkOnboardingSeen(); err != nil {
		t.Fatalf("MarkOnboardingSeen: %v", err)
	}
	if err := st.SetGoal("learn Go"); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	st2 := NewStore(path)
	if st2.SessionID() != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", st2.SessionID())
	}
	if !st2.OnboardingSeen() {
		t.Error("OnboardingSeen = false, want true")
	}
	if st2.Goal() != "learn Go" {
		t.Errorf("Goal = %q, want learn Go", st2.Goal())
	}
}

func TestStoreClearSessionKeepsOnboarding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	st := NewStore(path)
	st.SetSessionID("sess-1")
	st.SetGoal("write docs")
	st.MarkOnboardingSeen()

	if err := st.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}

	st2 := NewStore(path)
	if st2.SessionID() != "" || st2.Goal() != "" {
		t.Errorf("after clear: session=%q goal=%q, want empty", st2.SessionID(), st2.Goal())
	}
	if !st2.OnboardingSeen() {
		t.Error("onboarding flag should survive ClearSession")
	}
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	st := NewStore(path)
	if st.SessionID() != "" {
		t.Errorf("SessionID from corrupt file = %q, want empty", st.SessionID())
	}
}
