// Package session holds the client-side conversation state: the in-memory
// state of the current turn and the small set of values that persist across
// CLI runs (session id, onboarding flag, stated goal).
package session

import (
	"github.com/loomonai/loomon/internal/api"
)

// State is the in-memory state of one conversation. It accumulates across
// turns within a process and is rebuilt from the backend when a stored
// conversation is resumed.
type State struct {
	// SessionID is the backend session adopted from the first intent parse.
	// Once set it is reused for every subsequent call.
	SessionID string

	// ConversationID is the stored conversation messages are mirrored to,
	// empty for anonymous sessions.
	ConversationID string

	// History is the transcript sent with each intent parse.
	History []api.HistoryEntry

	// PendingQuestions and Cursor track the clarification round in
	// progress. Cursor indexes the question currently being asked.
	PendingQuestions []api.Question
	Cursor           int

	// Answers maps question text to the user's answer for the current
	// clarification round.
	Answers map[string]string

	// LastPromptHistoryID identifies the most recent generation, used when
	// attaching feedback.
	LastPromptHistoryID string

	// Turn is a generation counter. It is bumped when the conversation is
	// reset so responses from an abandoned turn can be discarded.
	Turn int
}

// NewState returns an empty conversation state.
func NewState() *State {
	return &State{Answers: make(map[string]string)}
}

// FirstTurn reports whether no user input has been recorded yet.
func (s *State) FirstTurn() bool {
	for _, h := range s.History {
		if h.Role == "user" {
			return false
		}
	}
	return true
}

// AppendUser records a user message in the history.
func (s *State) AppendUser(content string) {
	s.History = append(s.History, api.HistoryEntry{Role: "user", Content: content})
}

// AppendAssistant records an assistant message in the history.
func (s *State) AppendAssistant(content string) {
	s.History = append(s.History, api.HistoryEntry{Role: "assistant", Content: content})
}

// CurrentQuestion returns the clarifying question awaiting an answer, or
// nil when the round is finished.
func (s *State) CurrentQuestion() *api.Question {
	if s.Cursor < 0 || s.Cursor >= len(s.PendingQuestions) {
		return nil
	}
	return &s.PendingQuestions[s.Cursor]
}

// Answer records the answer for the current question and advances the
// cursor. Skipped questions pass an empty answer and are not recorded.
func (s *State) Answer(text string) {
	if q := s.CurrentQuestion(); q != nil && text != "" {
		s.Answers[q.Text] = text
	}
	s.Cursor++
}

// ClearQuestions drops the clarification round.
func (s *State) ClearQuestions() {
	s.PendingQuestions = nil
	s.Cursor = 0
	s.Answers = make(map[string]string)
}

// Reset starts a fresh conversation: everything is dropped except the turn
// counter, which is bumped so stale in-flight responses are discarded.
func (s *State) Reset() {
	turn := s.Turn + 1
	*s = State{Answers: make(map[string]string), Turn: turn}
}
